package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
	"github.com/Riboost-Studio/aep-printer-client/internal/services"
	"github.com/Riboost-Studio/aep-printer-client/internal/utils"
)

const (
	appName    = "aepctl"
	appVersion = "1.0.0"
)

var (
	configFile string
	target     string
	debug      bool

	config model.Config
)

var rootCmd = &cobra.Command{
	Use:          appName,
	Short:        "Talk to a printer's web application interface",
	Version:      appVersion,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ctx = context.WithValue(ctx, model.ContextConfigFile, configFile)

		cfg, err := utils.LoadConfig(ctx)
		if err != nil {
			return err
		}
		if target != "" {
			if p, ok := cfg.FindPrinter(target); ok {
				cfg.Target = p.IP
			} else {
				cfg.Target = target
			}
		}
		if debug {
			cfg.LogLevel = "debug"
		}
		config = cfg

		initLogger(cfg.LogLevel)
		version, _ := ctx.Value(model.ContextAppVersion).(string)
		name, _ := ctx.Value(model.ContextAppName).(string)
		log.Debug().Str("name", name).Str("version", version).Str("target", cfg.Target).Msg("Configuration loaded")
		ctx = context.WithValue(ctx, model.ContextTarget, cfg.Target)
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/aepctl.toml", "config file")
	rootCmd.PersistentFlags().StringVarP(&target, "target", "t", "", "printer address or configured printer name")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging")
}

func initLogger(level string) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(output).Level(lvl).With().Timestamp().Str("app", appName).Logger()
}

// newClient builds a client from the loaded configuration.
func newClient() *services.Client {
	cfg := services.DefaultClientConfig()
	cfg.RequestTimeout = config.RequestTimeout
	cfg.HandshakeTimeout = config.HandshakeTimeout
	cfg.Logger = log.Logger
	return services.NewClient(cfg)
}

// connectClient opens a client against the configured target.
func connectClient(ctx context.Context) (*services.Client, error) {
	client := newClient()
	t, _ := ctx.Value(model.ContextTarget).(string)
	if err := client.Connect(ctx, t); err != nil {
		return nil, err
	}
	return client, nil
}

// --- Main ---

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = context.WithValue(ctx, model.ContextAppName, appName)
	ctx = context.WithValue(ctx, model.ContextAppVersion, appVersion)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
