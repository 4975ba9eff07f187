package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

var (
	yellow = color.New(color.FgHiYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	blue   = color.New(color.FgHiBlue).SprintfFunc()
)

var (
	monitorAttempts uint
	monitorDelay    time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream printer state, errors, scans and variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, _ := ctx.Value(model.ContextTarget).(string)

		client := newClient()
		defer client.Close()

		dropped := make(chan error, 1)
		client.SetDisconnectCallback(func(err error) {
			select {
			case dropped <- err:
			default:
			}
		})
		client.SetStateChangeCallback(func(from, to model.PrinterState) {
			fmt.Println(stateColor(to)("state  %s -> %s", from, to))
		})
		client.SetErrorCallback(func(rec model.ErrorRecord) {
			fmt.Println(red("error  %d %s", rec.Code, rec.Message))
		})
		client.SetPrintDoneCallback(func() {
			fmt.Println(green("print  done"))
		})
		client.SetScannerCallback(func(data string) {
			fmt.Println(blue("scan   %s", data))
		})
		client.SetVariablesCallback(func(vars json.RawMessage) {
			fmt.Println(yellow("vars   %s", vars))
		})
		client.SetUserDataCallback(func(data json.RawMessage) {
			fmt.Println(yellow("data   %s", data))
		})

		for {
			err := retry.Do(func() error {
				return client.Connect(ctx, t)
			},
				retry.Context(ctx),
				retry.Attempts(monitorAttempts),
				retry.Delay(monitorDelay),
				retry.DelayType(retry.FixedDelay),
				retry.OnRetry(func(n uint, err error) {
					log.Warn().Err(err).Uint("attempt", n+1).Msg("Connection failed, retrying")
				}),
				retry.LastErrorOnly(true),
			)
			if err != nil {
				if errors.Is(ctx.Err(), context.Canceled) {
					return nil
				}
				return err
			}
			log.Info().Str("session", client.SessionID()).Stringer("state", client.State()).Msg("Monitoring")

			select {
			case <-ctx.Done():
				return nil
			case err := <-dropped:
				log.Warn().Err(err).Dur("delay", monitorDelay).Msg("Connection lost, reconnecting")
			}
		}
	},
}

func stateColor(s model.PrinterState) func(string, ...interface{}) string {
	switch s {
	case model.StateError:
		return red
	case model.StatePrinting:
		return blue
	case model.StateReady:
		return green
	default:
		return yellow
	}
}

func init() {
	monitorCmd.Flags().UintVar(&monitorAttempts, "attempts", 10, "connect attempts before giving up")
	monitorCmd.Flags().DurationVar(&monitorDelay, "delay", 5*time.Second, "delay between connect attempts")
	rootCmd.AddCommand(monitorCmd)
}
