package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
	"github.com/Riboost-Studio/aep-printer-client/internal/services"
	"github.com/Riboost-Studio/aep-printer-client/internal/utils"
)

var (
	printQuantity int
	printVars     []string
	printWait     bool
	printFormat   string

	previewOut string

	tableQuery model.TableQuery

	discoverCfg  = services.DefaultDiscoveryConfig()
	discoverSave bool
)

var printCmd = &cobra.Command{
	Use:   "print <format-name>",
	Short: "Print an installed format, or a JSON format file with --format-file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		req := model.PrintRequest{Quantity: printQuantity}
		switch {
		case printFormat != "":
			data, err := os.ReadFile(printFormat)
			if err != nil {
				return err
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s: not valid JSON", printFormat)
			}
			req.FormatData = data
		case len(args) == 1:
			req.FormatName = args[0]
		default:
			return fmt.Errorf("format name or --format-file required")
		}
		vars, err := parseVars(printVars)
		if err != nil {
			return err
		}
		req.Data = vars

		client, err := connectClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		done := make(chan struct{})
		cb := services.BatchCallbacks{
			LabelCount: func(remaining int) {
				fmt.Println(blue("labels left: %d", remaining))
			},
			Done: func() { close(done) },
			Error: func(rec model.ErrorRecord) {
				fmt.Println(red("error %d %s", rec.Code, rec.Message))
			},
		}
		if _, err := client.Print(ctx, req, cb); err != nil {
			return err
		}
		fmt.Println(green("print accepted"))
		if !printWait {
			return nil
		}
		select {
		case <-done:
			fmt.Println(green("batch done"))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <format-name>",
	Short: "Render a preview of an installed format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		vars, err := parseVars(printVars)
		if err != nil {
			return err
		}
		client, err := connectClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		img, err := client.PreviewByName(ctx, args[0], vars)
		if err != nil {
			return err
		}
		if previewOut == "" {
			fmt.Println(img)
			return nil
		}
		data, err := decodeDataURL(img)
		if err != nil {
			return err
		}
		if err := os.WriteFile(previewOut, data, 0644); err != nil {
			return fmt.Errorf("failed saving image: %w", err)
		}
		log.Info().Str("file", previewOut).Int("bytes", len(data)).Msg("Preview saved")
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "key <name|code>",
	Short: "Simulate a key press on the printer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()
		if code, err := strconv.Atoi(args[0]); err == nil {
			return client.SendKey(code)
		}
		return client.SendKeyName(args[0])
	},
}

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Read or write application variables",
}

var varsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print all application variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, client *services.Client) error {
			vars, err := client.FetchVariables(ctx)
			if err != nil {
				return err
			}
			return printJSON(vars)
		})
	},
}

var varsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Set and evaluate variables",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(args)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, client *services.Client) error {
			res, err := client.SaveVariables(ctx, vars)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var tableCmd = &cobra.Command{
	Use:   "table <table-name>",
	Short: "Fetch rows from an application table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, client *services.Client) error {
			rows, err := client.FetchTableRows(ctx, args[0], tableQuery)
			if err != nil {
				return err
			}
			return printJSON(rows)
		})
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan the local subnet for printers",
	RunE: func(cmd *cobra.Command, args []string) error {
		printers, err := services.DiscoverPrinters(cmd.Context(), discoverCfg)
		if err != nil {
			return err
		}
		if len(printers) == 0 {
			fmt.Println(yellow("no printers found"))
			return nil
		}
		for _, p := range printers {
			fmt.Printf("%s\t%s\n", green(p.IP), p.Name)
		}
		if discoverSave {
			if err := utils.SavePrinters(configFile, printers); err != nil {
				return err
			}
			log.Info().Str("file", configFile).Int("printers", len(printers)).Msg("Printers saved")
		}
		return nil
	},
}

func withClient(ctx context.Context, fn func(context.Context, *services.Client) error) error {
	client, err := connectClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, client)
}

// parseVars turns key=value pairs into a variable map.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid variable %q, want key=value", p)
		}
		vars[strings.TrimSpace(k)] = v
	}
	return vars, nil
}

// decodeDataURL accepts a bare base64 string or a data: URL.
func decodeDataURL(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data URL")
		}
		s = payload
	}
	return base64.StdEncoding.DecodeString(s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	printCmd.Flags().IntVarP(&printQuantity, "quantity", "q", 1, "number of labels")
	printCmd.Flags().StringArrayVar(&printVars, "var", nil, "variable key=value, repeatable")
	printCmd.Flags().BoolVarP(&printWait, "wait", "w", true, "wait for the batch to finish")
	printCmd.Flags().StringVar(&printFormat, "format-file", "", "JSON format to print instead of an installed one")

	previewCmd.Flags().StringArrayVar(&printVars, "var", nil, "variable key=value, repeatable")
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "write the decoded image to this file")

	tableCmd.Flags().IntVar(&tableQuery.Rows, "rows", 30, "rows to fetch")
	tableCmd.Flags().IntVar(&tableQuery.Offset, "offset", 0, "row offset")
	tableCmd.Flags().StringVar(&tableQuery.Index, "index", "", "index column")
	tableCmd.Flags().StringVar(&tableQuery.SortBy, "sort-by", "", "sort by column")
	tableCmd.Flags().StringVar(&tableQuery.Search, "search", "", "search term for index or sort column")
	tableCmd.Flags().StringVar(&tableQuery.Filter, "filter", "", "filter expression")
	tableCmd.Flags().BoolVar(&tableQuery.Distinct, "distinct", false, "unique rows only")
	tableCmd.Flags().StringSliceVar(&tableQuery.Columns, "columns", nil, "columns to fetch")

	discoverCmd.Flags().StringVar(&discoverCfg.Subnet, "subnet", "", "first three octets to scan, default: local subnet")
	discoverCmd.Flags().IntVar(&discoverCfg.Port, "port", discoverCfg.Port, "port to probe")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "add found printers to the config file")

	varsCmd.AddCommand(varsGetCmd, varsSetCmd)
	rootCmd.AddCommand(printCmd, previewCmd, keyCmd, varsCmd, tableCmd, discoverCmd)
}
