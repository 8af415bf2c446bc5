// Package main is the entry point for chartconv CLI
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/james-see/chartconv/pkg/api"
	"github.com/james-see/chartconv/pkg/config"
	"github.com/james-see/chartconv/pkg/converter"
	"github.com/james-see/chartconv/pkg/converter/formats"
	"github.com/james-see/chartconv/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	configFile string
	verbose    bool
	jsonOutput bool
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chartconv",
	Short: "Convert rhythm game charts between osu!mania, StepMania and Quaver",
	Long: `chartconv converts rhythm game charts between osu!mania (.osu),
StepMania (.sm) and Quaver (.qua), and exports a MIDI preview of any chart.

Examples:
  chartconv convert song.osu -o song.sm
  chartconv osu2qua song.osu
  chartconv inspect song.sm
  chartconv tui
  chartconv serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			converter.SetLogger(log.New(os.Stderr, "chartconv: ", log.LstdFlags))
		}
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Print a summary of a chart",
	Long:  `Parses a chart and prints its metadata, timing and note statistics. Every difficulty of a .sm file is listed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the active defaults as YAML",
	RunE:  runConfig,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML file overriding the chart defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log conversion diagnostics to stderr")

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	// Inspect command
	inspectCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(convertCmd)
	for _, pair := range formats.NewConverter(nil).Pairs() {
		rootCmd.AddCommand(pairCommand(pair[0], pair[1]))
	}
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// pairCommand creates a fixed-direction command such as osu2sm
func pairCommand(from, to converter.Format) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <input%s>", converter.PairName(from, to), from.Extension()),
		Short: fmt.Sprintf("Convert %s to %s format", from.Extension(), to.Extension()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + to.Extension()
			}

			conv, err := newConverter()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}

			result, err := conv.Convert(data, from, to)
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, result, 0644); err != nil {
				return err
			}

			fmt.Printf("Converted %s -> %s\n", input, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", fmt.Sprintf("Output %s file path", to.Extension()))
	return cmd
}

func loadDefaults() (*converter.Defaults, error) {
	defaults, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configFile, err)
	}
	return defaults, nil
}

func newConverter() (*converter.Converter, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}
	return formats.NewConverter(defaults), nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv, err := newConverter()
	if err != nil {
		return err
	}

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := conv.ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	defaults, err := loadDefaults()
	if err != nil {
		return err
	}

	data, format, err := converter.ReadFile(args[0])
	if err != nil {
		return err
	}

	var charts []*converter.Chart
	if format == converter.FormatStepMania {
		charts, err = formats.NewStepMania(defaults).FromSMCharts(converter.DecodeText(data))
	} else {
		var chart *converter.Chart
		chart, err = formats.NewConverter(defaults).Parse(data, format)
		charts = []*converter.Chart{chart}
	}
	if err != nil {
		return err
	}

	summaries := make([]converter.Summary, 0, len(charts))
	for _, chart := range charts {
		summaries = append(summaries, converter.Summarize(chart, format))
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	for _, s := range summaries {
		fmt.Printf("%s - %s [%s] (%s)\n", s.Artist, s.Title, s.DifficultyName, s.Format)
		fmt.Printf("  Creator:  %s\n", s.Creator)
		fmt.Printf("  Keys:     %dk\n", s.KeyCount)
		if s.MinBPM == s.MaxBPM {
			fmt.Printf("  BPM:      %g\n", s.MaxBPM)
		} else {
			fmt.Printf("  BPM:      %g-%g\n", s.MinBPM, s.MaxBPM)
		}
		fmt.Printf("  Offset:   %dms\n", s.AudioOffset)
		fmt.Printf("  Length:   %dms\n", s.Length)
		fmt.Printf("  Rows:     %d (%d objects)\n", s.Rows, s.Objects)
		fmt.Printf("  Timing:   %d points\n", s.TimingPoints)
		if s.Samples > 0 {
			fmt.Printf("  Samples:  %d\n", s.Samples)
		}
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	defaults, err := loadDefaults()
	if err != nil {
		return err
	}
	return config.Write(os.Stdout, defaults)
}

func runTUI(cmd *cobra.Command, args []string) error {
	conv, err := newConverter()
	if err != nil {
		return err
	}
	return tui.Run(conv)
}

func runServe(cmd *cobra.Command, args []string) error {
	conv, err := newConverter()
	if err != nil {
		return err
	}
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, conv)
}
