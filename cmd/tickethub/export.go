package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/madmatrix/tickethub/internal/app"
)

var (
	exportFormat   string
	exportOut      string
	exportGreeting string
	exportGreet    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <email>",
	Short: "Render an attendee's permit to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "png", "Output format (png, jpeg, pdf)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory")
	exportCmd.Flags().StringVar(&exportGreeting, "greeting", "", "Greeting line printed on the permit")
	exportCmd.Flags().BoolVar(&exportGreet, "greet", false, "Generate the greeting line")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	greetingText := exportGreeting
	if greetingText == "" && exportGreet {
		res, err := rt.tickets.Lookup(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("lookup %s: %w", args[0], err)
		}
		greetingText = rt.tickets.Greeting(cmd.Context(), res.Attendee.Name).Text
	}

	art, err := rt.tickets.Export(cmd.Context(), app.ExportInput{
		Email:    args[0],
		Format:   exportFormat,
		Greeting: greetingText,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", args[0], err)
	}

	if err := os.MkdirAll(exportOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(exportOut, art.Filename)
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d, %d bytes)\n", path, art.Width, art.Height, len(art.Data))
	return nil
}
