package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reading_roundup/internal/domain"
	"reading_roundup/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export DATE",
	Short: "Write the roundup of DATE as markdown",
	Long: `Write the roundup of DATE (YYYY-MM-DD) as a markdown document with
front-matter. The document goes to stdout unless --out names a file or
directory. With --publish it is sent to the configured exchange instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("out", "o", "", "output file, or directory to write DATE.md into")
	exportCmd.Flags().Bool("publish", false, "publish to rabbitmq instead of writing")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	date, err := domain.ParseDate(args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", args[0], err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if publish, _ := cmd.Flags().GetBool("publish"); publish {
		return a.catalog.PublishRoundup(ctx, date)
	}

	doc, err := a.catalog.ComposeRoundupMarkdown(ctx, date)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err := cmd.OutOrStdout().Write(doc)
		return err
	}

	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, export.FileName(date))
	}
	if err := os.WriteFile(out, doc, 0o644); err != nil {
		return fmt.Errorf("write roundup: %w", err)
	}
	logger.Info("roundup exported", "date", args[0], "path", out)
	return nil
}
