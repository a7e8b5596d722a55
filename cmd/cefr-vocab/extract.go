package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cefr-vocab/internal/extract"
	"github.com/pdiddy/cefr-vocab/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <input.pdf> <output.csv>",
	Short: "Extract word, part-of-speech and CEFR level triples from a word list",
	Long: `Extract scans every page of the input document for entries of the form
"<word>[, variant] <part of speech> <level>" with a level from A1 to C2 and
writes them to a CSV with the columns Word, Part of Speech, CEFR Level.

By default duplicate triples are removed and rows are sorted by word,
ignoring case. With --sorted every match is kept and rows are ordered by
level, then word.

The native backend reads PDF text directly. The container backend runs
pdftotext through docker or podman. The text backend reads a plain text
file whose pages are separated by form feeds.`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Bool("sorted", false, "keep duplicates and sort by level, then word")
	extractCmd.Flags().String("backend", string(types.BackendNative), "text extraction backend: native, container, text")
	extractCmd.Flags().String("container-image", types.DefaultContainerImage, "pdftotext image for the container backend")

	viper.BindPFlag("extract.sorted", extractCmd.Flags().Lookup("sorted"))
	viper.BindPFlag("extract.backend", extractCmd.Flags().Lookup("backend"))
	viper.BindPFlag("extract.container_image", extractCmd.Flags().Lookup("container-image"))

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := types.ExtractionConfig{
		Backend:        types.ExtractionBackend(viper.GetString("extract.backend")),
		Order:          types.OrderDedup,
		ContainerImage: viper.GetString("extract.container_image"),
	}
	if viper.GetBool("extract.sorted") {
		cfg.Order = types.OrderByLevel
	}

	src, closeSrc, err := extract.Open(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}
	defer closeSrc()

	logger.Debug("extracting", "input", args[0], "backend", cfg.Backend, "order", cfg.Order)
	res, err := extract.ExtractToFile(src, cfg.Order, args[1], os.Stdout)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}
	if res.Matches == 0 {
		logger.Warn("no word entries found", "input", args[0], "pages", res.Pages)
	}
	return nil
}
