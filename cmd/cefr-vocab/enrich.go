package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cefr-vocab/internal/cache"
	"github.com/pdiddy/cefr-vocab/internal/dictionary"
	"github.com/pdiddy/cefr-vocab/internal/enrich"
	"github.com/pdiddy/cefr-vocab/internal/httputil"
	"github.com/pdiddy/cefr-vocab/internal/images"
	"github.com/pdiddy/cefr-vocab/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <input_file> <output_file>",
	Short: "Add dictionary definitions at each word's CEFR level",
	Long: `Enrich reads a CSV with the columns Word, Part of Speech and CEFR Level,
looks every word up in the online dictionary and writes each sense whose
level equals the word's level to a CSV with the columns word,
part_of_speech, cefr_level, definition, image.

Words are processed one at a time with a random pause after each. Rows are
written as they are found, so an interrupted run keeps its output so far.
Words whose entry cannot be found or fetched are logged and skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnrich,
}

func init() {
	f := enrichCmd.Flags()
	f.String("images-dir", types.DefaultImagesDir, "directory for downloaded thumbnails")
	f.Bool("download-images", false, "save sense thumbnails into --images-dir")
	f.Int("batch-size", types.DefaultBatchSize, "input rows read at a time")
	f.Duration("delay-min", types.DefaultDelayMin, "minimum pause after each word")
	f.Duration("delay-max", types.DefaultDelayMax, "maximum pause after each word")
	f.Duration("timeout", types.DefaultTimeout, "per-request timeout")
	f.String("search-url", types.DefaultSearchURL, "dictionary search endpoint")
	f.String("cache", "", "sqlite file caching fetched pages")
	f.String("pos-map", "", "YAML file extending the part-of-speech table")
	f.String("report", "", "write a YAML run summary to this file")

	for key, flag := range map[string]string{
		"enrich.images_dir":      "images-dir",
		"enrich.download_images": "download-images",
		"enrich.batch_size":      "batch-size",
		"enrich.delay_min":       "delay-min",
		"enrich.delay_max":       "delay-max",
		"enrich.timeout":         "timeout",
		"enrich.search_url":      "search-url",
		"enrich.cache_path":      "cache",
		"enrich.pos_map":         "pos-map",
		"enrich.report":          "report",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(enrichCmd)
}

// enrichConfig assembles the enrichment settings from flags, environment
// and config file.
func enrichConfig() types.EnrichmentConfig {
	cfg := types.EnrichmentConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("enrich.timeout"),
			UserAgent: viper.GetString("enrich.user_agent"),
			Retry: types.RetryConfig{
				MaxRetries:  viper.GetInt("enrich.retry.max_retries"),
				BaseDelay:   viper.GetDuration("enrich.retry.base_delay"),
				StatusCodes: viper.GetIntSlice("enrich.retry.status_codes"),
			},
		},
		SearchURL:      viper.GetString("enrich.search_url"),
		BatchSize:      viper.GetInt("enrich.batch_size"),
		DelayMin:       viper.GetDuration("enrich.delay_min"),
		DelayMax:       viper.GetDuration("enrich.delay_max"),
		ImagesDir:      viper.GetString("enrich.images_dir"),
		DownloadImages: viper.GetBool("enrich.download_images"),
		CachePath:      viper.GetString("enrich.cache_path"),
		POSMapPath:     viper.GetString("enrich.pos_map"),
		ReportPath:     viper.GetString("enrich.report"),
	}
	if viper.IsSet("enrich.headers") {
		cfg.Headers = viper.GetStringMapString("enrich.headers")
	}
	return cfg.WithDefaults()
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg := enrichConfig()

	posTable, err := enrich.LoadPOSTable(cfg.POSMapPath)
	if err != nil {
		return err
	}

	var sessionOpts []httputil.Option
	if cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath)
		if err != nil {
			return err
		}
		defer store.Close()
		sessionOpts = append(sessionOpts, httputil.WithCache(store))
	}
	session := httputil.NewSession(cfg.HTTPConfig, logger, sessionOpts...)

	opts := []enrich.Option{
		enrich.WithPOSTable(posTable),
		enrich.WithBatchSize(cfg.BatchSize),
		enrich.WithThrottle(enrich.NewRandomDelay(cfg.DelayMin, cfg.DelayMax, nil)),
		enrich.WithLogger(logger),
	}
	if cfg.DownloadImages {
		opts = append(opts, enrich.WithImages(images.New(session, cfg.ImagesDir, logger)))
	}
	driver := enrich.NewDriver(dictionary.NewResolver(session, cfg.SearchURL, logger), opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, runErr := enrich.EnrichFile(ctx, driver, args[0], args[1], os.Stdout)

	if cfg.ReportPath != "" {
		report := enrich.NewReport(args[0], args[1], started, result, runErr)
		if cfg.DownloadImages {
			report.ImagesDir = cfg.ImagesDir
		}
		report.CachePath = cfg.CachePath
		if err := enrich.WriteReport(cfg.ReportPath, report); err != nil {
			logger.Error("writing report failed", "path", cfg.ReportPath, "error", err)
		}
	}
	return runErr
}
