package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"drps-backend/lib/configutil"
	"drps-backend/lib/restyutil"
	"drps-backend/lib/scrapers/drps"
	"drps-backend/lib/serviceutil"
	"drps-backend/lib/telemetry"
	"drps-backend/services/crawler"

	"github.com/dgraph-io/badger/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	CurrentBase  string `json:"current_base"`
	PreviousBase string `json:"previous_base"`
	OutputDir    string `json:"output_dir"`
	DelayMs      int    `json:"delay_ms"`
}

func defaultConfig() Config {
	return Config{
		CurrentBase:  "http://www.drps.ed.ac.uk/24-25",
		PreviousBase: "http://www.drps.ed.ac.uk/23-24",
		OutputDir:    "scraped_data",
		DelayMs:      500,
	}
}

var debug *bool
var fallback *bool
var verbose *bool
var cachePath *string

func init() {
	debug = crawlCmd.Flags().Bool("debug", false, "Save every fetched page verbatim for offline inspection.")
	fallback = crawlCmd.Flags().Bool("fallback", true, "Retry failed current-edition fetches against the previous edition.")
	verbose = crawlCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging.")
	cachePath = crawlCmd.Flags().String("cache", "", "Path to a page cache database, enables offline replay.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the full catalogue crawl: colleges, schools, subjects, courses.",
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		telemetry.InstrumentPerfStats(cmd.Context())

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if os.IsNotExist(err) {
			cfg = defaultConfig()
		} else if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		opts := drps.ClientOptions{
			CurrentBase:           cfg.CurrentBase,
			PreviousBase:          cfg.PreviousBase,
			EnableEditionFallback: *fallback,
		}

		if *debug {
			capture, err := restyutil.NewFilesystemOutput(filepath.Join(cfg.OutputDir, "debug"))
			if err != nil {
				serviceutil.Fatal("failed to create debug capture directory", err)
			}
			opts.Capture = &capture
			slog.Info("debug capture enabled", "dir", filepath.Join(cfg.OutputDir, "debug"))
		}

		if *cachePath != "" {
			db, err := badger.Open(badger.DefaultOptions(*cachePath))
			if err != nil {
				serviceutil.Fatal("failed to open page cache", err)
			}
			defer db.Close()
			opts.Cache = db
		}

		client, err := drps.NewClient(opts)
		if err != nil {
			serviceutil.Fatal("failed to initialize catalogue client", err)
		}
		store, err := crawler.NewStore(cfg.OutputDir)
		if err != nil {
			serviceutil.Fatal("failed to create output directories", err)
		}

		c := crawler.New(client, store, crawler.Options{
			Delay: time.Duration(cfg.DelayMs) * time.Millisecond,
		})

		t1 := time.Now()
		summary, err := c.Run(cmd.Context())
		if err != nil {
			serviceutil.Fatal("crawl failed", err)
		}
		t2 := time.Now()

		slog.Info("crawl completed", "seconds", t2.Sub(t1).Seconds())

		out := table.NewWriter()
		out.SetOutputMirror(os.Stdout)
		out.AppendHeader(table.Row{"colleges", "schools", "courses"})
		out.AppendRow(table.Row{summary.Colleges, summary.Schools, summary.Courses})
		out.Render()
	},
}
