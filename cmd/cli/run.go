package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/crawl"
	"github.com/zilazol/price-crawler/internal/credentials"
	"github.com/zilazol/price-crawler/internal/database"
	"github.com/zilazol/price-crawler/internal/fetch"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

var (
	runDryRun      bool
	runHeaded      bool
	runConcurrency int64
	runDeadline    time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <selector>",
	Short: "Crawl retailers and persist price snapshots",
	Long: `Run a full crawl (discover, download, extract, persist) over the retailer
catalog. The selector picks which retailers participate:

  all                every active retailer
  public-only        active retailers without a portal login
  credentialed-only  active retailers behind a portal login
  <slug>             a single retailer by catalog slug

With --dry-run the crawl downloads and parses files but skips the database.`,
	Example: `  price-crawler run all
  price-crawler run public-only --dry-run
  price-crawler run rami-levi --headed`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Download and parse without writing to the database")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "Run the browser with a visible window")
	runCmd.Flags().Int64Var(&runConcurrency, "concurrency", 0, "Parallel retailer workers (default from config)")
	runCmd.Flags().DurationVar(&runDeadline, "deadline", 0, "Run deadline (default from config)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	var list []types.Retailer
	switch selector := args[0]; selector {
	case "all":
		list = catalog.Active()
	case "public-only":
		list = catalog.Filter("public")
	case "credentialed-only":
		list = catalog.Filter("auth")
	default:
		retailer, ok := catalog.BySlug(selector)
		if !ok {
			return fmt.Errorf("unknown retailer: %s", selector)
		}
		list = []types.Retailer{retailer}
	}
	if len(list) == 0 {
		return fmt.Errorf("selector matched no retailers")
	}

	creds, err := credentials.New(catalog.PublishedPricesTenants())
	if err != nil {
		return fmt.Errorf("failed to load portal credentials: %w", err)
	}

	basePath := "./data/archives"
	if cfg != nil && cfg.Storage.BasePath != "" {
		basePath = cfg.Storage.BasePath
	}
	store, err := storage.NewLocalStorage(basePath)
	if err != nil {
		return fmt.Errorf("failed to open archive storage: %w", err)
	}

	headless := true
	throttleRPS := 2.0
	concurrency := int64(crawl.DefaultConcurrency)
	deadline := crawl.DefaultDeadline
	if cfg != nil {
		headless = cfg.Crawler.Headless
		if cfg.Crawler.ThrottleRPS > 0 {
			throttleRPS = cfg.Crawler.ThrottleRPS
		}
		if cfg.Crawler.Concurrency > 0 {
			concurrency = cfg.Crawler.Concurrency
		}
		if cfg.Crawler.RunDeadline > 0 {
			deadline = cfg.Crawler.RunDeadline
		}
	}
	if runHeaded {
		headless = false
	}
	if runConcurrency > 0 {
		concurrency = runConcurrency
	}
	if runDeadline > 0 {
		deadline = runDeadline
	}

	var gateway database.Gateway
	if !runDryRun {
		gateway = database.NewPG()
	} else {
		logger.Info().Msg("Dry run: database writes disabled")
	}

	controller := crawl.NewController(&crawl.Deps{
		Launch: func() (browser.Browser, error) {
			opts := browser.DefaultLaunchOptions()
			opts.Headless = headless
			return browser.Launch(opts)
		},
		Gateway:     gateway,
		Store:       store,
		Credentials: creds,
		Throttle:    fetch.NewThrottle(throttleRPS, 1),
		Log:         *logger,
	},
		crawl.WithConcurrency(concurrency),
		crawl.WithDeadline(deadline),
	)

	manifest, err := controller.Run(ctx, list, "cli")
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	displayRunResults(manifest)
	return runError(manifest)
}

// runError decides the exit status for a finished run. A run that hit its
// deadline still exits clean: the manifest records the partial results and
// the next scheduled run picks up where this one stopped.
func runError(manifest *types.RunManifest) error {
	if manifest.TimedOut {
		return nil
	}
	if manifest.Failed > 0 {
		return fmt.Errorf("%d of %d retailers failed", manifest.Failed, manifest.Retailers)
	}
	return nil
}

func displayRunResults(manifest *types.RunManifest) {
	fmt.Printf("\nRun %s\n", manifest.RunID)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RETAILER\tADAPTER\tLINKS\tFILES\tDUPES\tERRORS\tREASONS")
	fmt.Fprintln(w, "--------\t-------\t-----\t-----\t-----\t------\t-------")

	for _, r := range manifest.Results {
		reasons := "-"
		if len(r.Reasons) > 0 {
			reasons = r.Reasons[0]
			if len(r.Reasons) > 1 {
				reasons = fmt.Sprintf("%s (+%d)", reasons, len(r.Reasons)-1)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.RetailerID, r.Adapter, r.LinksFound, r.FilesDownloaded, r.SkippedDupes, len(r.Errors), reasons)
	}
	w.Flush()

	status := "SUCCESS"
	if manifest.TimedOut {
		status = "TIMED OUT"
	} else if manifest.Failed > 0 {
		status = "PARTIAL"
	}
	fmt.Printf("\n%s: %d succeeded, %d failed of %d retailers\n",
		status, manifest.Succeeded, manifest.Failed, manifest.Retailers)
}
