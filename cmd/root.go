package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lukman83/shopgenie/config"
	"github.com/lukman83/shopgenie/internal/aliexpress"
	"github.com/lukman83/shopgenie/internal/amazon"
	"github.com/lukman83/shopgenie/internal/assistant"
	"github.com/lukman83/shopgenie/internal/ebay"
	"github.com/lukman83/shopgenie/internal/headless"
	"github.com/lukman83/shopgenie/internal/httputil"
	"github.com/lukman83/shopgenie/internal/obs"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/ranking"
	"github.com/lukman83/shopgenie/internal/scrape"
	"github.com/lukman83/shopgenie/internal/stealth"
	"github.com/lukman83/shopgenie/internal/status"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shopgenie",
	Short: "ShopGenie - marketplace product search for chat",
	Long: "ShopGenie answers messages like \"bluetooth speaker, amazon\" with the best " +
		"matching products from Amazon, eBay and AliExpress.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().String("delay-profile", "", "Delay profile: off, cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", false, "Respect robots.txt rules")
	rootCmd.PersistentFlags().String("proxy-mode", "", "Proxy mode: direct, custom")
	rootCmd.PersistentFlags().StringSlice("proxies", nil, "Proxy URLs for custom mode")
	rootCmd.PersistentFlags().Bool("aliexpress", false, "Enable the AliExpress scraper")
	rootCmd.PersistentFlags().Bool("headless", false, "Retry throttled pages in a headless browser")
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Override from flags
	flags := rootCmd.PersistentFlags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if v, _ := flags.GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobots, _ = flags.GetBool("respect-robots")
	}
	if v, _ := flags.GetString("proxy-mode"); v != "" {
		cfg.ProxyMode = v
	}
	if v, _ := flags.GetStringSlice("proxies"); len(v) > 0 {
		cfg.Proxies = v
	}
	if flags.Changed("aliexpress") {
		cfg.EnableAliExpress, _ = flags.GetBool("aliexpress")
	}
	if flags.Changed("headless") {
		cfg.HeadlessFallback, _ = flags.GetBool("headless")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Logs go to stderr so JSON output on stdout stays clean.
	logger, err = obs.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
}

// app is everything a command needs, built once from cfg.
type app struct {
	registry *platform.Registry
	tracker  *status.Tracker
	service  *assistant.Service
}

// newApp wires scrapers, registry, status tracker and the chat pipeline.
// opts carries per-command ranking overrides.
func newApp(opts assistant.Options) (*app, error) {
	client, err := buildHTTPClient()
	if err != nil {
		return nil, err
	}
	registry, err := buildRegistry(client)
	if err != nil {
		return nil, err
	}
	tracker := status.NewTracker(
		status.WithWindow(cfg.StatusWindow),
		status.WithDisplayNames(registry.DisplayName),
		status.WithAlternatives(func() []string {
			var ids []string
			for _, id := range registry.List() {
				ids = append(ids, string(id))
			}
			return ids
		}),
		status.WithLogger(logger),
	)

	if opts.MaxResults == 0 {
		opts.MaxResults = cfg.MaxSearchResults
	}
	if opts.TopResults == 0 {
		opts.TopResults = cfg.TopResultsCount
	}
	if opts.Method == "" {
		opts.Method = ranking.Method(cfg.RankMethod)
	}

	return &app{
		registry: registry,
		tracker:  tracker,
		service:  assistant.NewService(registry, tracker, opts, logger),
	}, nil
}

// buildHTTPClient creates the stealth-wrapped HTTP client from config.
func buildHTTPClient() (*http.Client, error) {
	profile, err := stealth.ParseDelayProfile(cfg.DelayProfile)
	if err != nil {
		return nil, err
	}

	baseTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	var proxyRotator *stealth.ProxyRotator
	if cfg.ProxyMode == "custom" {
		providers, err := stealth.ParseProxyList(cfg.Proxies)
		if err != nil {
			return nil, err
		}
		proxyRotator = stealth.NewProxyRotator(providers)
	}

	var robots *stealth.RobotsChecker
	if cfg.RespectRobots {
		robots = stealth.NewRobotsChecker(&http.Client{Timeout: cfg.RequestTimeout})
	}

	transport := &stealth.Transport{
		Base:        baseTransport,
		Fingerprint: stealth.NewFingerprintPool(cfg.UserAgent),
		Robots:      robots,
		RateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		Delay:       stealth.NewHumanDelay(profile),
		Proxy:       proxyRotator,
		Logger:      logger.With("component", "stealth"),
	}
	return httputil.NewHTTPClient(transport, cfg.RequestTimeout), nil
}

// buildRegistry registers all enabled platform scrapers.
func buildRegistry(client *http.Client) (*platform.Registry, error) {
	registry := platform.NewRegistry(
		platform.WithLogger(logger),
		platform.WithMaxConcurrent(cfg.MaxConcurrent),
	)

	ua := cfg.UserAgent
	if ua == "" {
		ua = httputil.DefaultUserAgent
	}
	var scrapeOpts []scrape.Option
	scrapeOpts = append(scrapeOpts, scrape.WithLogger(logger))
	if cfg.HeadlessFallback {
		scrapeOpts = append(scrapeOpts, scrape.WithFallback(headless.NewFetcher(
			headless.WithBrowserBin(cfg.BrowserBin),
			headless.WithUserAgent(ua),
			headless.WithLogger(logger),
		)))
	}

	newScraper := func(site scrape.Site, backoff httputil.Backoff) *scrape.Scraper {
		fetcher := httputil.NewFetcher(client,
			httputil.WithUserAgent(ua),
			httputil.WithRetryPolicy(httputil.RetryPolicy{MaxAttempts: cfg.MaxRetryAttempts, Backoff: backoff}),
			httputil.WithLogger(logger.With("platform", site.Platform)),
		)
		return scrape.New(site, fetcher, scrapeOpts...)
	}

	ebaySite := ebay.Site()
	ebaySite.PreRequestDelay = cfg.EbayPreRequestDelay

	entries := []platform.Entry{
		amazon.Entry(newScraper(amazon.Site(), amazon.Backoff(cfg.DelayBetweenRequests))),
		ebay.Entry(newScraper(ebaySite, ebay.Backoff())),
	}
	if cfg.EnableAliExpress {
		site := aliexpress.Site(cfg.DelayBetweenRequests)
		entries = append(entries, aliexpress.Entry(newScraper(site, aliexpress.Backoff(cfg.DelayBetweenRequests))))
	}

	for _, e := range entries {
		if err := registry.Register(e); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// rankingFlags registers the ranking and filter flags shared by commands
// that print products.
func rankingFlags(cmd *cobra.Command) {
	cmd.Flags().String("rank", "", "Ranking method: score, price, rating, sales")
	cmd.Flags().Int("top", 0, "Number of products to show")
	cmd.Flags().Float64("min-rating", 0, "Drop products rated below this")
	cmd.Flags().Float64("max-price", 0, "Drop products priced above this")
	cmd.Flags().Int("min-sales", 0, "Drop products with fewer sales or reviews")
}

// optionsFromFlags reads the flags registered by rankingFlags.
func optionsFromFlags(cmd *cobra.Command) (assistant.Options, error) {
	var opts assistant.Options
	if v, _ := cmd.Flags().GetString("rank"); v != "" {
		m, ok := ranking.ParseMethod(v)
		if !ok {
			return opts, fmt.Errorf("unknown ranking method %q", v)
		}
		opts.Method = m
	}
	opts.TopResults, _ = cmd.Flags().GetInt("top")
	opts.Filter.MinRating, _ = cmd.Flags().GetFloat64("min-rating")
	opts.Filter.MaxPrice, _ = cmd.Flags().GetFloat64("max-price")
	opts.Filter.MinSales, _ = cmd.Flags().GetInt("min-sales")
	return opts, nil
}
