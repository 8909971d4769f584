package main

import (
	"context"
	"flag"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"dohlists/internal/builder"
	"dohlists/internal/config"
	"dohlists/internal/exclusions"
	"dohlists/internal/resolver"
	"dohlists/internal/scraper"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}
}

func main() {
	outputDir := flag.String("output-dir", config.GetEnv("OUTPUT_DIR", "lists/doh"), "Directory for the generated list files")
	noResolve := flag.Bool("no-resolve", false, "Skip DNS resolution (FQDN lists only)")
	dnsServers := flag.String("dns-server", config.GetEnv("DNS_SERVERS", ""), "DNS servers for lookups, comma-separated (default: system resolver)")
	exclValues := flag.String("exclusions", "", "Exclusion entries (FQDNs/IPs), comma-separated")
	exclFile := flag.String("exclusions-file", "", "File with exclusions, one per line")
	noClean := flag.Bool("no-clean", false, "Keep prior output files before writing")
	changeRatio := flag.String("warn-change-ratio", config.GetEnv("WARN_CHANGE_RATIO", "0.2"), "Abort if list sizes change by more than this ratio")
	skipRatio := flag.Bool("skip-ratio-check", false, "Skip the change-ratio check (allow any change)")
	filterBase := flag.Bool("filter-base-domains", false, "Exclude base domains from the filtered lists")
	scraperCmd := flag.String("scraper-cmd", config.GetEnv("SCRAPER_CMD", ""), "External scraper command printing one endpoint URL per line (split on whitespace, no quoting)")
	sourceURL := flag.String("source-url", config.GetEnv("SOURCE_URL", scraper.DefaultSourceURL), "Page to scrape for DoH endpoint URLs")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	tolerance, err := strconv.ParseFloat(*changeRatio, 64)
	if err != nil || tolerance < 0 {
		log.Fatal("Invalid -warn-change-ratio value", "value", *changeRatio)
	}

	cfg := config.Config{
		OutputDir:         *outputDir,
		ResolveIPs:        !*noResolve,
		DNSServers:        config.SplitList(*dnsServers),
		Exclusions:        config.SplitList(*exclValues),
		ExclusionsFile:    *exclFile,
		CleanOutput:       !*noClean,
		WarnChangeRatio:   tolerance,
		SkipRatioCheck:    *skipRatio,
		FilterBaseDomains: *filterBase,
		ScraperCommand:    *scraperCmd,
		SourceURL:         *sourceURL,
	}

	excl, err := exclusions.Load(cfg.Exclusions, cfg.ExclusionsFile)
	if err != nil {
		log.Fatal("Loading exclusions failed", "err", err)
	}
	if excl.Len() > 0 {
		log.Info("Loaded exclusions", "count", excl.Len())
	}

	var producer scraper.Producer
	if cfg.ScraperCommand != "" {
		parts := strings.Fields(cfg.ScraperCommand)
		producer = &scraper.CommandProducer{Command: parts[0], Args: parts[1:]}
	} else {
		producer = &scraper.WikiProducer{URL: cfg.SourceURL}
	}

	engine := resolver.NewEngine(resolver.Config{Servers: cfg.DNSServers})

	log.Info("Starting DoH list build", "output_dir", cfg.OutputDir, "resolve", cfg.ResolveIPs)
	if err := builder.New(cfg, producer, engine, excl).Run(context.Background()); err != nil {
		log.Fatal("Run failed", "err", err)
	}
	log.Info("Done")
}
