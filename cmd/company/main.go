package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/config"
	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/models"
	"github.com/nomixtrade/marketsync/pkg/quotecache"
	"github.com/nomixtrade/marketsync/pkg/stockapi"
	"github.com/nomixtrade/marketsync/pkg/timewindow"
	"github.com/nomixtrade/marketsync/pkg/validation"
)

func main() {
	// Initialize logger
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	fs := flag.NewFlagSet("company", flag.ExitOnError)
	symbolFlag := fs.String("symbol", "", "ticker symbol to show (required)")
	windowFlag := fs.String("window", "ALL", "forecast display window: 1D, 7D, 30D or ALL")
	if err := config.ParseFlags(fs); err != nil {
		log.Fatal("parsing flags", zap.Error(err))
	}

	symbol := validation.SanitizeSymbol(*symbolFlag)
	if symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: company -symbol SYM [-window 1D|7D|30D|ALL]")
		os.Exit(2)
	}
	window, err := timewindow.Parse(*windowFlag)
	if err != nil {
		log.Fatal("invalid -window", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("loading configuration", zap.Error(err))
	}

	api := stockapi.New(cfg.BaseURL, cfg.RequestTimeout)

	// The company page is the one surface static enough to cache.
	var cache *quotecache.Client
	if cfg.RedisURL != "" {
		cache, err = quotecache.New(cfg.RedisURL)
		if err != nil {
			log.Warn("cache unavailable, reading straight from the backend", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}
	companies := quotecache.NewCompanies(api, cache)

	ctx := context.Background()

	details, err := companies.GetCompany(ctx, symbol)
	if errors.Is(err, stockapi.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "no listed company with symbol %s\n", symbol)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("loading company", zap.String("symbol", symbol), zap.Error(err))
	}

	series, err := companies.GetCompanyGraph(ctx, symbol)
	if err != nil && !errors.Is(err, stockapi.ErrNotFound) {
		log.Fatal("loading forecast series", zap.String("symbol", symbol), zap.Error(err))
	}

	render(details, timewindow.Slice(series, window), window)
}

func render(details models.CompanyDetails, series []models.GraphPoint, window timewindow.Window) {
	p := details.Profile
	fmt.Printf("%s (%s)", p.Name, p.Symbol)
	if p.Sector != "" {
		fmt.Printf(", %s", p.Sector)
	}
	fmt.Println()
	if !p.IsCompliant() {
		fmt.Printf("Warning: shariah status is %q\n", p.Status)
	}

	lm := details.LatestMarket
	fmt.Printf("Last %.2f (%+.2f, %+.2f%%)  open %.2f  high %.2f  low %.2f  volume %.0f\n",
		lm.Last, lm.PriceChange(), lm.PercentChange(), lm.Open, lm.High, lm.Low, lm.Volume)

	printBalanceSheet(p)

	if len(series) == 0 {
		fmt.Println("\nNo forecast data available.")
		return
	}
	fmt.Printf("\nForecast (%s, %d points)\n", window, len(series))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tLAST\tPREDICTED\tRANGE\t")
	for _, pt := range series {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f..%.2f\t\n",
			pt.Date, pt.Last, pt.PredClose, pt.ConfidenceLower, pt.ConfidenceUpper)
	}
	w.Flush()
}

func printBalanceSheet(p models.CompanyProfile) {
	rows := []struct{ label, value string }{
		{"Total assets", p.TotalAssets},
		{"Total liabilities", p.TotalLiabilities},
		{"Loss per share", p.LossPerShare},
		{"Volumetric growth", p.VolumetricGrowth},
		{"Market cap", p.MarketCap},
		{"Shares outstanding", p.SharesOutstanding},
		{"Free float", p.FreeFloat},
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t\n", r.label, r.value)
	}
	w.Flush()
}
