package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/config"
	"github.com/nomixtrade/marketsync/pkg/favorites"
	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/marketview"
	"github.com/nomixtrade/marketsync/pkg/metrics"
	"github.com/nomixtrade/marketsync/pkg/models"
	"github.com/nomixtrade/marketsync/pkg/session"
	"github.com/nomixtrade/marketsync/pkg/stockapi"
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

	fs := flag.NewFlagSet("market", flag.ExitOnError)
	dateFlag := fs.String("date", time.Now().Format(models.TradeDateLayout), "trading date (YYYY-MM-DD)")
	horizonFlag := fs.Int("horizon", 0, "prediction horizon in days: 1, 7 or 30 (default from config)")
	toggleFlag := fs.String("toggle", "", "toggle this symbol in the favorites list, then show the dashboard")
	emailFlag := fs.String("email", "", "log in with this email before loading the dashboard")
	passwordFlag := fs.String("password", "", "password for -email")
	logoutFlag := fs.Bool("logout", false, "discard the stored session")
	signupFlag := fs.Bool("signup", false, "register a new account from -email, -password, -first, -last and -phone, then log in")
	firstFlag := fs.String("first", "", "first name for -signup")
	lastFlag := fs.String("last", "", "last name for -signup")
	phoneFlag := fs.String("phone", "", "phone number for -signup")
	if err := config.ParseFlags(fs); err != nil {
		log.Fatal("parsing flags", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("loading configuration", zap.Error(err))
	}

	targetDate, err := time.Parse(models.TradeDateLayout, *dateFlag)
	if err != nil {
		log.Fatal("invalid -date", zap.String("date", *dateFlag), zap.Error(err))
	}
	horizon, err := marketview.ParseHorizon(pick(*horizonFlag, cfg.DefaultHorizon))
	if err != nil {
		log.Fatal("invalid -horizon", zap.Error(err))
	}

	// Restore the persisted session; a corrupt token just means guest mode.
	sess := session.New(cfg.SessionFile, cfg.SessionKey)
	if err := sess.Restore(); err != nil {
		log.Warn("could not restore session, continuing as guest", zap.Error(err))
	}

	api := stockapi.New(cfg.BaseURL, cfg.RequestTimeout)
	ctx := context.Background()

	if *logoutFlag {
		if err := sess.Logout(); err != nil {
			log.Fatal("logout failed", zap.Error(err))
		}
		fmt.Println("Logged out.")
	}
	if *signupFlag {
		req := models.SignupRequest{
			FirstName: validation.SanitizeString(*firstFlag),
			LastName:  validation.SanitizeString(*lastFlag),
			Email:     *emailFlag,
			Phone:     validation.SanitizeString(*phoneFlag),
			Password:  *passwordFlag,
		}
		if err := api.Signup(ctx, req); err != nil {
			log.Fatal("signup failed", zap.Error(err))
		}
		fmt.Println("Account created.")
	}
	if *emailFlag != "" {
		result, err := api.Login(ctx, *emailFlag, *passwordFlag)
		if err != nil {
			log.Fatal("login failed", zap.Error(err))
		}
		if err := sess.Login(result.UserID, result.DisplayName); err != nil {
			log.Fatal("storing session", zap.Error(err))
		}
		fmt.Printf("Logged in as %s.\n", result.DisplayName)
	}

	// Expose metrics when configured, for long-running dashboard sessions.
	if cfg.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.MetricsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	favs := favorites.New(api, sess)
	model := marketview.New(api, favs)

	view := model.Refresh(ctx, targetDate)

	if *toggleFlag != "" {
		symbol := validation.SanitizeSymbol(*toggleFlag)
		nowFavorite, err := favs.Toggle(ctx, symbol)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "toggle %s: %v\n", symbol, err)
		case nowFavorite:
			fmt.Printf("Added %s to favorites.\n", symbol)
		default:
			fmt.Printf("Removed %s from favorites.\n", symbol)
		}
	}

	render(view, model, horizon, sess.Current())
}

// pick prefers the flag value when one was given.
func pick(flagValue, configValue int) int {
	if flagValue != 0 {
		return flagValue
	}
	return configValue
}

func render(view marketview.View, model *marketview.Model, h marketview.Horizon, cur session.Session) {
	fmt.Printf("Market dashboard for %s", view.Date.Format(models.TradeDateLayout))
	if cur.LoggedIn() {
		fmt.Printf(" (signed in as %s)", cur.DisplayName)
	}
	fmt.Println()

	if view.Index != nil {
		fmt.Printf("KSE-100: %.2f (open %.2f, high %.2f, low %.2f, predicted close %.2f)\n",
			view.Index.Current, view.Index.Open, view.Index.High, view.Index.Low, view.Index.PredClose)
	} else {
		fmt.Println("KSE-100: no index data for this date")
	}

	switch view.State {
	case marketview.StocksFailed:
		fmt.Fprintf(os.Stderr, "stock data unavailable: %v\n", view.Err)
		os.Exit(1)
	case marketview.StocksEmpty:
		fmt.Println("No stock data for this date.")
		return
	}

	fmt.Printf("\n%s\n", h.Label())
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tSYMBOL\tNAME\tLAST\tCHANGE\tFORECAST\t")
	for _, row := range model.Rows(h) {
		mark := " "
		if row.Favorite {
			mark = "*"
		}
		trend := "v"
		if row.Bullish {
			trend = "^"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%+.2f%%\t%.2f %s\t\n",
			mark, row.Symbol, row.Name, row.Last, row.PercentChange(), row.Prediction, trend)
	}
	w.Flush()

	ranked := marketview.Rank(view.Stocks)
	fmt.Println("\nTop gainers:")
	for _, s := range ranked.Gainers {
		fmt.Printf("  %-10s %+.2f%%\n", s.Symbol, s.PercentChange())
	}
	fmt.Println("Top losers:")
	for _, s := range ranked.Losers {
		fmt.Printf("  %-10s %+.2f%%\n", s.Symbol, s.PercentChange())
	}
}
