// TradeWallet — paper-trading wallet and trade executor for LLM agents.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/okanewa/tradewallet/internal/advisor"
	"github.com/okanewa/tradewallet/internal/api"
	"github.com/okanewa/tradewallet/internal/config"
	"github.com/okanewa/tradewallet/internal/executor"
	"github.com/okanewa/tradewallet/internal/pricing"
	"github.com/okanewa/tradewallet/internal/wallet"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradewallet",
	Short: "TradeWallet — paper-trading wallet and trade executor for LLM agents",
	Long: `TradeWallet keeps a simulated portfolio (cash + holdings), parses
free-form trade directives like "BUY 0.05 BTC", prices them through
Yahoo Finance with offline fallbacks, and executes them against the
wallet with strict balance validation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		setupLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(addCashCmd)
	rootCmd.AddCommand(addCryptoCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLogging installs the default slog handler per config.
func setupLogging(lc config.LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(lc.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// --- Wiring helpers ---

func newStore() *wallet.FileStore {
	return wallet.NewFileStore(afero.NewOsFs(), cfg.Wallet.File)
}

func newWallet() *wallet.Wallet {
	holdings := make(map[string]decimal.Decimal, len(cfg.Wallet.InitialHoldings))
	for sym, qty := range cfg.Wallet.InitialHoldings {
		holdings[sym] = decimal.NewFromFloat(qty)
	}
	return wallet.New(newStore(), &wallet.Options{
		InitialCash:     decimal.NewFromFloat(cfg.Wallet.InitialCash),
		InitialHoldings: holdings,
	})
}

func newOracle() *pricing.Oracle {
	var source pricing.Source
	if cfg.Pricing.Source == "yahoo" {
		source = pricing.NewYahooSource(&pricing.YahooOptions{
			CacheTTL:       time.Duration(cfg.Pricing.CacheTTL) * time.Second,
			RequestTimeout: time.Duration(cfg.Pricing.RequestTimeout) * time.Second,
		})
	}
	return pricing.NewOracle(source, &pricing.OracleOptions{
		FallbackPrices: cfg.Pricing.FallbackPrices,
		DefaultPrice:   cfg.Pricing.DefaultPrice,
	})
}

func newExecutor() *executor.Executor {
	return executor.New(newWallet(), newOracle(), nil)
}

// defaultDate returns today's date when the --date flag is empty.
func defaultDate(cmd *cobra.Command) string {
	d, _ := cmd.Flags().GetString("date")
	if d == "" {
		return time.Now().Format("2006-01-02")
	}
	return d
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TradeWallet %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the wallet state and its current valuation",
	RunE: func(cmd *cobra.Command, args []string) error {
		exec := newExecutor()

		valuation, err := exec.Valuate(cmd.Context(), defaultDate(cmd))
		if err != nil {
			return err
		}

		fmt.Println(exec.Wallet().Summary())
		fmt.Println(valuation)
		fmt.Printf("State file: %s\n", cfg.Wallet.File)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("date", "", "valuation date (YYYY-MM-DD, default today)")
}

// --- Reset Command ---

var resetCmd = &cobra.Command{
	Use:   "reset [cash]",
	Short: "Reset the wallet to the starter allocation",
	Long: `Reset the wallet to its initial state. With no argument the configured
initial cash is used; an optional argument overrides it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cash := decimal.NewFromFloat(cfg.Wallet.InitialCash)
		if len(args) == 1 {
			parsed, err := decimal.NewFromString(args[0])
			if err != nil || parsed.IsNegative() {
				return fmt.Errorf("invalid cash amount: %s", args[0])
			}
			cash = parsed
		}

		holdings := make(map[string]decimal.Decimal, len(cfg.Wallet.InitialHoldings))
		for sym, qty := range cfg.Wallet.InitialHoldings {
			holdings[sym] = decimal.NewFromFloat(qty)
		}

		w := newWallet()
		if err := w.Reset(cash, holdings); err != nil {
			return err
		}

		fmt.Printf("✅ Wallet reset. Cash: %s\n\n", utils.FormatUSD(cash))
		fmt.Println(w.Summary())
		return nil
	},
}

// --- Add Cash Command ---

var addCashCmd = &cobra.Command{
	Use:   "add-cash [amount]",
	Short: "Credit cash to the wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount: %s", args[0])
		}

		ok, msg := newWallet().AddCash(amount)
		if !ok {
			return errors.New(msg)
		}
		fmt.Printf("✅ %s\n", msg)
		return nil
	},
}

// --- Add Crypto Command ---

var addCryptoCmd = &cobra.Command{
	Use:   "add-crypto [symbol] [quantity]",
	Short: "Credit a holding to the wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity: %s", args[1])
		}

		ok, msg := newWallet().AddHolding(args[0], quantity)
		if !ok {
			return errors.New(msg)
		}
		fmt.Printf("✅ %s\n", msg)
		return nil
	},
}

// --- Simulate Command ---

var simulateCmd = &cobra.Command{
	Use:   "simulate [directive]",
	Short: "Preview a trade directive without executing it",
	Long: `Preview what a trade directive would do against the current wallet.

Examples:
  tradewallet simulate "BUY 0.05 BTC"
  tradewallet simulate "SELL 10 NVDA" --date 2024-05-10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(newExecutor().Simulate(cmd.Context(), args[0], defaultDate(cmd)))
		return nil
	},
}

func init() {
	simulateCmd.Flags().String("date", "", "pricing date (YYYY-MM-DD, default today)")
}

// --- Execute Command ---

var executeCmd = &cobra.Command{
	Use:   "execute [directive]",
	Short: "Execute a trade directive against the wallet",
	Long: `Parse a trade directive, price it, and execute it against the wallet.

Examples:
  tradewallet execute "BUY 0.05 BTC"
  tradewallet execute "SELL 0.5 ETH" --date 2024-05-10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec := newExecutor()

		ok, msg := exec.Execute(cmd.Context(), args[0], defaultDate(cmd))
		if !ok {
			return errors.New(msg)
		}

		fmt.Printf("✅ %s\n\n", msg)
		fmt.Println(exec.Wallet().Summary())
		return nil
	},
}

func init() {
	executeCmd.Flags().String("date", "", "pricing date (YYYY-MM-DD, default today)")
}

// --- Decide Command ---

var decideCmd = &cobra.Command{
	Use:   "decide [symbol]",
	Short: "Ask the LLM advisor for a trade directive on a symbol",
	Long: `Ask the configured OpenAI model for a BUY/SELL/HOLD directive on a
symbol, grounded in the wallet state and recent headlines. With
--execute the directive is applied to the wallet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec := newExecutor()

		news := advisor.NewNewsFetcher(&advisor.NewsOptions{
			Feeds:        cfg.News.Feeds,
			MaxHeadlines: cfg.News.MaxHeadlines,
		})
		adv, err := advisor.New(cfg.LLM, exec.Wallet(), news, nil)
		if err != nil {
			return err
		}

		asOf := defaultDate(cmd)
		advice, err := adv.Decide(cmd.Context(), args[0], asOf)
		if err != nil {
			return err
		}

		fmt.Printf("🎯 Advisor decision for %s:\n\n%s\n", advice.Symbol, advice.RawText)

		run, _ := cmd.Flags().GetBool("execute")
		if !run {
			fmt.Printf("\n%s\n", exec.Simulate(cmd.Context(), advice.RawText, asOf))
			return nil
		}

		ok, msg := exec.Execute(cmd.Context(), advice.RawText, asOf)
		if !ok {
			return errors.New(msg)
		}
		fmt.Printf("\n✅ %s\n\n%s", msg, exec.Wallet().Summary())
		return nil
	},
}

func init() {
	decideCmd.Flags().String("date", "", "analysis date (YYYY-MM-DD, default today)")
	decideCmd.Flags().Bool("execute", false, "execute the advisor's directive")
}

// --- Backup Command ---

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Copy the persisted wallet document to a backup file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst := cfg.Wallet.File + ".backup"
		if len(args) == 1 {
			dst = args[0]
		}

		store := newStore()
		if err := store.Backup(dst); err != nil {
			if errors.Is(err, wallet.ErrNoState) {
				return fmt.Errorf("nothing to back up: %s does not exist", store.Path())
			}
			return err
		}
		fmt.Printf("✅ Wallet backed up to %s\n", dst)
		return nil
	},
}

// --- Restore Command ---

var restoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Replace the wallet with a previously backed up document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := newStore().Restore(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✅ Wallet restored from %s\n", args[0])
		fmt.Printf("   Cash: %s, holdings: %d\n", utils.FormatUSD(state.CashUSD), len(state.Holdings))
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting TradeWallet API server on %s\n", addr)

		srv := api.NewServer(cfg, newExecutor(), nil)
		return srv.ListenAndServe(addr)
	},
}
