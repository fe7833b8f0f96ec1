package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	debug      bool
	headless   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "robocorder",
	Short: "Order robots from RobotSpareBin Industries",
	Long: `robocorder fills the RobotSpareBin robot order form once per row of the published
orders file, saves each receipt as a PDF with a screenshot of the robot appended,
and zips the merged receipts into output/receipts.zip.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := InitLocale(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, using en_US\n", err)
		}

		config := zap.NewProductionConfig()
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runOrderRobots,
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Zip the merged receipts already in the output directory",
	RunE:  runArchive,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Download the orders file and list the orders without opening a browser",
	RunE:  runListOrders,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr("ROBOCORDER_CONFIG", "config.yaml"), "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable detailed debug logging")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
	rootCmd.AddCommand(archiveCmd, ordersCmd)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, T("run_failed", err))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		config.DebugMode = true
	}
	if cmd.Flags().Changed("headless") {
		config.Headless = headless
	}
	return config, nil
}

func printBanner(config *Config) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║ %-57s ║\n", T("banner_title"))
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Order form: %s\n", config.OrderFormURL)
	fmt.Printf("Output:     %s\n", config.OutputDir)
	if config.DebugMode {
		fmt.Println("🔍 DEBUG MODE - Detailed logging enabled")
	}
	fmt.Println()
}

func runOrderRobots(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	printBanner(config)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runLog := logger.With(zap.String("run_id", uuid.NewString()))

	automation := NewAutomation(config, runLog)
	defer automation.Close()

	if err := automation.Start(ctx, cancel); err != nil {
		return fmt.Errorf("failed to setup browser: %w", err)
	}

	robot := NewRobot(config, automation, runLog)
	result, err := robot.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf(T("run_complete")+"\n", len(result.Orders))
	runLog.Info("run complete",
		zap.Int("orders", len(result.Orders)),
		zap.String("archive", result.Archive))

	if config.KeepBrowserOpen {
		fmt.Println(T("keeping_browser_open"))
		select {
		case <-ctx.Done():
		case <-time.After(30 * time.Second):
		}
	}
	return nil
}

func runArchive(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names, err := ArchiveReceipts(config.OutputDir, config.ArchiveName)
	if err != nil {
		return err
	}
	logger.Info("archive written", zap.String("path", config.ArchivePath()), zap.Strings("receipts", names))
	fmt.Printf(T("archive_created")+"\n", len(names), config.ArchivePath())
	return nil
}

func runListOrders(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := FetchOrders(cmd.Context(), nil, config.OrdersURL, config.OrdersFile); err != nil {
		return err
	}
	orders, err := ReadAllOrders(config.OrdersFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d orders in %s\n", len(orders), filepath.Clean(config.OrdersFile))
	for _, o := range orders {
		head, headErr := HeadLabel(o.Head)
		body, bodyErr := BodyLabel(o.Body)
		if headErr != nil || bodyErr != nil {
			fmt.Fprintf(out, "  %-6s ⚠️  head=%d body=%d outside the catalog\n", o.Number, o.Head, o.Body)
			continue
		}
		fmt.Fprintf(out, "  %-6s %-22s %-22s legs=%-3s %s\n", o.Number, head, body, o.Legs, o.Address)
	}
	return nil
}
