package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/intern-ship-it/new-chinese-sub016/internal/api"
	"github.com/intern-ship-it/new-chinese-sub016/internal/config"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/journal"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/preview"
	"github.com/intern-ship-it/new-chinese-sub016/internal/receipt"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/romwizard"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
	"github.com/spf13/cobra"
)

var romFlags struct {
	apiURL   string
	logLevel string
	limit    int
}

var romCmd = &cobra.Command{
	Use:   "rom",
	Short: "Create, edit and review ROM bookings",
	Long: `Create, edit and review ROM (registration of marriage) bookings.

Configuration is loaded from multiple sources with the following precedence:
  CLI flags > Environment variables > Project config > Global config > Defaults

Project config: ./templectl.yml
Global config: ~/.config/templectl/templectl.yml`,
}

var romCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open the booking wizard for a new booking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, wizard.ModeCreate, "")
	},
}

var romEditCmd = &cobra.Command{
	Use:   "edit <booking-id>",
	Short: "Open the booking wizard on an existing booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, wizard.ModeEdit, domain.ID(strings.TrimSpace(args[0])))
	},
}

var romListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent bookings",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var romHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent booking wizard activity",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	romCmd.PersistentFlags().StringVar(&romFlags.apiURL, "api-url", "", "Backend API base URL (overrides config)")
	romCmd.PersistentFlags().StringVar(&romFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	romHistoryCmd.Flags().IntVarP(&romFlags.limit, "limit", "n", journal.DefaultLimit, "Number of entries to show")

	romCmd.AddCommand(romCreateCmd)
	romCmd.AddCommand(romEditCmd)
	romCmd.AddCommand(romListCmd)
	romCmd.AddCommand(romHistoryCmd)
}

// loadConfig loads, overrides from flags, validates and applies logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = romFlags.apiURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = romFlags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		if cfg.APIURL == "" && !config.Exists() {
			return nil, fmt.Errorf("no configuration found\n\nRun 'templectl setup' to create a config file, or set %s", config.EnvName("api_url"))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) (*api.Client, error) {
	client, err := api.New(api.Options{
		BaseURL:           cfg.APIURL,
		Token:             cfg.APIToken,
		Tenant:            cfg.Tenant,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

func runWizard(cmd *cobra.Command, mode wizard.Mode, id domain.ID) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	wcfg := romwizard.Config{
		Mode:      mode,
		BookingID: id,
		Source:    client,
		Submitter: client,
		Printer:   receipt.New(cfg.ReceiptDir),
		Previews:  preview.Shared(filepath.Join(cfg.DataDir, "previews")),
	}
	if cfg.Journal {
		wcfg.Journal = journal.Shared(cfg.DataDir)
	}

	logger.Info("Opening ROM wizard (%s)", mode)
	res, err := romwizard.Run(cmd.Context(), wcfg)
	if err != nil {
		return err
	}

	switch {
	case res.Cancelled:
		fmt.Println("Booking abandoned without saving.")
	case mode == wizard.ModeEdit:
		fmt.Printf("Booking #%s updated.\n", res.SavedID)
	default:
		fmt.Printf("Booking #%s created.\n", res.SavedID)
	}
	if res.ReceiptPath != "" {
		fmt.Printf("Receipt: %s\n", res.ReceiptPath)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	recs, err := client.ListBookings(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list bookings: %s", api.MessageOf(err, err.Error()))
	}
	if len(recs) == 0 {
		fmt.Println("No bookings yet.")
		return nil
	}
	for _, r := range recs {
		couple := "-"
		if len(r.Couples) > 0 {
			couple = r.Couples[0].Bride.Name + " & " + r.Couples[0].Groom.Name
		}
		fmt.Printf("#%-6s %-20s %-10s %-20s %s\n", r.ID, r.BookingNumber, r.BookingDate, r.Venue.Name, couple)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	store, err := journal.Open(cmd.Context(), cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.History(cmd.Context(), romFlags.limit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No wizard activity recorded.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-16s %-6s step %d", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Mode, e.Step)
		if e.BookingID != "" {
			line += "  #" + e.BookingID
		}
		if e.Message != "" {
			line += "  " + e.Message
		}
		fmt.Println(line)
	}
	return nil
}
