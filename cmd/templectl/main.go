package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "▀█▀ █▀▀ █▀▄▀█ █▀█ █   █▀▀"
	logoText2 = " █  ██▄ █ ▀ █ █▀▀ █▄▄ ██▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		stop()
		_ = logger.Close()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "templectl",
	Short: "Terminal console for the temple management backend",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

templectl is a terminal console for the temple management backend.
Its ROM booking wizard walks staff through venue, session, date, the
registering person, couples, witnesses, documents and payment, then saves
the booking and optionally prints a PDF receipt.

Wizard activity is journaled in an embedded NATS JetStream stream, and a
local mock backend is available for trying things out offline.`

	rootCmd.AddCommand(romCmd)
	rootCmd.AddCommand(mockAPICmd)
	rootCmd.AddCommand(setupCmd)
}
