package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/mockapi"
	"github.com/spf13/cobra"
)

var mockAPIFlags struct {
	addr  string
	db    string
	token string
	debug bool
}

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Run a local stand-in for the temple backend",
	Long: `Run a local stand-in for the temple backend.

The mock API serves the ROM endpoints the wizard uses from a SQLite
database seeded with venues, sessions and payment modes. Point the wizard
at it with api_url: http://localhost:8088/api/v1 (the setup default).`,
	Args: cobra.NoArgs,
	RunE: runMockAPI,
}

func init() {
	mockAPICmd.Flags().StringVar(&mockAPIFlags.addr, "addr", ":8088", "Listen address")
	mockAPICmd.Flags().StringVar(&mockAPIFlags.db, "db", "templectl-mock.db", "SQLite database path (:memory: for a throwaway store)")
	mockAPICmd.Flags().StringVar(&mockAPIFlags.token, "token", "", "Require this bearer token on every request")
	mockAPICmd.Flags().BoolVar(&mockAPIFlags.debug, "debug", false, "Run gin in debug mode")
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	if !mockAPIFlags.debug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := mockapi.Open(mockAPIFlags.db)
	if err != nil {
		return fmt.Errorf("failed to open mock database: %w", err)
	}
	defer func() { _ = store.Close() }()

	srv := &http.Server{
		Addr:              mockAPIFlags.addr,
		Handler:           mockapi.NewServer(store, mockAPIFlags.token).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Printf("Mock API listening on %s%s\n", mockAPIFlags.addr, mockapi.BasePath)
	logger.Info("Mock API listening on %s", mockAPIFlags.addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mock API failed: %w", err)
		}
		return nil
	case <-cmd.Context().Done():
	}

	fmt.Println("\nShutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
