package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/server"
	"github.com/felixgeelhaar/nexconsole/internal/version"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local stand-in for the users API",
	Long: `Start an in-memory server that speaks the same users API as the remote
service. It is seeded with 12 users, 6 per page.

Sign in with any seeded email (for example eve.holt@reqres.in) and a
non-empty password.

The server shuts down gracefully on SIGTERM or SIGINT, draining open
connections for up to --shutdown-timeout.

Example:
  # Start the stub on the configured address
  nexconsole stub

  # Point the console at it
  nexconsole console --api-url http://127.0.0.1:8089`,
	RunE: runStub,
}

var (
	stubAddress         string
	stubRequireToken    bool
	stubShutdownTimeout time.Duration
	stubReadTimeout     time.Duration
	stubWriteTimeout    time.Duration
	stubIdleTimeout     time.Duration
)

func init() {
	stubCmd.Flags().StringVar(&stubAddress, "address", "", "address to listen on (default from config)")
	stubCmd.Flags().BoolVar(&stubRequireToken, "require-token", false, "reject users calls without the stub bearer token")
	stubCmd.Flags().DurationVar(&stubShutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for connections to drain during shutdown")
	stubCmd.Flags().DurationVar(&stubReadTimeout, "read-timeout", 10*time.Second, "Maximum duration for reading the entire request")
	stubCmd.Flags().DurationVar(&stubWriteTimeout, "write-timeout", 10*time.Second, "Maximum duration before timing out writes of the response")
	stubCmd.Flags().DurationVar(&stubIdleTimeout, "idle-timeout", 60*time.Second, "Maximum amount of time to wait for the next request")

	rootCmd.AddCommand(stubCmd)
}

func runStub(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	listenAddr := stubAddress
	if listenAddr == "" {
		listenAddr = cctx.Config.Stub.Address
	}

	srv := server.NewServer(server.Config{
		Address:         listenAddr,
		PerPage:         cctx.Config.Stub.PerPage,
		RequireToken:    stubRequireToken,
		ShutdownTimeout: stubShutdownTimeout,
		ReadTimeout:     stubReadTimeout,
		WriteTimeout:    stubWriteTimeout,
		IdleTimeout:     stubIdleTimeout,
		Logger:          cctx.Logger,
	})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "nexconsole stub %s\n", version.GetInfo().Short())
	fmt.Fprintf(out, "Listening on: http://%s\n", listenAddr)
	fmt.Fprintf(out, "  Users:  http://%s/api/users\n", listenAddr)
	fmt.Fprintf(out, "  Health: http://%s/health\n", listenAddr)
	fmt.Fprintf(out, "Token: %s\n\n", server.StubToken)
	fmt.Fprintln(out, "Press Ctrl+C to stop the server")

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Fprintf(out, "\nReceived signal: %s\n", sig)
	case <-cmd.Context().Done():
	}

	fmt.Fprintln(out, "Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), stubShutdownTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fmt.Fprintln(out, "Server stopped gracefully")
	return nil
}
