package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/pinpoint/internal/ctxutil"
	"github.com/example/pinpoint/internal/wire"
)

// AddGlobalFlags registers the flags shared by every command.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file (default ~/.pinpoint/config.yaml)")
	root.PersistentFlags().Bool("yes", false, "Answer yes to every operator prompt")
	root.PersistentFlags().Bool("no", false, "Answer no to every operator prompt")
	root.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while motion commands run")
	root.MarkFlagsMutuallyExclusive("yes", "no")
}

// Setup passes the global flags to the wiring. Used as the root command's
// PersistentPreRunE.
func Setup(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	yes, _ := cmd.Flags().GetBool("yes")
	no, _ := cmd.Flags().GetBool("no")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	opts := wire.Options{ConfigPath: configPath, MetricsAddr: metricsAddr}
	switch {
	case yes:
		answer := true
		opts.Answer = &answer
	case no:
		answer := false
		opts.Answer = &answer
	}
	wire.Configure(opts)
	return nil
}

// Teardown releases the link and database after a command ran.
func Teardown(_ *cobra.Command, _ []string) error {
	if err := wire.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	return nil
}

// commandContext returns a context carrying the operator that is cancelled
// on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctxutil.WithOperator(ctx, operatorName(wire.Config().Operator)), cancel
}

func operatorName(configured string) string {
	if configured != "" {
		return configured
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "operator"
}

// serveMetrics exposes /metrics until ctx is done. It does nothing when
// metrics are disabled.
func serveMetrics(ctx context.Context) {
	addr := wire.MetricsAddr()
	handler := wire.MetricsHandler()
	if addr == "" || handler == nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
