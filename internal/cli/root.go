// Package cli implements the coinbase command line tool on top of the core
// client and the exchange endpoints.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	core "github.com/coinbase-samples/core-go"
	"github.com/coinbase-samples/core-go/exchange"
	"github.com/coinbase-samples/core-go/internal/config"
)

// Env holds injectable dependencies for CLI commands.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	// HTTPClient replaces the default HTTP client when set.
	HTTPClient *http.Client

	// Color enables ANSI colors on stderr status lines.
	Color bool
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Env {
	return &Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  true,
	}
}

// globals are the persistent flags shared by every command.
type globals struct {
	configPath  string
	envFile     string
	baseURL     string
	debug       bool
	maxRetries  int
	timeout     time.Duration
	metricsAddr string
}

// session is what a command needs to talk to the API.
type session struct {
	client   *core.Client
	exchange *exchange.Service
	out      *printer
	shutdown func()
}

// NewRootCmd builds the command tree.
func NewRootCmd(env *Env) *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "coinbase",
		Short:         "Call the Coinbase Exchange REST API with signed requests",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&g.envFile, "env-file", "", "path to a .env file with credentials")
	flags.StringVar(&g.baseURL, "base-url", "", "API base URL (env: "+config.EnvBaseURL+")")
	flags.BoolVar(&g.debug, "debug", false, "log requests and retries to stderr")
	flags.IntVar(&g.maxRetries, "max-retries", -1, "retries after the first attempt (default from config)")
	flags.DurationVar(&g.timeout, "timeout", 0, "per-attempt HTTP timeout (default from config)")
	flags.StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	rootCmd.AddCommand(productsCmd(env, g))
	rootCmd.AddCommand(accountsCmd(env, g))
	rootCmd.AddCommand(ordersCmd(env, g))
	rootCmd.AddCommand(requestCmd(env, g))
	rootCmd.AddCommand(versionCmd(env))

	return rootCmd
}

// open resolves configuration and builds the client for one command run.
func (g *globals) open(env *Env) (*session, error) {
	cfg, err := config.Load(g.configPath, g.envFile)
	if err != nil {
		return nil, err
	}
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	if g.maxRetries >= 0 {
		cfg.MaxRetries = g.maxRetries
	}
	if g.timeout > 0 {
		cfg.Timeout = g.timeout
	}
	if g.metricsAddr != "" {
		cfg.MetricsAddr = g.metricsAddr
	}
	cfg.Debug = cfg.Debug || g.debug

	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}

	opts := []core.Option{
		core.WithCallPolicy(cfg.Policy()),
		core.WithTimeout(cfg.Timeout),
	}
	if env.HTTPClient != nil {
		opts = append(opts, core.WithHTTPClient(env.HTTPClient))
	}
	if cfg.Debug {
		opts = append(opts, core.WithDebug())
	}

	shutdown := func() {}
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		opts = append(opts, core.WithMetricsRegistry(registry))
		stop, err := serveMetrics(cfg.MetricsAddr, registry)
		if err != nil {
			return nil, err
		}
		shutdown = stop
	}

	client, err := core.New(cfg.BaseURL, creds, opts...)
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &session{
		client:   client,
		exchange: exchange.NewService(client),
		out:      newPrinter(env),
		shutdown: shutdown,
	}, nil
}

// serveMetrics exposes registry on addr until the returned stop is called.
func serveMetrics(addr string, registry *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

// run opens a session, calls fn and reports the outcome.
func run(cmd *cobra.Command, env *Env, g *globals, fn func(ctx context.Context, s *session) error) error {
	s, err := g.open(env)
	if err != nil {
		if core.KindOf(err) != core.KindUnknown {
			newPrinter(env).failure(err)
		}
		return err
	}
	defer s.shutdown()

	if err := fn(cmd.Context(), s); err != nil {
		s.out.failure(err)
		return err
	}
	return nil
}
