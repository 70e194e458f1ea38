package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koztechie/svitlogics/pkg/adapter"
	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/cascade"
	"github.com/koztechie/svitlogics/pkg/catalog"
	"github.com/koztechie/svitlogics/pkg/config"
	"github.com/koztechie/svitlogics/pkg/prompt"
	"github.com/koztechie/svitlogics/pkg/server"
	"github.com/koztechie/svitlogics/pkg/store"
	"github.com/koztechie/svitlogics/pkg/taskqueue"
	"github.com/koztechie/svitlogics/pkg/worker"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "svitlogics",
		Short: "Text manipulation and propaganda analysis over a model-fallback cascade",
		Long: `Svitlogics analyzes text for manipulation and propaganda indicators by
cascading over a prioritized catalog of AI model configurations, with
per-model token-budget pre-flight checks and structured-JSON extraction
from free-form model output.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(limitsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the synchronous analysis endpoint, the asynchronous
	trigger/status pair, character limits, health and metrics.

	Without a redis address the queue and task store are in-process and a
	worker runs inside the server; with redis, run separate worker processes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			orch, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				q  taskqueue.Queue
				st store.Store
			)
			if cfg.RedisAddr != "" {
				rq, err := taskqueue.NewRedisQueue(cfg.RedisAddr)
				if err != nil {
					return err
				}
				defer func() { _ = rq.Close() }()
				rs, err := store.NewRedisStore(cfg.RedisAddr, cfg.TaskTTL.Std())
				if err != nil {
					return err
				}
				defer func() { _ = rs.Close() }()
				q, st = rq, rs
			} else {
				q = taskqueue.NewMemoryQueue(0)
				st = store.NewMemoryStore()
				w := worker.New(q, st, orch,
					worker.WithLogger(logger.Named("worker")),
					worker.WithCascadeTimeout(cfg.CascadeTimeout.Std()))
				go func() { _ = w.Run(ctx) }()
			}

			opts := []server.Option{
				server.WithLogger(logger),
				server.WithCascadeTimeout(cfg.CascadeTimeout.Std()),
			}
			if cfg.RateLimit.Enabled {
				opts = append(opts, server.WithLimiter(buildLimiter(cfg)))
				if cfg.RateLimit.TrustProxyHeader {
					opts = append(opts, server.WithProxyHeaderTrust())
				}
			}
			srv := server.New(orch, q, st, opts...)

			httpSrv := &http.Server{
				Addr:         cfg.ListenAddr,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: cfg.CascadeTimeout.Std() + 30*time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("addr", cfg.ListenAddr))
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run a background analysis worker",
		Long: `Consumes queued analysis tasks from redis, runs the cascade, and
	writes terminal task records to the store. Requires a redis address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.RedisAddr == "" {
				return fmt.Errorf("worker requires a redis address")
			}
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			orch, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			q, err := taskqueue.NewRedisQueue(cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = q.Close() }()
			st, err := store.NewRedisStore(cfg.RedisAddr, cfg.TaskTTL.Std())
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := worker.New(q, st, orch,
				worker.WithLogger(logger),
				worker.WithCascadeTimeout(cfg.CascadeTimeout.Std()))
			return w.Run(ctx)
		},
	}
}

func analyzeCmd() *cobra.Command {
	var langFlag string

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze text from the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			lang, err := analysis.ParseLanguage(langFlag)
			if err != nil {
				return err
			}
			system, err := prompt.System(lang)
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			orch, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.CascadeTimeout.Std())
			defer cancel()

			result, err := orch.Analyze(ctx, analysis.Request{
				Text:         args[0],
				Language:     lang,
				SystemPrompt: system,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&langFlag, "language", "en", "analysis language (en or uk)")
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Print the configured model cascade",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRIORITY\tID\tDISPLAY NAME\tFAMILY\tTPM\tRPM\tENABLED")
			for _, m := range cat.Descriptors() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%t\n",
					m.Priority, m.ID, m.DisplayName, m.Family,
					m.TokensPerMinute, m.RequestsPerMinute, m.Enabled)
			}
			return w.Flush()
		},
	}
}

func limitsCmd() *cobra.Command {
	var langFlag string

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Print per-model character budgets for a language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			lang, err := analysis.ParseLanguage(langFlag)
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			limits, err := orch.ModelLimits(lang)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tDISPLAY NAME\tMAX CHARS")
			for _, l := range limits {
				fmt.Fprintf(w, "%s\t%s\t%d\n", l.Model.ID, l.Model.DisplayName, l.MaxChars)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&langFlag, "language", "en", "analysis language (en or uk)")
	return cmd
}

// buildAdapters wires one adapter per configured provider key. The google
// adapter serves both the gemini and gemma families.
func buildAdapters(cfg *config.Config) (adapter.Registry, error) {
	registry := adapter.Registry{}

	if cfg.GoogleAPIKey != "" {
		google, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		registry[catalog.FamilyGemini] = google
		registry[catalog.FamilyGemma] = google
	}
	if cfg.OpenAIAPIKey != "" {
		oa, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		registry[catalog.FamilyOpenAI] = oa
	}
	if cfg.AnthropicAPIKey != "" {
		ant, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		registry[catalog.FamilyAnthropic] = ant
	}

	if len(registry) == 0 {
		return nil, fmt.Errorf("no provider API keys configured")
	}
	return registry, nil
}

func buildOrchestrator(cfg *config.Config, logger *zap.Logger) (*cascade.Orchestrator, error) {
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	adapters, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}
	return cascade.New(cat, adapters,
		cascade.WithLogger(logger.Named("cascade")),
		cascade.WithAttemptTimeout(cfg.AttemptTimeout.Std()),
		cascade.WithTemperature(cfg.Temperature),
	), nil
}

func buildLimiter(cfg *config.Config) server.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return server.NewRedisLimiter(client, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window.Std())
	}
	return server.NewMemoryLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window.Std())
}
