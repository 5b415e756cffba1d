// Command paceline runs the training load and adaptive planning engine
// from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"paceline/internal/adapters/store"
	service "paceline/internal/app"
	"paceline/internal/config"
	"paceline/internal/domain/load"
	"paceline/internal/domain/model"
	"paceline/internal/domain/normalize"
	"paceline/internal/domain/plan"
	"paceline/internal/domain/risk"
	"paceline/internal/simulate"
	"paceline/pkg/logger"
	"paceline/pkg/metrics"
)

const metricsReadHeaderTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "paceline",
		Short:         "Training load and adaptive planning engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			return nil
		},
	}
	root.AddCommand(newUpdateCmd(), newStateCmd(), newSimulateCmd())
	return root
}

// loadConfig reads configuration and applies the log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}
	return cfg, nil
}

// buildService assembles the orchestrator from configuration.
func buildService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	var st store.Store = store.NewMemoryStore()
	if cfg.DBPath != "" {
		sq, err := store.NewSQLiteStore(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open load-state store: %w", err)
		}
		st = sq
	}

	svc := service.New(
		service.WithStore(st),
		service.WithLogger(logger.Get().Named("coach")),
		service.WithNormalizer(normalize.NewSummarizer(
			normalize.WithRollingWindow(time.Duration(cfg.RollingWindowSeconds)*time.Second),
			normalize.WithStressScale(cfg.StressScale),
			normalize.WithDegradedStressPerHour(cfg.DegradedStressPerHour),
		)),
		service.WithAccumulator(load.NewAccumulator(
			load.WithChronicTau(cfg.ChronicTauDays),
			load.WithAcuteTau(cfg.AcuteTauDays),
			load.WithBackfillTolerance(cfg.BackfillToleranceDays),
		)),
		service.WithDetector(risk.NewDetector(
			risk.WithThresholds(cfg.OvertrainingThreshold, cfg.UndertrainingThreshold),
		)),
		service.WithPlanner(plan.NewAdapter(
			plan.WithDailyCeiling(cfg.DailyStressCeiling),
		)),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDefaultThresholds(cfg.DefaultThresholdPower, cfg.DefaultThresholdHR),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func newUpdateCmd() *cobra.Command {
	var (
		athleteID    string
		sessionsPath string
		templatePath string
		windowStart  string
		windowDays   int
		ftp          float64
		thresholdHR  float64
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply new sessions and emit adjusted recommendations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			svc, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			sessions, err := readSessions(sessionsPath)
			if err != nil {
				return err
			}
			template, err := config.LoadTemplate(ctx, templatePath)
			if err != nil {
				return err
			}

			req := service.UpdateRequest{
				AthleteID: athleteID,
				Sessions:  sessions,
				Profile: model.AthleteProfile{
					AthleteID:      athleteID,
					ThresholdPower: ftp,
					ThresholdHR:    thresholdHR,
				},
				Template:   template,
				WindowDays: windowDays,
			}
			if windowStart != "" {
				start, err := time.Parse(time.DateOnly, windowStart)
				if err != nil {
					return fmt.Errorf("bad --window-start: %w", err)
				}
				req.WindowStart = start
			}

			result, err := svc.Update(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&athleteID, "athlete", "", "athlete identifier")
	cmd.Flags().StringVar(&sessionsPath, "sessions", "", "path to sessions JSON")
	cmd.Flags().StringVar(&templatePath, "template", "", "path to plan template YAML")
	cmd.Flags().StringVar(&windowStart, "window-start", "", "planning window start (YYYY-MM-DD)")
	cmd.Flags().IntVar(&windowDays, "window-days", 7, "planning window length in days")
	cmd.Flags().Float64Var(&ftp, "ftp", 0, "athlete threshold power (watts)")
	cmd.Flags().Float64Var(&thresholdHR, "threshold-hr", 0, "athlete threshold heart rate (bpm)")
	_ = cmd.MarkFlagRequired("athlete")
	_ = cmd.MarkFlagRequired("sessions")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newStateCmd() *cobra.Command {
	var athleteID string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the persisted load state for an athlete",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			svc, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			state, err := svc.GetState(ctx, athleteID)
			if err != nil {
				return err
			}
			return printJSON(cmd, state)
		},
	}

	cmd.Flags().StringVar(&athleteID, "athlete", "", "athlete identifier")
	_ = cmd.MarkFlagRequired("athlete")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		athleteID string
		days      int
		seed      int64
		start     string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Emit synthetic sessions for development and testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from := time.Now().AddDate(0, 0, -days)
			if start != "" {
				parsed, err := time.Parse(time.DateOnly, start)
				if err != nil {
					return fmt.Errorf("bad --start: %w", err)
				}
				from = parsed
			}
			gen := simulate.New(simulate.WithSeed(seed))
			sessions := gen.Sessions(athleteID, from, days)
			return printJSON(cmd, sessions)
		},
	}

	cmd.Flags().StringVar(&athleteID, "athlete", "", "athlete identifier")
	cmd.Flags().IntVar(&days, "days", 28, "number of days to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD); default counts back from today")
	_ = cmd.MarkFlagRequired("athlete")
	return cmd
}

func readSessions(path string) ([]model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	var sessions []model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse sessions: %w", err)
	}
	return sessions, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Get().Warn(ctx, "metrics listener stopped", logger.Error(err))
	}
}
