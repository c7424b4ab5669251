// Command alocador is the CLI entry point: it wires the loader, builder
// and allocation engine to a real database and exits with a status code
// a scheduler can branch on.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/matmov/alocador/internal/allocation"
	"github.com/matmov/alocador/internal/builder"
	"github.com/matmov/alocador/internal/config"
	"github.com/matmov/alocador/internal/domain"
	"github.com/matmov/alocador/internal/loader"
	"github.com/matmov/alocador/internal/metrics"
	"github.com/matmov/alocador/internal/milp"
	"github.com/matmov/alocador/internal/store"
)

// exitCode distinguishes a run that reached a conclusion (solved, or
// cleanly found infeasible) from one that aborted on a fatal fault:
// 0 on success and on cleanly-reported infeasibility, nonzero on fatal
// schema/I/O/solver-library faults.
const (
	exitOK    = 0
	exitFatal = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var timeout time.Duration

	root := &cobra.Command{
		Use:   "alocador [dsn]",
		Short: "Assign students to classes for an NGO after-school program",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			cfg, cfgErr := config.Load()

			dsn := cfg.DatabaseURL
			if len(positional) > 0 {
				dsn = positional[0]
			} else if cfgErr != nil {
				return cfgErr
			}

			resolvedTimeout := cfg.Timeout
			if cmd.Flags().Changed("timeout") {
				resolvedTimeout = timeout
			}

			return execute(cmd.Context(), dsn, resolvedTimeout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().DurationVar(&timeout, "timeout", 0, "deadline passed to the solver; overrides ALOCADOR_TIMEOUT")
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var infeasible *infeasibleHandled
		if errors.As(err, &infeasible) {
			fmt.Println("Não há solução!")
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitFatal
	}
	return exitOK
}

// infeasibleHandled marks an error that was already cleanly reported to
// the operator: cobra still sees an error return (so RunE's caller can
// tell the run didn't solve), but run() maps it to exit 0, not a fatal
// exit, since an infeasible allocation is an expected outcome, not a bug.
type infeasibleHandled struct{ cause error }

func (e *infeasibleHandled) Error() string { return e.cause.Error() }
func (e *infeasibleHandled) Unwrap() error { return e.cause }

func execute(ctx context.Context, dsn string, timeout time.Duration) error {
	logger := klog.Background()
	ctx = klog.NewContext(ctx, logger)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	db, err := store.Open(ctx, dsn)
	if err != nil {
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	params, loaded, err := loader.Load(ctx, db)
	if err != nil {
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("loading input: %w", err)
	}

	lookups, err := loadLookups(ctx, db)
	if err != nil {
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("loading lookups: %w", err)
	}

	existing, err := db.Classes(ctx)
	if err != nil {
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("loading existing classes: %w", err)
	}
	existingClasses := make([]domain.CandidateClass, len(existing))
	for i, c := range existing {
		existingClasses[i] = domain.CandidateClass{ClassID: c.ID, SchoolID: c.SchoolID, GradeID: c.GradeID}
	}

	allStudents := append(append([]domain.Student(nil), loaded.Enrolled...), loaded.Waitlisted...)
	classes, err := builder.Build(params, allStudents, existingClasses, lookups)
	if err != nil {
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("building candidate classes: %w", err)
	}

	start := time.Now()
	sol, err := allocation.Run(ctx, params, loaded.Enrolled, loaded.Waitlisted, classes, milp.WithLogger(logAdapter{logger}))
	if err != nil {
		if errors.Is(err, allocation.ErrEmptyDomain) {
			logger.Info("nothing to allocate")
			m.Runs.WithLabelValues(metrics.OutcomeEmptyDomain).Inc()
			if clearErr := db.Clear(ctx); clearErr != nil {
				return fmt.Errorf("clearing output tables for empty run: %w", clearErr)
			}
			return nil
		}
		if errors.Is(err, allocation.ErrInfeasible) {
			logger.Info("não há solução!")
			m.Runs.WithLabelValues(metrics.OutcomeInfeasible).Inc()
			if clearErr := db.Clear(ctx); clearErr != nil {
				return fmt.Errorf("clearing output tables after infeasible solve: %w", clearErr)
			}
			return &infeasibleHandled{cause: err}
		}
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("solving: %w", err)
	}

	m.ObserveSolve(start, len(sol.EnrolledPlaced)+len(sol.WaitlistPlaced), len(sol.OpenedClasses), sol.ObjectiveValue)

	if err := db.WriteSolution(ctx, sol); err != nil {
		m.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("writing solution: %w", err)
	}

	m.Runs.WithLabelValues(metrics.OutcomeSuccess).Inc()
	logger.Info("run complete",
		"students_placed", len(sol.EnrolledPlaced)+len(sol.WaitlistPlaced),
		"classes_opened", len(sol.OpenedClasses),
		"objective_value", sol.ObjectiveValue)
	return nil
}

func loadLookups(ctx context.Context, db *store.SQL) (builder.Lookups, error) {
	regions, err := db.Regions(ctx)
	if err != nil {
		return builder.Lookups{}, err
	}
	grades, err := db.Grades(ctx)
	if err != nil {
		return builder.Lookups{}, err
	}
	schools, err := db.Schools(ctx)
	if err != nil {
		return builder.Lookups{}, err
	}

	lookups := builder.Lookups{
		Regions: make(map[int]domain.Region, len(regions)),
		Grades:  make(map[int]domain.Grade, len(grades)),
		Schools: make(map[int]domain.School, len(schools)),
	}
	for _, r := range regions {
		lookups.Regions[r.ID] = domain.Region{ID: r.ID, Name: r.Name}
	}
	for _, g := range grades {
		lookups.Grades[g.ID] = domain.Grade{ID: g.ID, Name: g.Name, Active: g.Active}
	}
	for _, s := range schools {
		lookups.Schools[s.ID] = domain.School{ID: s.ID, RegionID: s.RegionID, Name: s.Name}
	}
	return lookups, nil
}

// logAdapter routes milp.Logger's Print calls to klog, matching the
// structured-logging idiom the rest of the service uses.
type logAdapter struct {
	logger klog.Logger
}

func (a logAdapter) Print(v ...interface{}) {
	a.logger.Info(fmt.Sprint(v...))
}
