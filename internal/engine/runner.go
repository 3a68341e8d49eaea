package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/powderline/snowfall-alert-service/internal/observability"
)

// Notifier delivers human-facing messages. Delivery retries belong to the
// implementation, not the engine.
type Notifier interface {
	// NotifyAlert sends one alert for a notifying decision.
	NotifyAlert(ctx context.Context, decision domain.AlertDecision, loc domain.Location) error

	// NotifyCycleSummary reports cycle health to the monitoring channel.
	NotifyCycleSummary(ctx context.Context, summary CycleSummary) error
}

// DecisionPublisher streams the full decision list of a cycle to downstream
// consumers (audit, monitoring).
type DecisionPublisher interface {
	PublishDecisions(ctx context.Context, decisions []domain.AlertDecision) error
}

// CycleSummary aggregates one cycle's outcome for monitoring.
type CycleSummary struct {
	CycleID          string                 `json:"cycle_id"`
	StartedAt        time.Time              `json:"started_at"`
	Duration         time.Duration          `json:"duration"`
	LocationsChecked int                    `json:"locations_checked"`
	AlertsSent       int                    `json:"alerts_sent"`
	Errors           []string               `json:"errors,omitempty"`
	Decisions        []domain.AlertDecision `json:"decisions"`
}

// Runner drives the orchestrator on a fixed interval. The first cycle runs
// immediately; subsequent cycles follow the ticker until the context is
// cancelled.
type Runner struct {
	orchestrator *Orchestrator
	notifier     Notifier          // nil disables outbound messages
	publisher    DecisionPublisher // nil disables the decision stream
	interval     time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics

	mu        sync.RWMutex
	lastCycle *CycleSummary

	locationsByID map[string]domain.Location
}

// NewRunner validates the interval eagerly.
func NewRunner(
	orchestrator *Orchestrator,
	notifier Notifier,
	publisher DecisionPublisher,
	interval time.Duration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*Runner, error) {
	if interval <= 0 {
		return nil, &domain.ConfigurationError{
			Setting: "check.interval",
			Reason:  "must be a positive duration",
		}
	}

	byID := make(map[string]domain.Location, len(orchestrator.Locations()))
	for _, loc := range orchestrator.Locations() {
		byID[loc.ID] = loc
	}

	return &Runner{
		orchestrator:  orchestrator,
		notifier:      notifier,
		publisher:     publisher,
		interval:      interval,
		logger:        logger,
		metrics:       metrics,
		locationsByID: byID,
	}, nil
}

// CheckReadiness returns nil once at least one cycle has completed.
func (r *Runner) CheckReadiness(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastCycle == nil {
		return errors.New("no evaluation cycle has completed yet")
	}
	return nil
}

// LastCycle returns the most recent cycle summary, or nil before the first
// cycle completes.
func (r *Runner) LastCycle() *CycleSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCycle
}

// Run executes evaluation cycles until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("engine started",
		"interval", r.interval,
		"locations", len(r.orchestrator.Locations()),
	)
	r.metrics.EngineRunning.Set(1)
	defer r.metrics.EngineRunning.Set(0)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("engine stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

// RunOnce executes a single cycle, used by one-shot invocations and tests.
func (r *Runner) RunOnce(ctx context.Context) CycleSummary {
	return r.runCycle(ctx)
}

func (r *Runner) runCycle(ctx context.Context) CycleSummary {
	start := time.Now()
	decisions := r.orchestrator.RunCycle(ctx, start)

	summary := CycleSummary{
		StartedAt:        start.UTC(),
		LocationsChecked: len(decisions),
		Decisions:        decisions,
	}
	if len(decisions) > 0 {
		summary.CycleID = decisions[0].CycleID
	}

	for _, d := range decisions {
		if d.SuppressReason == domain.SuppressDataUnavailable || d.SuppressReason == domain.SuppressStateUnavailable {
			summary.Errors = append(summary.Errors, d.LocationID+": "+string(d.SuppressReason))
		}
		if !d.ShouldNotify {
			r.metrics.Suppressed.WithLabelValues(string(d.SuppressReason)).Inc()
			continue
		}
		if r.deliverAlert(ctx, d) {
			summary.AlertsSent++
		}
	}

	r.publishDecisions(ctx, decisions)

	summary.Duration = time.Since(start)
	r.metrics.CyclesTotal.Inc()
	r.metrics.CycleDuration.Observe(summary.Duration.Seconds())

	if r.notifier != nil {
		if err := r.notifier.NotifyCycleSummary(ctx, summary); err != nil {
			r.logger.Warn("cycle summary delivery failed", "cycle_id", summary.CycleID, "error", err)
			r.metrics.NotifyFailures.Inc()
		}
	}

	r.mu.Lock()
	r.lastCycle = &summary
	r.mu.Unlock()

	r.logger.Info("cycle complete",
		"cycle_id", summary.CycleID,
		"locations", summary.LocationsChecked,
		"alerts_sent", summary.AlertsSent,
		"errors", len(summary.Errors),
		"duration", summary.Duration,
	)
	return summary
}

func (r *Runner) deliverAlert(ctx context.Context, d domain.AlertDecision) bool {
	r.metrics.AlertsSent.WithLabelValues(d.Tier.String()).Inc()
	if r.notifier == nil {
		return true
	}
	loc := r.locationsByID[d.LocationID]
	if err := r.notifier.NotifyAlert(ctx, d, loc); err != nil {
		r.logger.Error("alert delivery failed",
			"cycle_id", d.CycleID, "location", d.LocationID, "error", err)
		r.metrics.NotifyFailures.Inc()
		return false
	}
	return true
}

func (r *Runner) publishDecisions(ctx context.Context, decisions []domain.AlertDecision) {
	if r.publisher == nil || len(decisions) == 0 {
		return
	}
	if err := r.publisher.PublishDecisions(ctx, decisions); err != nil {
		r.logger.Warn("decision publish failed", "error", err)
		r.metrics.PublishFailures.Inc()
	}
}
