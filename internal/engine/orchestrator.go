package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/powderline/snowfall-alert-service/internal/observability"
)

// Orchestrator evaluates the configured location set once per polling cycle:
// fetch → build records → cross-verify → classify → cooldown → decision.
// Locations are independent; one location's failure never aborts the batch.
type Orchestrator struct {
	primary    domain.SnowSource
	secondary  domain.SnowSource
	verifier   *domain.Verifier
	classifier *domain.Classifier
	cooldown   *CooldownTracker
	locations  []domain.Location
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewOrchestrator wires the engine components. Secondary may be nil, in which
// case every reading is accepted single-source with reduced confidence.
func NewOrchestrator(
	primary, secondary domain.SnowSource,
	verifier *domain.Verifier,
	classifier *domain.Classifier,
	cooldown *CooldownTracker,
	locations []domain.Location,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		primary:    primary,
		secondary:  secondary,
		verifier:   verifier,
		classifier: classifier,
		cooldown:   cooldown,
		locations:  locations,
		logger:     logger,
		metrics:    metrics,
	}
}

// Locations returns the configured location set.
func (o *Orchestrator) Locations() []domain.Location { return o.locations }

// RunCycle evaluates every configured location and returns the full decision
// list, including non-notifying ones, so the caller can log cycle health.
func (o *Orchestrator) RunCycle(ctx context.Context, now time.Time) []domain.AlertDecision {
	cycleID := uuid.NewString()
	decisions := make([]domain.AlertDecision, 0, len(o.locations))

	for _, loc := range o.locations {
		decision := o.evaluateLocation(ctx, cycleID, loc, now)
		decisions = append(decisions, decision)
		o.metrics.LocationsChecked.Inc()

		if decision.ShouldNotify {
			o.logger.Info("alert decision",
				"cycle_id", cycleID,
				"location", loc.ID,
				"tier", decision.Tier.String(),
				"snow_inches", decision.VerifiedSnowInches,
				"cross_checked", decision.CrossChecked,
			)
		} else {
			o.logger.Debug("suppressed decision",
				"cycle_id", cycleID,
				"location", loc.ID,
				"tier", decision.Tier.String(),
				"reason", string(decision.SuppressReason),
			)
		}
	}

	return decisions
}

func (o *Orchestrator) evaluateLocation(ctx context.Context, cycleID string, loc domain.Location, now time.Time) domain.AlertDecision {
	decision := domain.AlertDecision{
		LocationID: loc.ID,
		CycleID:    cycleID,
		CheckedAt:  now.UTC(),
	}

	primary, err := o.primary.FetchSnow(ctx, loc)
	if err != nil {
		o.logger.Warn("primary fetch failed",
			"cycle_id", cycleID, "location", loc.ID, "source", o.primary.Name(), "error", err)
		o.metrics.FetchErrors.WithLabelValues(o.primary.Name()).Inc()
		decision.SuppressReason = domain.SuppressDataUnavailable
		return decision
	}

	result := o.verify(ctx, cycleID, loc, primary)
	decision.VerifiedSnowInches = result.VerifiedSnowInches
	decision.ForecastSnowInches = primary.ForecastSnowInches
	decision.CurrentTempF = primary.CurrentTempF
	decision.Conditions = primary.Conditions
	decision.CrossChecked = result.CrossChecked()

	// An unverified result never classifies above none: the sources disagreed,
	// so the amount cannot be trusted at any tier.
	if !result.Verified {
		decision.Tier = domain.TierNone
		decision.SuppressReason = domain.SuppressUnverified
		return decision
	}

	decision.Tier = o.classifier.Classify(result.VerifiedSnowInches)
	if decision.Tier == domain.TierNone {
		decision.SuppressReason = domain.SuppressBelowThreshold
		return decision
	}

	fire, err := o.cooldown.ShouldAlert(ctx, loc.ID, decision.Tier, now)
	if err != nil {
		o.logger.Error("cooldown state unavailable",
			"cycle_id", cycleID, "location", loc.ID, "error", err)
		decision.SuppressReason = domain.SuppressStateUnavailable
		return decision
	}
	if !fire {
		decision.SuppressReason = domain.SuppressCooldownActive
		return decision
	}

	decision.ShouldNotify = true
	return decision
}

func (o *Orchestrator) verify(ctx context.Context, cycleID string, loc domain.Location, primary domain.SnowRecord) domain.VerificationResult {
	if !o.verifier.NeedsSecondary(primary) {
		o.metrics.Verifications.WithLabelValues("skipped").Inc()
		return o.verifier.AcceptUnverified(primary, domain.SkipBelowNoiseFloor)
	}
	if o.secondary == nil {
		o.metrics.Verifications.WithLabelValues("skipped").Inc()
		return o.verifier.AcceptUnverified(primary, domain.SkipSecondaryUnavailable)
	}

	secondary, err := o.secondary.FetchSnow(ctx, loc)
	if err != nil {
		o.logger.Warn("secondary fetch failed, accepting primary alone",
			"cycle_id", cycleID, "location", loc.ID, "source", o.secondary.Name(), "error", err)
		o.metrics.FetchErrors.WithLabelValues(o.secondary.Name()).Inc()
		o.metrics.Verifications.WithLabelValues("skipped").Inc()
		return o.verifier.AcceptUnverified(primary, domain.SkipSecondaryUnavailable)
	}

	result := o.verifier.CrossCheck(primary, secondary)
	if result.Verified {
		o.metrics.Verifications.WithLabelValues("agreed").Inc()
	} else {
		o.metrics.Verifications.WithLabelValues("disagreed").Inc()
		o.logger.Info("cross-source disagreement",
			"cycle_id", cycleID,
			"location", loc.ID,
			"primary_inches", primary.ObservedSnowInches,
			"secondary_inches", secondary.ObservedSnowInches,
			"disagreement_inches", result.DisagreementInches,
		)
	}
	return result
}
