package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/powderline/snowfall-alert-service/internal/engine"
	"github.com/powderline/snowfall-alert-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotifier struct {
	alerts    []domain.AlertDecision
	summaries []engine.CycleSummary
	alertErr  error
}

func (m *mockNotifier) NotifyAlert(_ context.Context, d domain.AlertDecision, _ domain.Location) error {
	if m.alertErr != nil {
		return m.alertErr
	}
	m.alerts = append(m.alerts, d)
	return nil
}

func (m *mockNotifier) NotifyCycleSummary(_ context.Context, s engine.CycleSummary) error {
	m.summaries = append(m.summaries, s)
	return nil
}

type mockPublisher struct {
	published [][]domain.AlertDecision
	err       error
}

func (m *mockPublisher) PublishDecisions(_ context.Context, decisions []domain.AlertDecision) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, decisions)
	return nil
}

func newRunnerFixture(t *testing.T, notifier engine.Notifier, publisher engine.DecisionPublisher) *engine.Runner {
	t.Helper()

	inches := map[string]float64{"alta": 8.5, "brighton": 0.0}
	primary := &mockSource{name: "primary", inches: inches}
	secondary := &mockSource{name: "secondary", inches: map[string]float64{"alta": 9.0}}
	f := newFixture(t, primary, secondary, "alta", "brighton")

	runner, err := engine.NewRunner(
		f.orchestrator, notifier, publisher,
		6*time.Hour, discardLogger(), observability.NewMetricsForTesting(),
	)
	require.NoError(t, err)
	return runner
}

// --- tests ---

func TestRunner_RunOnceDeliversAlertsAndSummary(t *testing.T) {
	notifier := &mockNotifier{}
	publisher := &mockPublisher{}
	runner := newRunnerFixture(t, notifier, publisher)

	summary := runner.RunOnce(context.Background())

	assert.Equal(t, 2, summary.LocationsChecked)
	assert.Equal(t, 1, summary.AlertsSent)
	assert.Empty(t, summary.Errors)
	assert.NotEmpty(t, summary.CycleID)

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "alta", notifier.alerts[0].LocationID)
	assert.Equal(t, domain.TierModerate, notifier.alerts[0].Tier)

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, summary.CycleID, notifier.summaries[0].CycleID)

	require.Len(t, publisher.published, 1)
	assert.Len(t, publisher.published[0], 2, "all decisions are published, notifying or not")
}

func TestRunner_ReadinessFlipsAfterFirstCycle(t *testing.T) {
	runner := newRunnerFixture(t, &mockNotifier{}, nil)
	ctx := context.Background()

	require.Error(t, runner.CheckReadiness(ctx))
	assert.Nil(t, runner.LastCycle())

	runner.RunOnce(ctx)

	require.NoError(t, runner.CheckReadiness(ctx))
	require.NotNil(t, runner.LastCycle())
	assert.Equal(t, 2, runner.LastCycle().LocationsChecked)
}

func TestRunner_NotifyFailureNotCountedAsSent(t *testing.T) {
	notifier := &mockNotifier{alertErr: errors.New("webhook 500")}
	runner := newRunnerFixture(t, notifier, nil)

	summary := runner.RunOnce(context.Background())
	assert.Equal(t, 0, summary.AlertsSent)
}

func TestRunner_NilNotifierAndPublisher(t *testing.T) {
	runner := newRunnerFixture(t, nil, nil)

	summary := runner.RunOnce(context.Background())
	assert.Equal(t, 1, summary.AlertsSent, "decisions still count without a notifier")
}

func TestRunner_PublisherErrorDoesNotAbortCycle(t *testing.T) {
	notifier := &mockNotifier{}
	runner := newRunnerFixture(t, notifier, &mockPublisher{err: errors.New("broker down")})

	summary := runner.RunOnce(context.Background())
	assert.Equal(t, 1, summary.AlertsSent)
	assert.Len(t, notifier.summaries, 1)
}

func TestRunner_DataErrorsSurfaceInSummary(t *testing.T) {
	primary := &mockSource{name: "primary", failFor: map[string]bool{"alta": true}}
	f := newFixture(t, primary, nil, "alta")

	runner, err := engine.NewRunner(
		f.orchestrator, nil, nil,
		6*time.Hour, discardLogger(), observability.NewMetricsForTesting(),
	)
	require.NoError(t, err)

	summary := runner.RunOnce(context.Background())
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "alta")
	assert.Contains(t, summary.Errors[0], string(domain.SuppressDataUnavailable))
}

func TestRunner_RunStopsOnContextCancel(t *testing.T) {
	runner := newRunnerFixture(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	// The immediate first cycle makes the runner ready even before a tick.
	require.Eventually(t, func() bool {
		return runner.CheckReadiness(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestNewRunner_RejectsNonPositiveInterval(t *testing.T) {
	primary := &mockSource{name: "primary"}
	f := newFixture(t, primary, nil, "alta")

	_, err := engine.NewRunner(f.orchestrator, nil, nil, 0, discardLogger(), observability.NewMetricsForTesting())
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
