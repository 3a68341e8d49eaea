package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/powderline/snowfall-alert-service/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDecision = domain.AlertDecision{
	LocationID:         "alta",
	CycleID:            "cycle-1",
	Tier:               domain.TierModerate,
	VerifiedSnowInches: 8.5,
	ForecastSnowInches: 3.0,
	CurrentTempF:       25.0,
	Conditions:         "heavy snow",
	ShouldNotify:       true,
	CrossChecked:       true,
	CheckedAt:          time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC),
}

var testLoc = domain.Location{
	ID:        "alta",
	Name:      "Alta Ski Area",
	Lat:       40.5883,
	Lon:       -111.6358,
	Elevation: 8530,
	Region:    "Little Cottonwood Canyon",
	Website:   "https://www.alta.com",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func capturePayload(t *testing.T) (*httptest.Server, *message) {
	t.Helper()
	var captured message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	return srv, &captured
}

func TestNotifier_NotifyAlert_BuildsBlockKitPayload(t *testing.T) {
	srv, captured := capturePayload(t)
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger())
	require.NoError(t, n.NotifyAlert(context.Background(), testDecision, testLoc))

	assert.Equal(t, "🏂 Moderate Snow Alert: Alta Ski Area", captured.Text)
	require.NotEmpty(t, captured.Blocks)
	assert.Equal(t, "header", captured.Blocks[0].Type)
	assert.Equal(t, "plain_text", captured.Blocks[0].Text.Type)

	body := flattenText(*captured)
	assert.Contains(t, body, "*8.5 inches* of fresh snow at *Alta Ski Area*!")
	assert.Contains(t, body, "Elevation: 8530 ft")
	assert.Contains(t, body, "Region: Little Cottonwood Canyon")
	assert.Contains(t, body, "<https://www.alta.com|Resort Website>")
	assert.Contains(t, body, "Additional 3.0 inches expected")
	assert.NotContains(t, body, "Single-source")
}

func TestNotifier_NotifyAlert_TierEmojis(t *testing.T) {
	tests := []struct {
		tier  domain.Tier
		emoji string
	}{
		{domain.TierLight, "❄️"},
		{domain.TierModerate, "🏂"},
		{domain.TierHeavy, "🏔️"},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			srv, captured := capturePayload(t)
			defer srv.Close()

			d := testDecision
			d.Tier = tt.tier
			n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger())
			require.NoError(t, n.NotifyAlert(context.Background(), d, testLoc))
			assert.Contains(t, captured.Text, tt.emoji)
		})
	}
}

func TestNotifier_NotifyAlert_SingleSourceDisclosure(t *testing.T) {
	srv, captured := capturePayload(t)
	defer srv.Close()

	d := testDecision
	d.CrossChecked = false
	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger())
	require.NoError(t, n.NotifyAlert(context.Background(), d, testLoc))

	assert.Contains(t, flattenText(*captured), "Single-source")
}

func TestNotifier_Disabled_AcknowledgesWithoutSending(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger(), WithDisabled(true))
	require.NoError(t, n.NotifyAlert(context.Background(), testDecision, testLoc))
	require.NoError(t, n.NotifyCycleSummary(context.Background(), engine.CycleSummary{CycleID: "c"}))
	assert.Zero(t, hits.Load())
}

func TestNotifier_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger(), WithRetry(3, time.Millisecond))
	require.NoError(t, n.NotifyAlert(context.Background(), testDecision, testLoc))
	assert.Equal(t, int32(3), hits.Load())
}

func TestNotifier_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid_payload"))
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger(), WithRetry(3, time.Millisecond))
	err := n.NotifyAlert(context.Background(), testDecision, testLoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), hits.Load())
}

func TestNotifier_ExhaustedRetriesFail(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger(), WithRetry(2, time.Millisecond))
	err := n.NotifyAlert(context.Background(), testDecision, testLoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 attempts")
	assert.Equal(t, int32(2), hits.Load())
}

func TestNotifier_NotifyCycleSummary_Healthy(t *testing.T) {
	srv, captured := capturePayload(t)
	defer srv.Close()

	summary := engine.CycleSummary{
		CycleID:          "cycle-1",
		StartedAt:        time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC),
		Duration:         1500 * time.Millisecond,
		LocationsChecked: 10,
		AlertsSent:       1,
		Decisions: []domain.AlertDecision{
			testDecision,
			{LocationID: "snowbird", VerifiedSnowInches: 1.2, SuppressReason: domain.SuppressBelowThreshold},
			{LocationID: "brighton", SuppressReason: domain.SuppressDataUnavailable},
		},
	}

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger())
	require.NoError(t, n.NotifyCycleSummary(context.Background(), summary))

	body := flattenText(*captured)
	assert.Contains(t, captured.Text, "✅ Operational")
	assert.Contains(t, body, "*Resorts Checked:* 10")
	assert.Contains(t, body, "*Alerts Sent (1):*")
	assert.Contains(t, body, "• alta: 8.5\" - moderate alert")
	assert.Contains(t, body, "*Top Snow Depths:*")
	// Unreachable locations carry no reading and stay off the depth list.
	assert.NotContains(t, body, "• brighton")
}

func TestNotifier_NotifyCycleSummary_ErrorsCapped(t *testing.T) {
	srv, captured := capturePayload(t)
	defer srv.Close()

	summary := engine.CycleSummary{
		CycleID:          "cycle-2",
		StartedAt:        time.Now(),
		LocationsChecked: 10,
		Errors:           []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"},
	}

	n := NewNotifier(srv.URL, srv.URL, 5*time.Second, testLogger())
	require.NoError(t, n.NotifyCycleSummary(context.Background(), summary))

	body := flattenText(*captured)
	assert.Contains(t, captured.Text, "⚠️ Issues detected")
	assert.Contains(t, body, "*Errors (7):*")
	assert.Contains(t, body, "• e5")
	assert.NotContains(t, body, "• e6")
	assert.Contains(t, body, "...and 2 more")
}

func flattenText(msg message) string {
	var out string
	for _, b := range msg.Blocks {
		if b.Text != nil {
			out += b.Text.Text + "\n"
		}
		for _, e := range b.Elements {
			out += e.Text + "\n"
		}
	}
	return out
}
