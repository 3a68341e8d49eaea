// Package slack delivers alert and monitoring messages to Slack incoming
// webhooks using Block Kit payloads.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/powderline/snowfall-alert-service/internal/engine"
)

// maxErrorsShown caps how many cycle errors a status message lists.
const maxErrorsShown = 5

// maxDepthsShown caps the "Top Snow Depths" list in a status message.
const maxDepthsShown = 5

// Notifier implements engine.Notifier against two incoming webhooks: one for
// alerts, one for monitoring status updates. When disabled, every delivery is
// acknowledged without sending, so the cooldown ledger still advances.
type Notifier struct {
	alertWebhookURL      string
	monitoringWebhookURL string
	httpClient           *http.Client
	logger               *slog.Logger
	disabled             bool
	maxAttempts          int
	backoff              time.Duration
}

// Option adjusts notifier construction.
type Option func(*Notifier)

// WithDisabled suppresses all outbound deliveries. Deliveries still report
// success.
func WithDisabled(disabled bool) Option {
	return func(n *Notifier) { n.disabled = disabled }
}

// WithRetry sets the delivery attempt count and the base backoff between
// attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(n *Notifier) {
		n.maxAttempts = attempts
		n.backoff = backoff
	}
}

// NewNotifier creates a Slack notifier. monitoringWebhookURL may equal
// alertWebhookURL when both message kinds share a channel.
func NewNotifier(alertWebhookURL, monitoringWebhookURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		alertWebhookURL:      alertWebhookURL,
		monitoringWebhookURL: monitoringWebhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		maxAttempts: 3,
		backoff:     time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyAlert implements engine.Notifier.
func (n *Notifier) NotifyAlert(ctx context.Context, decision domain.AlertDecision, loc domain.Location) error {
	if n.disabled {
		n.logger.Info("notifications disabled, skipping alert",
			"location_id", decision.LocationID,
			"tier", decision.Tier.String())
		return nil
	}
	msg := buildAlertMessage(decision, loc)
	return n.post(ctx, n.alertWebhookURL, msg)
}

// NotifyCycleSummary implements engine.Notifier.
func (n *Notifier) NotifyCycleSummary(ctx context.Context, summary engine.CycleSummary) error {
	if n.disabled {
		n.logger.Info("notifications disabled, skipping cycle summary",
			"cycle_id", summary.CycleID)
		return nil
	}
	msg := buildSummaryMessage(summary)
	return n.post(ctx, n.monitoringWebhookURL, msg)
}

func tierEmoji(t domain.Tier) string {
	switch t {
	case domain.TierModerate:
		return "🏂"
	case domain.TierHeavy:
		return "🏔️"
	default:
		return "❄️"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildAlertMessage(decision domain.AlertDecision, loc domain.Location) message {
	emoji := tierEmoji(decision.Tier)
	headline := fmt.Sprintf("%s %s Snow Alert: %s", emoji, titleCase(decision.Tier.String()), loc.Name)

	msg := message{
		Text: headline,
		Blocks: []block{
			headerBlock(headline),
			sectionBlock(fmt.Sprintf("*%.1f inches* of fresh snow at *%s*!", decision.VerifiedSnowInches, loc.Name)),
		},
	}

	var meta []string
	if loc.Elevation > 0 {
		meta = append(meta, fmt.Sprintf("Elevation: %d ft", loc.Elevation))
	}
	if loc.Region != "" {
		meta = append(meta, "Region: "+loc.Region)
	}
	if loc.Website != "" {
		meta = append(meta, fmt.Sprintf("<%s|Resort Website>", loc.Website))
	}
	if len(meta) > 0 {
		msg.Blocks = append(msg.Blocks, sectionBlock(strings.Join(meta, " | ")))
	}

	if decision.ForecastSnowInches > 0 {
		msg.Blocks = append(msg.Blocks, sectionBlock(fmt.Sprintf(
			"*Forecast*: Additional %.1f inches expected in the next 24 hours.",
			decision.ForecastSnowInches)))
	}

	if !decision.CrossChecked {
		msg.Blocks = append(msg.Blocks, sectionBlock(
			"⚠️ _Single-source reading; the secondary provider was unavailable for cross-checking._"))
	}

	msg.Blocks = append(msg.Blocks, contextBlock(
		"Recorded at: "+decision.CheckedAt.UTC().Format("2006-01-02 15:04 MST")))
	return msg
}

func buildSummaryMessage(summary engine.CycleSummary) message {
	status := "✅ Operational"
	if len(summary.Errors) > 0 {
		status = "⚠️ Issues detected"
	}
	headline := "Snowfall Alert System Status: " + status

	msg := message{
		Text: headline,
		Blocks: []block{
			headerBlock(headline),
			sectionBlock(fmt.Sprintf("*%s*\n*Time:* %s\n*Resorts Checked:* %d",
				status,
				summary.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"),
				summary.LocationsChecked)),
		},
	}

	if summary.Duration > 0 {
		msg.Blocks = append(msg.Blocks, sectionBlock(fmt.Sprintf(
			"*Processing Time:* %.2fms", float64(summary.Duration.Microseconds())/1000)))
	}

	if alerted := notifyingDecisions(summary.Decisions); len(alerted) > 0 {
		lines := make([]string, 0, len(alerted))
		for _, d := range alerted {
			lines = append(lines, fmt.Sprintf("• %s: %.1f\" - %s alert",
				d.LocationID, d.VerifiedSnowInches, d.Tier.String()))
		}
		msg.Blocks = append(msg.Blocks, sectionBlock(fmt.Sprintf(
			"*Alerts Sent (%d):*\n%s", len(alerted), strings.Join(lines, "\n"))))
	}

	if len(summary.Errors) > 0 {
		shown := summary.Errors
		if len(shown) > maxErrorsShown {
			shown = shown[:maxErrorsShown]
		}
		lines := make([]string, 0, len(shown)+1)
		for _, e := range shown {
			lines = append(lines, "• "+e)
		}
		if extra := len(summary.Errors) - maxErrorsShown; extra > 0 {
			lines = append(lines, fmt.Sprintf("• ...and %d more", extra))
		}
		msg.Blocks = append(msg.Blocks, sectionBlock(fmt.Sprintf(
			"*Errors (%d):*\n%s", len(summary.Errors), strings.Join(lines, "\n"))))
	}

	if depths := topDepths(summary.Decisions); len(depths) > 0 {
		msg.Blocks = append(msg.Blocks, sectionBlock("*Top Snow Depths:*\n"+strings.Join(depths, "\n")))
	}

	return msg
}

// topDepths lists the deepest verified readings of the cycle, descending.
func topDepths(decisions []domain.AlertDecision) []string {
	type depth struct {
		id     string
		inches float64
	}
	var depths []depth
	for _, d := range decisions {
		if d.SuppressReason == domain.SuppressDataUnavailable {
			continue
		}
		depths = append(depths, depth{id: d.LocationID, inches: d.VerifiedSnowInches})
	}
	sort.Slice(depths, func(i, j int) bool { return depths[i].inches > depths[j].inches })

	shown := depths
	if len(shown) > maxDepthsShown {
		shown = shown[:maxDepthsShown]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, d := range shown {
		lines = append(lines, fmt.Sprintf("• %s: %.1f\"", d.id, d.inches))
	}
	if extra := len(depths) - maxDepthsShown; extra > 0 {
		lines = append(lines, fmt.Sprintf("• ...and %d more", extra))
	}
	return lines
}

func notifyingDecisions(decisions []domain.AlertDecision) []domain.AlertDecision {
	var out []domain.AlertDecision
	for _, d := range decisions {
		if d.ShouldNotify {
			out = append(out, d)
		}
	}
	return out
}

// post delivers one webhook payload with bounded retries. Retries cover
// network failures and 5xx responses; 4xx responses fail immediately since
// the payload will not improve.
func (n *Notifier) post(ctx context.Context, webhookURL string, msg message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := n.backoff << (attempt - 2)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = n.postOnce(ctx, webhookURL, payload)
		if lastErr == nil {
			return nil
		}
		if permanent, ok := lastErr.(*permanentError); ok {
			return permanent.err
		}
		n.logger.Warn("slack delivery failed, retrying",
			"attempt", attempt,
			"error", lastErr)
	}
	return fmt.Errorf("slack delivery failed after %d attempts: %w", n.maxAttempts, lastErr)
}

func (n *Notifier) postOnce(ctx context.Context, webhookURL string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return &permanentError{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	statusErr := fmt.Errorf("slack webhook status %d: %s", resp.StatusCode, body)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &permanentError{err: statusErr}
	}
	return statusErr
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

// Block Kit payload types.

type message struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

type block struct {
	Type     string       `json:"type"`
	Text     *textObject  `json:"text,omitempty"`
	Elements []textObject `json:"elements,omitempty"`
}

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func headerBlock(text string) block {
	return block{Type: "header", Text: &textObject{Type: "plain_text", Text: text}}
}

func sectionBlock(text string) block {
	return block{Type: "section", Text: &textObject{Type: "mrkdwn", Text: text}}
}

func contextBlock(text string) block {
	return block{Type: "context", Elements: []textObject{{Type: "mrkdwn", Text: text}}}
}

var _ engine.Notifier = (*Notifier)(nil)
