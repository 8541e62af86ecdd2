package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"bilitrack-go/internal/cookie"
	"bilitrack-go/internal/scrape"
)

// Notifier posts run summaries to a feishu-style webhook. Delivery problems
// are logged and swallowed; a broken webhook must not fail a collection run.
type Notifier struct {
	webhookURL string
	client     *resty.Client
}

// New creates a notifier; an empty URL yields a disabled one.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(10 * time.Second),
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// SendReport posts one run report with the pool status appended.
func (n *Notifier) SendReport(ctx context.Context, report *scrape.Report, pool *cookie.Status) {
	if !n.Enabled() || report == nil {
		return
	}

	title := fmt.Sprintf("bilitrack %s run finished", report.TaskType)
	if len(report.Errors) > 0 {
		title = fmt.Sprintf("bilitrack %s run finished with %d error(s)", report.TaskType, len(report.Errors))
	}

	var lines []string
	lines = append(lines,
		fmt.Sprintf("run: %s", report.RunID),
		fmt.Sprintf("cookie: %s", report.CookieUsed),
		fmt.Sprintf("creators: %d, videos: %d, comments: %d",
			report.CreatorsCollected, report.VideosCollected, report.CommentsCollected),
		fmt.Sprintf("duration: %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Second)),
	)
	if pool != nil {
		lines = append(lines, fmt.Sprintf("pool: %d/%d eligible, %d failed",
			pool.PoolStatus.Eligible, pool.PoolStatus.Total, pool.PoolStatus.Failed))
	}
	for _, e := range report.Errors {
		lines = append(lines, "error: "+e)
	}

	payload, err := buildCard(title, strings.Join(lines, "\n"))
	if err != nil {
		log.WithError(err).Warn("failed to build notification payload")
		return
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.webhookURL)
	if err != nil {
		log.WithError(err).Warn("notification delivery failed")
		return
	}
	if resp.StatusCode() != 200 {
		log.Warnf("notification webhook answered HTTP %d", resp.StatusCode())
	}
}

// buildCard assembles the interactive-card JSON the webhook expects.
func buildCard(title, content string) (string, error) {
	payload := `{}`
	var err error
	if payload, err = sjson.Set(payload, "msg_type", "interactive"); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "card.header.title.tag", "plain_text"); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "card.header.title.content", title); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "card.elements.0.tag", "div"); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "card.elements.0.text.tag", "lark_md"); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "card.elements.0.text.content", content); err != nil {
		return "", err
	}
	return payload, nil
}
