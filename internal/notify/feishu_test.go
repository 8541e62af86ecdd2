package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"bilitrack-go/internal/cookie"
	"bilitrack-go/internal/scrape"
)

func TestBuildCard(t *testing.T) {
	payload, err := buildCard("run finished", "line one\nline two")
	if err != nil {
		t.Fatalf("buildCard returned %v", err)
	}
	if !gjson.Valid(payload) {
		t.Fatalf("payload is not valid JSON: %s", payload)
	}
	if got := gjson.Get(payload, "msg_type").String(); got != "interactive" {
		t.Errorf("msg_type = %q", got)
	}
	if got := gjson.Get(payload, "card.header.title.content").String(); got != "run finished" {
		t.Errorf("title = %q", got)
	}
	if got := gjson.Get(payload, "card.elements.0.text.content").String(); got != "line one\nline two" {
		t.Errorf("content = %q", got)
	}
	if got := gjson.Get(payload, "card.elements.0.text.tag").String(); got != "lark_md" {
		t.Errorf("text tag = %q", got)
	}
}

func TestSendReport(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	started := time.Now().Add(-90 * time.Second)
	report := &scrape.Report{
		RunID:             "run-1",
		TaskType:          "daily",
		StartedAt:         started,
		FinishedAt:        started.Add(90 * time.Second),
		CookieUsed:        "main",
		CreatorsCollected: 2,
		VideosCollected:   10,
		Errors:            []string{"creator 999: boom"},
	}
	status := &cookie.Status{}
	status.PoolStatus.Total = 3
	status.PoolStatus.Eligible = 2
	status.PoolStatus.Failed = 1

	New(srv.URL).SendReport(context.Background(), report, status)

	if body == "" {
		t.Fatal("webhook received nothing")
	}
	title := gjson.Get(body, "card.header.title.content").String()
	if title != "bilitrack daily run finished with 1 error(s)" {
		t.Errorf("title = %q", title)
	}
	content := gjson.Get(body, "card.elements.0.text.content").String()
	for _, want := range []string{"run: run-1", "cookie: main", "pool: 2/3 eligible, 1 failed", "error: creator 999: boom"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
}

func TestDisabledNotifier(t *testing.T) {
	n := New("")
	if n.Enabled() {
		t.Error("empty webhook must disable the notifier")
	}
	// Must not panic or block.
	n.SendReport(context.Background(), &scrape.Report{}, nil)

	var nilNotifier *Notifier
	if nilNotifier.Enabled() {
		t.Error("nil notifier must report disabled")
	}
}
