package cookie

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultHealthEndpoint answers with the login state of the session cookie.
const DefaultHealthEndpoint = "https://api.bilibili.com/x/web-interface/nav"

const (
	defaultProbeTimeout  = 10 * time.Second
	defaultBatchInterval = 5 * time.Minute
	maxConcurrentProbes  = 5

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	biliReferer      = "https://www.bilibili.com"
)

// Prober verifies cookies against live endpoints. A cookie is healthy when
// any endpoint answers HTTP 200 with code==0 and data.isLogin==true.
type Prober struct {
	client    *resty.Client
	endpoints []string

	mu            sync.Mutex
	lastBatch     time.Time
	batchInterval time.Duration
}

// NewProber creates a prober over the given endpoints; nil or empty uses the
// default nav endpoint.
func NewProber(endpoints []string, timeout time.Duration) *Prober {
	if len(endpoints) == 0 {
		endpoints = []string{DefaultHealthEndpoint}
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Referer", biliReferer)
	return &Prober{
		client:        client,
		endpoints:     endpoints,
		batchInterval: defaultBatchInterval,
	}
}

// Probe checks a single cookie. The first endpoint that confirms a login
// short-circuits; probe failures are reported through the boolean, never as
// an error the caller must branch on.
func (p *Prober) Probe(ctx context.Context, info *Info) bool {
	if info == nil {
		return false
	}
	raw := info.Clone().Value

	healthy := false
	for _, endpoint := range p.endpoints {
		resp, err := p.client.R().
			SetContext(ctx).
			SetHeader("Cookie", raw).
			Get(endpoint)
		if err != nil {
			log.WithError(err).Debugf("health probe request failed for %s", info.Name)
			continue
		}
		if resp.StatusCode() != 200 {
			log.Debugf("health probe for %s got HTTP %d from %s", info.Name, resp.StatusCode(), endpoint)
			continue
		}
		body := resp.Body()
		if gjson.GetBytes(body, "code").Int() == 0 && gjson.GetBytes(body, "data.isLogin").Bool() {
			healthy = true
			break
		}
	}

	info.MarkChecked(healthy)
	return healthy
}

// ProbeAll checks every entry concurrently, bounded by a small semaphore.
// Batches are rate limited: a call arriving before the minimum interval has
// elapsed is a no-op and returns an empty map.
func (p *Prober) ProbeAll(ctx context.Context, infos []*Info) map[string]bool {
	p.mu.Lock()
	if !p.lastBatch.IsZero() && time.Since(p.lastBatch) < p.batchInterval {
		p.mu.Unlock()
		log.Debug("skipping batch health check, interval not elapsed")
		return map[string]bool{}
	}
	p.lastBatch = time.Now()
	p.mu.Unlock()

	results := make(map[string]bool)
	var resMu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, maxConcurrentProbes)

	for _, info := range infos {
		if info == nil {
			continue
		}
		wg.Add(1)
		go func(c *Info) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			healthy := p.Probe(ctx, c)
			resMu.Lock()
			results[c.Name] = healthy
			resMu.Unlock()
		}(info)
	}

	wg.Wait()
	return results
}

// SetBatchInterval overrides the minimum spacing between batch probes.
// Non-positive values keep the default.
func (p *Prober) SetBatchInterval(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d <= 0 {
		p.batchInterval = defaultBatchInterval
		return
	}
	p.batchInterval = d
}

// BatchInterval returns the minimum spacing between batch probes.
func (p *Prober) BatchInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batchInterval
}
