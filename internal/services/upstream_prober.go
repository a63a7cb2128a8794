package services

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karulmca/ScurmBoard/internal/metrics"
)

// ProbeResult is the last observed reachability of one upstream.
type ProbeResult struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Reachable  bool      `json:"reachable"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
	CheckedAt  time.Time `json:"checked_at"`
	Error      string    `json:"error,omitempty"`
}

// UpstreamProber periodically checks that each upstream answers HTTP at all.
// Any response counts as reachable; only transport failures do not.
type UpstreamProber struct {
	targets  map[string]string
	interval time.Duration
	client   *http.Client

	mu      sync.RWMutex
	results map[string]ProbeResult

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

func NewUpstreamProber(targets map[string]string, interval time.Duration) *UpstreamProber {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &UpstreamProber{
		targets:  targets,
		interval: interval,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		results: make(map[string]ProbeResult),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the probe loop. Calls after the first are no-ops.
func (p *UpstreamProber) Start() {
	p.startOnce.Do(func() {
		p.started.Store(true)
		go p.loop()
		slog.Info("Upstream prober started", "interval", p.interval.String(), "upstreams", len(p.targets))
	})
}

// Stop ends the probe loop and waits for it to exit. It is safe to call
// without Start and more than once.
func (p *UpstreamProber) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		if p.started.Load() {
			<-p.done
		}
		slog.Info("Upstream prober stopped")
	})
}

func (p *UpstreamProber) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.CheckAll(context.Background())

	for {
		select {
		case <-ticker.C:
			p.CheckAll(context.Background())
		case <-p.stop:
			return
		}
	}
}

// CheckAll probes every upstream concurrently and records the results.
func (p *UpstreamProber) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for name, url := range p.targets {
		wg.Add(1)
		go func(name, url string) {
			defer wg.Done()
			p.record(p.checkOne(ctx, name, url))
		}(name, url)
	}
	wg.Wait()
}

func (p *UpstreamProber) checkOne(ctx context.Context, name, url string) ProbeResult {
	result := ProbeResult{Name: name, URL: url}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/", nil)
	if err != nil {
		result.Error = err.Error()
		result.CheckedAt = time.Now().UTC()
		return result
	}

	resp, err := p.client.Do(req)
	result.LatencyMS = time.Since(start).Milliseconds()
	result.CheckedAt = time.Now().UTC()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	resp.Body.Close()

	result.Reachable = true
	result.StatusCode = resp.StatusCode
	return result
}

func (p *UpstreamProber) record(r ProbeResult) {
	p.mu.Lock()
	prev, seen := p.results[r.Name]
	p.results[r.Name] = r
	p.mu.Unlock()

	metrics.SetUpstreamUp(r.Name, r.Reachable)

	if seen && prev.Reachable == r.Reachable {
		return
	}
	if r.Reachable {
		slog.Info("Upstream reachable", "upstream", r.Name, "url", r.URL, "latency_ms", r.LatencyMS)
	} else {
		slog.Warn("Upstream unreachable", "upstream", r.Name, "url", r.URL, "error", r.Error)
	}
}

// Snapshot returns the latest results sorted by upstream name.
func (p *UpstreamProber) Snapshot() []ProbeResult {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ProbeResult, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
