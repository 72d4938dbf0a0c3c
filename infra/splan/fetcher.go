package splan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/splan/core/metrics"
	"github.com/kilianp07/splan/infra/logger"
)

// Document kinds reported to metrics.
const (
	KindBasis        = "basis"
	KindWeekPlan     = "weekplan"
	KindSubstitution = "substitution"
	KindMobile       = "mobile"
	KindMobdaten     = "mobdaten"
)

// FetchConfig configures upstream HTTP access.
type FetchConfig struct {
	// BaseURL resolves relative source URLs such as /local/splan/sdaten.
	BaseURL        string `json:"base_url"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// Retries is the number of additional attempts; negative disables them.
	Retries int `json:"retries"`
}

// SetDefaults applies a 20 second timeout and one retry.
func (c *FetchConfig) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 20
	}
	switch {
	case c.Retries == 0:
		c.Retries = 1
	case c.Retries < 0:
		c.Retries = 0
	}
}

// Validate checks that BaseURL is absolute when set.
func (c FetchConfig) Validate() error {
	if c.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d (%s) at %s", e.Status, http.StatusText(e.Status), e.URL)
}

// Fetcher performs GET requests with basic auth, cache busting and retries.
type Fetcher struct {
	cfg    FetchConfig
	client *http.Client
	rec    metrics.FetchRecorder
	log    logger.Logger
	now    func() time.Time
}

// NewFetcher returns a Fetcher. rec may be nil.
func NewFetcher(cfg FetchConfig, rec metrics.FetchRecorder, log logger.Logger) *Fetcher {
	cfg.SetDefaults()
	if rec == nil {
		rec = metrics.NopSink{}
	}
	if log == nil {
		log = logger.New("splan-fetch")
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		rec:    rec,
		log:    log,
		now:    time.Now,
	}
}

// Resolve turns a possibly relative source URL into an absolute one using
// BaseURL. Absolute URLs and relative URLs without a base are returned as is.
func (f *Fetcher) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if f.cfg.BaseURL == "" || raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	base, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// Get fetches u and returns the body. Every attempt is reported to the
// fetch recorder under kind.
func (f *Fetcher) Get(ctx context.Context, kind, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		body, status, err := f.get(ctx, u)
		ev := metrics.FetchEvent{Kind: kind, URL: u, OK: err == nil, Status: status, Latency: time.Since(start), Time: f.now()}
		if err != nil {
			ev.Err = err.Error()
		}
		if rerr := f.rec.RecordFetch(ev); rerr != nil {
			f.log.Warnf("record fetch: %v", rerr)
		}
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.log.Debugf("fetch %s attempt %d failed: %v", u, attempt+1, err)
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cacheBust(u, f.now()), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	if f.cfg.Username != "" || f.cfg.Password != "" {
		req.SetBasicAuth(f.cfg.Username, f.cfg.Password)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, &StatusError{URL: u, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func cacheBust(u string, t time.Time) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "_ts=" + strconv.FormatInt(t.UnixMilli(), 10)
}
