package splan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/source"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/infra/logger"
	"github.com/kilianp07/splan/internal/xmltree"
)

// Upstream host used when only a school id is configured.
const DefaultHost = "https://www.stundenplan24.de"

// maxParallel bounds concurrent daily document requests.
const maxParallel = 4

var (
	// ErrMissingSource is reported when the source is enabled without URL,
	// school id or class.
	ErrMissingSource = errors.New("source enabled but url/school id or class missing")
	// ErrWeekNotFound is reported when no school week covers today.
	ErrWeekNotFound = errors.New("no school week in basis covers today")
	// ErrWeeklyPlanNotFound is reported when no weekly plan filename variant
	// could be fetched.
	ErrWeeklyPlanNotFound = errors.New("weekly plan not found")
	// ErrNoData is reported when the mobile export has no lessons for the
	// class on any day of the week.
	ErrNoData = errors.New("no lessons found for class this week")
)

// Loader fetches the documents selected by the timetable configuration.
type Loader struct {
	fetch *Fetcher
	log   logger.Logger
	now   func() time.Time
}

// Option customises a Loader.
type Option func(*Loader)

// WithClock overrides the clock used to pick school weeks and dates.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader returns a Loader using f for HTTP access.
func NewLoader(f *Fetcher, log logger.Logger, opts ...Option) *Loader {
	if log == nil {
		log = logger.New("splan-loader")
	}
	l := &Loader{fetch: f, log: log, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SourceURL returns the configured source URL, or the default upstream
// location derived from the school id for the given format.
func SourceURL(cfg timetable.SplanConfig, format timetable.Format) string {
	if u := strings.TrimSpace(cfg.URL); u != "" {
		return u
	}
	id := strings.TrimSpace(cfg.SchoolID)
	if id == "" {
		return ""
	}
	if format == timetable.FormatMobdaten {
		return DefaultHost + "/" + id + "/mobil/mobdaten"
	}
	return DefaultHost + "/" + id + "/wplan/wdatenk"
}

// EffectiveFormat resolves FormatAuto: URLs whose path ends in .json are
// mobile JSON weeks, everything else is the wdatenk XML export.
func EffectiveFormat(cfg timetable.SplanConfig) timetable.Format {
	if cfg.Format != timetable.FormatAuto && cfg.Format != "" {
		return cfg.Format
	}
	if isJSONURL(cfg.URL) {
		return timetable.FormatMobileJSON
	}
	return timetable.FormatWdatenk
}

func isJSONURL(u string) bool {
	p := strings.SplitN(strings.TrimSpace(u), "?", 2)[0]
	return strings.HasSuffix(strings.ToLower(p), ".json")
}

// BasisLocation returns the basis document URL and the directory holding
// the weekly and daily documents. A URL ending in .xml names the basis
// document itself.
func BasisLocation(u string) (basisURL, dir string) {
	u = strings.TrimSpace(u)
	if p := strings.SplitN(u, "?", 2)[0]; strings.HasSuffix(strings.ToLower(p), ".xml") {
		if i := strings.LastIndex(p, "/"); i >= 0 {
			return u, p[:i]
		}
		return u, ""
	}
	dir = strings.TrimRight(u, "/")
	return dir + "/" + source.BasisFilename, dir
}

// Load fetches everything needed for one resolution pass. Any failure of
// the main chain is reported on FetchState.Err with no partial documents
// kept.
func (l *Loader) Load(ctx context.Context, cfg timetable.Config) timetable.FetchState {
	now := l.now()
	if !cfg.Splan.Enabled {
		return timetable.FetchState{FetchedAt: now}
	}
	st, err := l.load(ctx, cfg.Splan, now)
	if err != nil {
		l.log.Warnf("load timetable: %v", err)
		return timetable.FetchState{Err: err.Error(), FetchedAt: now}
	}
	st.FetchedAt = now
	return st
}

func (l *Loader) load(ctx context.Context, cfg timetable.SplanConfig, now time.Time) (timetable.FetchState, error) {
	format := EffectiveFormat(cfg)
	u := l.fetch.Resolve(SourceURL(cfg, format))
	if u == "" || cfg.Class == "" {
		return timetable.FetchState{}, ErrMissingSource
	}
	switch format {
	case timetable.FormatMobileJSON:
		return l.loadMobileJSON(ctx, u)
	case timetable.FormatMobdaten:
		return l.loadMobdaten(ctx, u, cfg.Class, now)
	default:
		return l.loadWdatenk(ctx, u, cfg, now)
	}
}

func (l *Loader) loadMobileJSON(ctx context.Context, u string) (timetable.FetchState, error) {
	body, err := l.fetch.Get(ctx, KindMobile, u)
	if err != nil {
		return timetable.FetchState{}, fmt.Errorf("fetch mobile week: %w", err)
	}
	var w model.MobileWeek
	if err := json.Unmarshal(body, &w); err != nil {
		return timetable.FetchState{}, fmt.Errorf("decode mobile week: %w", err)
	}
	return timetable.FetchState{Mobile: &w, Documents: []string{u}}, nil
}

func (l *Loader) fetchXML(ctx context.Context, kind, u string) (*xmltree.Node, error) {
	body, err := l.fetch.Get(ctx, kind, u)
	if err != nil {
		return nil, err
	}
	return xmltree.Parse(body)
}

func (l *Loader) loadWdatenk(ctx context.Context, u string, cfg timetable.SplanConfig, now time.Time) (timetable.FetchState, error) {
	basisURL, dir := BasisLocation(u)
	root, err := l.fetchXML(ctx, KindBasis, basisURL)
	if err != nil {
		return timetable.FetchState{}, fmt.Errorf("basis %s: %w", basisURL, err)
	}
	basis := source.ParseBasis(root)
	win, ok := source.FindSchoolWeek(basis, now)
	if !ok || win.Label == "" {
		return timetable.FetchState{}, ErrWeekNotFound
	}

	var (
		tried   []string
		lastErr error
		plan    *xmltree.Node
		planURL string
	)
	for _, name := range source.WeekPlanFilenames(win.Label) {
		candidate := dir + "/" + name
		tried = append(tried, candidate)
		if plan, lastErr = l.fetchXML(ctx, KindWeekPlan, candidate); lastErr == nil {
			planURL = candidate
			break
		}
	}
	if plan == nil {
		return timetable.FetchState{}, fmt.Errorf("%w (tried: %s): %v", ErrWeeklyPlanNotFound, strings.Join(tried, ", "), lastErr)
	}

	st := timetable.FetchState{
		Basis:       &basis,
		WeekLessons: source.ParseWeekPlan(plan, cfg.PlanKind, cfg.Class),
		WeekLabel:   win.Label,
		Documents:   []string{basisURL, planURL},
	}
	if cfg.SubEnabled {
		subs, docs := l.loadSubstitutions(ctx, dir, cfg, now)
		st.Substitutions = subs
		st.Documents = append(st.Documents, docs...)
	}
	return st, nil
}

// loadSubstitutions fetches the daily documents for today and the following
// school days. A day that fails simply has no substitutions. When the window
// spans the same weekday twice, the earlier date wins.
func (l *Loader) loadSubstitutions(ctx context.Context, dir string, cfg timetable.SplanConfig, now time.Time) (map[int][]model.LessonRecord, []string) {
	type daily struct {
		day  int
		url  string
		recs []model.LessonRecord
		ok   bool
	}
	results := make([]daily, cfg.SubDays)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i := 0; i < cfg.SubDays; i++ {
		d := now.AddDate(0, 0, i)
		if textnorm.IsWeekend(d) {
			continue
		}
		g.Go(func() error {
			u := dir + "/" + source.SubstitutionFilename(d)
			root, err := l.fetchXML(gctx, KindSubstitution, u)
			if err != nil {
				l.log.Debugf("substitutions %s unavailable: %v", u, err)
				return nil
			}
			day := textnorm.ISOWeekday(d)
			results[i] = daily{day: day, url: u, recs: source.ParseSubstitutions(root, day, cfg.PlanKind, cfg.Class), ok: true}
			return nil
		})
	}
	_ = g.Wait()

	subs := make(map[int][]model.LessonRecord)
	var docs []string
	for _, r := range results {
		if !r.ok {
			continue
		}
		docs = append(docs, r.url)
		if _, seen := subs[r.day]; !seen {
			subs[r.day] = r.recs
		}
	}
	sort.Strings(docs)
	return subs, docs
}

func (l *Loader) loadMobdaten(ctx context.Context, dir, class string, now time.Time) (timetable.FetchState, error) {
	dir = strings.TrimRight(dir, "/")
	monday := mondayOf(now)
	days := make([]model.MobileDay, 5)
	found := make([]bool, 5)
	docs := make([]string, 5)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i := 0; i < 5; i++ {
		d := monday.AddDate(0, 0, i)
		g.Go(func() error {
			u := dir + "/" + source.MobileDayFilename(d)
			root, err := l.fetchXML(gctx, KindMobdaten, u)
			if err != nil {
				l.log.Debugf("mobdaten %s unavailable: %v", u, err)
				return nil
			}
			lessons, ok := source.ParseClassDay(root, class)
			if !ok || len(lessons) == 0 {
				return nil
			}
			days[i] = model.MobileDay{Date: textnorm.FormatCompactDate(d), Lessons: lessons}
			found[i] = true
			docs[i] = u
			return nil
		})
	}
	_ = g.Wait()

	var st timetable.FetchState
	st.Mobile = &model.MobileWeek{}
	for i := range days {
		if found[i] {
			st.Mobile.Days = append(st.Mobile.Days, days[i])
			st.Documents = append(st.Documents, docs[i])
		}
	}
	if len(st.Mobile.Days) == 0 {
		return timetable.FetchState{}, fmt.Errorf("%w: %s", ErrNoData, class)
	}
	return st, nil
}

func mondayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, 1-textnorm.ISOWeekday(d))
}
