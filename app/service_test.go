package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/splan/config"
	"github.com/kilianp07/splan/core/history"
	coremqtt "github.com/kilianp07/splan/core/mqtt"
	"github.com/kilianp07/splan/core/source"
	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/infra/entities"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []coremqtt.StateMessage
}

func (f *fakePublisher) PublishState(msg coremqtt.StateMessage) error {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakePublisher) last() coremqtt.StateMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[len(f.msgs)-1]
}

type fakeLoader struct {
	mu    sync.Mutex
	state timetable.FetchState
	calls int
}

func (f *fakeLoader) Load(context.Context, timetable.Config) timetable.FetchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.state
}

type memHistory struct {
	mu   sync.Mutex
	recs []history.Record
}

func (m *memHistory) Append(_ context.Context, r history.Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, r)
	m.mu.Unlock()
	return nil
}

func (m *memHistory) Query(context.Context, history.Query) ([]history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Record(nil), m.recs...), nil
}

func (m *memHistory) Latest(context.Context) (history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.recs) == 0 {
		return history.Record{}, history.ErrNotFound
	}
	return m.recs[len(m.recs)-1], nil
}

func (m *memHistory) Close() error { return nil }

var testNow = time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Timetable.Rows = []source.ManualRow{
		{Time: "1. 08:00-08:45", Cells: []string{"Ma", "De", "En", "Bio", "Sp"}},
	}
	cfg.Timetable.Source.Entity = "sensor.plan"
	cfg.Store.Backend = "none"
	cfg.SetDefaults()
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, path string) (*Service, *fakePublisher, *fakeLoader, *memHistory) {
	t.Helper()
	pub, ld, h := &fakePublisher{}, &fakeLoader{}, &memHistory{}
	svc, err := New(cfg, path, WithPublisher(pub), WithLoader(ld), WithHistory(h), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, pub, ld, h
}

func TestResolvePublishesOnlyChanges(t *testing.T) {
	svc, pub, _, h := newTestService(t, testConfig(), "")
	ctx := context.Background()

	res := svc.Resolve(ctx)
	assert.Equal(t, timetable.SourceManual, res.Source)
	require.Equal(t, 1, pub.count())
	assert.Equal(t, "ok", pub.last().State)

	svc.Resolve(ctx)
	assert.Equal(t, 1, pub.count())
	assert.Len(t, h.recs, 1)

	svc.Entities().Set("sensor.plan", entities.State{State: `[{"time":"1","Mo":"Physik"}]`})
	res = svc.Resolve(ctx)
	assert.Equal(t, timetable.SourceEntity, res.Source)
	assert.Equal(t, 2, pub.count())
	assert.Len(t, h.recs, 2)
	assert.NotEqual(t, h.recs[0].PassID, h.recs[1].PassID)
}

func TestRefreshUsesLoaderState(t *testing.T) {
	cfg := testConfig()
	cfg.Timetable.Splan.Enabled = true
	svc, pub, ld, _ := newTestService(t, cfg, "")
	ld.state = timetable.FetchState{Err: "no school week in basis covers today", FetchedAt: testNow}

	res := svc.Refresh(context.Background())
	assert.Equal(t, 1, ld.calls)
	assert.Equal(t, "no school week in basis covers today", res.Err)
	assert.Equal(t, timetable.SourceManual, res.Source)
	assert.Equal(t, "error", pub.last().State)
	assert.Equal(t, ld.state, svc.State())
}

func TestRunPublishesAndStops(t *testing.T) {
	svc, pub, ld, _ := newTestService(t, testConfig(), "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	svc.Entities().Set("sensor.plan", entities.State{State: `[{"time":"2","Mo":"Chemie"}]`})
	require.Eventually(t, func() bool { return pub.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	ld.mu.Lock()
	defer ld.mu.Unlock()
	assert.Equal(t, 1, ld.calls)
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timetable:\n  days: [Mo, Di]\nstore:\n  backend: none\n"), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	svc, _, _, _ := newTestService(t, cfg, path)
	assert.Len(t, svc.Config().Timetable.Days, 2)

	require.NoError(t, os.WriteFile(path, []byte("timetable:\n  days: [Mo, Di, Mi]\nstore:\n  backend: none\n"), 0o644))
	require.NoError(t, svc.Reload())
	assert.Len(t, svc.Config().Timetable.Days, 3)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))
	assert.Error(t, svc.Reload())
	assert.Len(t, svc.Config().Timetable.Days, 3)
}

func TestConfigWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	fired := make(chan struct{}, 4)
	w, err := NewConfigWatcher(path, 20*time.Millisecond, func() { fired <- struct{}{} }, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire")
	}
}
