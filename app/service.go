package app

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/splan/config"
	"github.com/kilianp07/splan/core/history"
	coremetrics "github.com/kilianp07/splan/core/metrics"
	coremqtt "github.com/kilianp07/splan/core/mqtt"
	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/infra/entities"
	"github.com/kilianp07/splan/infra/logger"
	"github.com/kilianp07/splan/infra/metrics"
	"github.com/kilianp07/splan/infra/mqtt"
	"github.com/kilianp07/splan/infra/splan"
	"github.com/kilianp07/splan/infra/store"
	"github.com/kilianp07/splan/internal/eventbus"
)

// Loader produces the fetch state of one pass.
type Loader interface {
	Load(ctx context.Context, cfg timetable.Config) timetable.FetchState
}

// Service loads upstream documents, resolves the timetable and publishes
// every changed result.
type Service struct {
	mu      sync.RWMutex
	cfg     *config.Config
	cfgPath string
	state   timetable.FetchState
	last    *timetable.Result

	loader   Loader
	entities *entities.Store
	client   *mqtt.PahoClient
	pub      coremqtt.Publisher
	sink     coremetrics.MetricsSink
	bus      *eventbus.TypedBus[coremetrics.ResolutionEvent]
	history  history.Store
	log      logger.Logger
	now      func() time.Time

	kick chan struct{}
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher replaces the MQTT client with p.
func WithPublisher(p coremqtt.Publisher) Option { return func(s *Service) { s.pub = p } }

// WithLoader replaces the HTTP loader.
func WithLoader(l Loader) Option { return func(s *Service) { s.loader = l } }

// WithHistory replaces the configured history store.
func WithHistory(h history.Store) Option { return func(s *Service) { s.history = h } }

// WithClock overrides the resolution clock.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New wires a Service from cfg. cfgPath is watched for changes when
// service.watch_config is set; it may be empty.
func New(cfg *config.Config, cfgPath string, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:     cfg,
		cfgPath: cfgPath,
		log:     logger.New("service"),
		now:     time.Now,
		bus:     eventbus.NewTyped[coremetrics.ResolutionEvent](eventbus.WithBuffer(16)),
		kick:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.sink = sink

	if s.loader == nil {
		var rec coremetrics.FetchRecorder
		if fr, ok := sink.(coremetrics.FetchRecorder); ok {
			rec = fr
		}
		fetcher := splan.NewFetcher(cfg.Fetch, rec, logger.New("splan-fetch"))
		s.loader = splan.NewLoader(fetcher, logger.New("splan-loader"))
	}

	if s.history == nil {
		h, err := store.New(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		s.history = h
	}

	s.entities = entities.NewStore(cfg.Entities, logger.New("entities"))
	s.entities.OnChange(func(string) { s.trigger() })
	if ids := s.entities.IDs(); len(ids) > 0 {
		s.log.Infof("static entities: %s", strings.Join(ids, ", "))
	}

	if s.pub == nil && cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.client = client
		s.pub = client
		if err := s.entities.Subscribe(client, cfg.Entities); err != nil {
			client.Disconnect()
			return nil, err
		}
	}
	return s, nil
}

// Entities exposes the entity store.
func (s *Service) Entities() *entities.Store { return s.entities }

// Config returns the active configuration.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// State returns the last fetch state.
func (s *Service) State() timetable.FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Refresh reloads the upstream documents and resolves again.
func (s *Service) Refresh(ctx context.Context) timetable.Result {
	cfg := s.Config()
	st := s.loader.Load(ctx, cfg.Timetable)
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if st.Err != "" {
		s.log.Warnf("refresh: %s", st.Err)
	} else {
		s.log.Debugf("refresh loaded %d documents", len(st.Documents))
	}
	return s.Resolve(ctx)
}

// Resolve runs one resolution pass over the current fetch state. A result
// that differs from the previous one is published and stored.
func (s *Service) Resolve(ctx context.Context) timetable.Result {
	start := time.Now()
	s.mu.RLock()
	cfg := s.cfg
	st := s.state
	s.mu.RUnlock()

	res := timetable.Resolve(cfg.Timetable, &st, s.entities, s.now())
	passID := uuid.NewString()

	s.mu.Lock()
	changed := s.last == nil || !sameResult(*s.last, res)
	if changed {
		r := res
		s.last = &r
	}
	s.mu.Unlock()

	s.bus.Publish(coremetrics.ResolutionEvent{
		PassID:   passID,
		Source:   string(res.Source),
		Week:     string(res.Week),
		Rows:     len(res.Rows),
		Err:      res.Err,
		Changed:  changed,
		Duration: time.Since(start),
		Time:     res.At,
	})
	if !changed {
		return res
	}
	s.log.Infof("timetable changed: source=%s week=%s rows=%d", res.Source, res.Week, len(res.Rows))
	if s.pub != nil {
		if err := s.pub.PublishState(coremqtt.NewStateMessage(res, cfg.Timetable, &st)); err != nil {
			s.log.Errorf("publish state: %v", err)
		}
	}
	if err := s.history.Append(ctx, history.NewRecord(passID, res)); err != nil {
		s.log.Errorf("append history: %v", err)
	}
	return res
}

func sameResult(a, b timetable.Result) bool {
	return a.Source == b.Source && a.Week == b.Week && a.Err == b.Err && reflect.DeepEqual(a.Rows, b.Rows)
}

// Reload reads the configuration file again and applies the timetable and
// logging sections. Connections keep their settings until restart. On error
// the running configuration is kept.
func (s *Service) Reload() error {
	if s.cfgPath == "" {
		return nil
	}
	cfg, err := config.Load(s.cfgPath)
	if err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		s.log.Warnf("log level: %v", err)
	}
	s.mu.Lock()
	next := *s.cfg
	next.Timetable = cfg.Timetable
	next.Logging = cfg.Logging
	s.cfg = &next
	s.mu.Unlock()
	return nil
}

// Run starts the loops and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	cfg := s.Config()
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics"))
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, logger.New("prom")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	reload := make(chan struct{}, 1)
	if cfg.Service.Watch() && s.cfgPath != "" {
		w, err := NewConfigWatcher(s.cfgPath, 500*time.Millisecond, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		}, logger.New("config-watcher"))
		if err != nil {
			s.log.Warnf("watch config: %v", err)
		} else {
			go w.Run(ctx)
		}
	}

	s.Refresh(ctx)
	refresh := time.NewTicker(cfg.Service.RefreshInterval())
	defer refresh.Stop()
	resolve := time.NewTicker(cfg.Service.ResolveInterval())
	defer resolve.Stop()

	for {
		select {
		case <-ctx.Done():
			<-collected
			return nil
		case <-refresh.C:
			s.Refresh(ctx)
		case <-resolve.C:
			s.Resolve(ctx)
		case <-s.kick:
			s.Resolve(ctx)
		case <-reload:
			if err := s.Reload(); err != nil {
				s.log.Errorf("reload config: %v", err)
				continue
			}
			s.log.Infof("configuration reloaded")
			s.Refresh(ctx)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Disconnect()
	}
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.history.Close()
}
