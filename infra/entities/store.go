// Package entities keeps the latest state of the external entities the
// timetable reads its JSON rows and week maps from.
package entities

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/splan/core/mqtt"
	"github.com/kilianp07/splan/infra/logger"
)

// Config declares static entities and the MQTT topics feeding others.
type Config struct {
	Static map[string]State `json:"static"`
	// Topics maps an entity id to the MQTT topic carrying its state.
	Topics map[string]string `json:"topics"`
}

// Validate rejects entity topics containing wildcards.
func (c Config) Validate() error {
	for id, topic := range c.Topics {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("entities.topics: empty entity id")
		}
		if topic == "" || strings.ContainsAny(topic, "+#") {
			return fmt.Errorf("entities.topics[%s]: invalid topic %q", id, topic)
		}
	}
	return nil
}

// State is one entity: a state value plus optional attributes.
type State struct {
	State      any            `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// Store is a concurrency-safe entity registry.
type Store struct {
	mu       sync.RWMutex
	states   map[string]State
	onChange func(id string)
	now      func() time.Time
	log      logger.Logger
}

// NewStore returns a store seeded with the static entities of cfg.
func NewStore(cfg Config, log logger.Logger) *Store {
	if log == nil {
		log = logger.New("entities")
	}
	s := &Store{states: make(map[string]State), now: time.Now, log: log}
	for id, st := range cfg.Static {
		s.states[id] = st
	}
	return s
}

// OnChange registers a callback invoked after every update. It must not
// block.
func (s *Store) OnChange(fn func(id string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Entity implements timetable.EntityLookup. An empty attribute returns the
// state value.
func (s *Store) Entity(id, attribute string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return nil, false
	}
	if attribute == "" {
		return st.State, true
	}
	v, ok := st.Attributes[attribute]
	return v, ok
}

// Set replaces the state of an entity.
func (s *Store) Set(id string, st State) {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = s.now()
	}
	s.mu.Lock()
	s.states[id] = st
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// IDs returns the known entity ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply stores an MQTT payload for id. A JSON object with a "state" key is
// read as {state, attributes}; any other payload becomes the raw state text.
func (s *Store) Apply(id string, payload []byte) {
	s.Set(id, ParsePayload(payload))
}

// ParsePayload decodes an entity payload.
func ParsePayload(payload []byte) State {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err == nil {
		if raw, ok := obj["state"]; ok {
			var st State
			if err := json.Unmarshal(raw, &st.State); err != nil {
				st.State = string(raw)
			}
			if attrs, ok := obj["attributes"]; ok {
				_ = json.Unmarshal(attrs, &st.Attributes)
			}
			return st
		}
	}
	return State{State: strings.TrimSpace(string(payload))}
}

// Subscribe feeds every topic of cfg into the store.
func (s *Store) Subscribe(sub coremqtt.Subscriber, cfg Config) error {
	ids := make([]string, 0, len(cfg.Topics))
	for id := range cfg.Topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		id, topic := id, cfg.Topics[id]
		if err := sub.Subscribe(topic, func(_ string, payload []byte) {
			s.log.Debugf("entity %s updated from %s", id, topic)
			s.Apply(id, payload)
		}); err != nil {
			return fmt.Errorf("subscribe entity %s: %w", id, err)
		}
	}
	return nil
}
