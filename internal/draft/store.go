package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sandeepkv93/ritualday/internal/model"
)

// State is the raw UI state for one day.
type State struct {
	Day          model.Date                `json:"-"`
	Done         map[model.Category]bool   `json:"done,omitempty"`
	Steps        map[model.Category][]bool `json:"steps,omitempty"`
	Priority     string                    `json:"priority,omitempty"`
	KeystoneText string                    `json:"keystone_text,omitempty"`
	Acks         map[string]bool           `json:"acks,omitempty"`
}

func (s State) IsDone(c model.Category) bool {
	return s.Done[c]
}

func (s *State) ensure() {
	if s.Done == nil {
		s.Done = make(map[model.Category]bool)
	}
	if s.Steps == nil {
		s.Steps = make(map[model.Category][]bool)
	}
	if s.Acks == nil {
		s.Acks = make(map[string]bool)
	}
}

// Store reads and writes today's draft. Every access runs the boundary check
// first so a previous day's draft is never returned.
type Store struct {
	mu       sync.Mutex
	kv       KV
	clock    model.Clock
	boundary *Boundary
}

func NewStore(kv KV, clock model.Clock) *Store {
	return &Store{kv: kv, clock: clock, boundary: NewBoundary(kv, clock)}
}

func (s *Store) Boundary() *Boundary {
	return s.boundary
}

func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (State, error) {
	if _, err := s.boundary.Activate(); err != nil {
		return State{}, err
	}
	today := s.clock.Today()
	out := State{Day: today}
	raw, err := s.kv.Get(draftKey(today))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			out.ensure()
			return out, nil
		}
		return State{}, fmt.Errorf("draft: read: %w", err)
	}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return State{}, fmt.Errorf("draft: decode: %w", err)
		}
	}
	out.Day = today
	out.ensure()
	return out, nil
}

// Update applies fn to today's draft and persists the result.
func (s *Store) Update(fn func(*State)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.loadLocked()
	if err != nil {
		return State{}, err
	}
	fn(&st)
	payload, err := json.Marshal(st)
	if err != nil {
		return State{}, err
	}
	if err := s.kv.Set(draftKey(st.Day), string(payload)); err != nil {
		return State{}, fmt.Errorf("draft: write: %w", err)
	}
	return st, nil
}

func (s *Store) SetDone(c model.Category, done bool) (State, error) {
	return s.Update(func(st *State) { st.Done[c] = done })
}

// MaxSteps caps the number of steps tracked per ritual.
const MaxSteps = 32

func (s *Store) SetStep(c model.Category, index int, checked bool) (State, error) {
	if index < 0 || index >= MaxSteps {
		return State{}, fmt.Errorf("draft: invalid step index %d", index)
	}
	return s.Update(func(st *State) {
		steps := st.Steps[c]
		for len(steps) <= index {
			steps = append(steps, false)
		}
		steps[index] = checked
		st.Steps[c] = steps
	})
}

func (s *Store) SetPriority(text string) (State, error) {
	return s.Update(func(st *State) { st.Priority = strings.TrimSpace(text) })
}

func (s *Store) SetKeystoneText(text string) (State, error) {
	return s.Update(func(st *State) { st.KeystoneText = strings.TrimSpace(text) })
}

func (s *Store) Ack(name string) (State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return State{}, errors.New("draft: acknowledgment name is required")
	}
	return s.Update(func(st *State) { st.Acks[name] = true })
}

func draftKey(d model.Date) string {
	return draftPrefix + d.String()
}
