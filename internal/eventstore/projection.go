package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/docrender/internal/events"
)

const (
	passStatusRunning   = "running"
	passStatusCompleted = "completed"
	passStatusFailed    = "failed"
)

// PassSummary is a read model of one render pass.
type PassSummary struct {
	PassID       string                 `json:"pass_id"`
	Status       string                 `json:"status"`
	Format       string                 `json:"format,omitempty"`
	Output       string                 `json:"output,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	Duration     time.Duration          `json:"duration,omitempty"`
	Documents    int                    `json:"documents"`
	Written      []string               `json:"written,omitempty"`
	Gaps         []events.ResolutionGap `json:"gaps,omitempty"`
	FailedOn     string                 `json:"failed_on,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// PassHistoryProjection maintains an in-memory view of render passes,
// reconstructed from stored events.
type PassHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	passes  map[string]*PassSummary
	history []*PassSummary // newest first
	maxSize int
}

// NewPassHistoryProjection creates a projection backed by store keeping at
// most maxHistorySize finished passes.
func NewPassHistoryProjection(store Store, maxHistorySize int) *PassHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &PassHistoryProjection{
		store:   store,
		passes:  make(map[string]*PassSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *PassHistoryProjection) Rebuild(ctx context.Context) error {
	evs, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.passes = make(map[string]*PassSummary)
	p.history = nil
	for _, e := range evs {
		p.applyLocked(e)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	return nil
}

// Apply processes a single stored event.
func (p *PassHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *PassHistoryProjection) applyLocked(e Event) {
	id := e.PassID()
	if id == "" {
		return
	}
	s, ok := p.passes[id]
	if !ok {
		s = &PassSummary{PassID: id, Status: passStatusRunning, StartedAt: e.Timestamp()}
		p.passes[id] = s
	}

	switch e.Type() {
	case events.NamePassStarted:
		var ev events.PassStarted
		if json.Unmarshal(e.Payload(), &ev) == nil {
			s.Format = ev.Format
			s.Output = ev.Output
			s.Documents = ev.Documents
		}
		s.StartedAt = e.Timestamp()
	case events.NameDocumentRendered:
		var ev events.DocumentRendered
		if json.Unmarshal(e.Payload(), &ev) == nil {
			s.Written = append(s.Written, ev.Destination)
		}
	case events.NameResolutionGap:
		var ev events.ResolutionGap
		if json.Unmarshal(e.Payload(), &ev) == nil {
			s.Gaps = append(s.Gaps, ev)
		}
	case events.NamePassCompleted:
		p.finishLocked(s, e.Timestamp(), passStatusCompleted)
	case events.NamePassFailed:
		var ev events.PassFailed
		if json.Unmarshal(e.Payload(), &ev) == nil {
			s.FailedOn = ev.Document
			s.ErrorMessage = ev.Error
		}
		p.finishLocked(s, e.Timestamp(), passStatusFailed)
	}
}

func (p *PassHistoryProjection) finishLocked(s *PassSummary, at time.Time, status string) {
	s.Status = status
	s.CompletedAt = &at
	s.Duration = at.Sub(s.StartedAt)
	for _, h := range p.history {
		if h.PassID == s.PassID {
			return
		}
	}
	p.history = append([]*PassSummary{s}, p.history...)
	if len(p.history) > p.maxSize {
		dropped := p.history[p.maxSize:]
		p.history = p.history[:p.maxSize]
		for _, d := range dropped {
			delete(p.passes, d.PassID)
		}
	}
}

// History returns finished passes, newest first.
func (p *PassHistoryProjection) History() []PassSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PassSummary, 0, len(p.history))
	for _, s := range p.history {
		out = append(out, *s)
	}
	return out
}

// Pass returns the summary of one pass.
func (p *PassHistoryProjection) Pass(id string) (PassSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.passes[id]
	if !ok {
		return PassSummary{}, false
	}
	return *s, true
}
