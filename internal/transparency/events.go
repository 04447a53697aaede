package transparency

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EventCategory identifies the subsystem that emitted an event.
type EventCategory string

const (
	CategoryAnalyzer EventCategory = "analyzer" // Strategy recommendation
	CategoryPipeline EventCategory = "pipeline" // Pipeline stages
	CategoryFlow     EventCategory = "flow"     // Stage graph attempts
	CategoryCritique EventCategory = "critique" // Scores and corrections
	CategoryVerify   EventCategory = "verify"   // Test generation and execution
	CategoryEngine   EventCategory = "engine"   // Run lifecycle, notices
)

// String returns the display name for the category.
func (c EventCategory) String() string {
	return string(c)
}

// DisplayPrefix returns the bracketed prefix for inline display.
func (c EventCategory) DisplayPrefix() string {
	return fmt.Sprintf("[%s]", strings.ToUpper(string(c)))
}

// Level marks how prominently an event should be shown.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Event is a single progress step.
type Event struct {
	// ID orders events within a run
	ID uint64

	Timestamp time.Time
	Category  EventCategory
	Level     Level

	// Summary is a one-line description for inline display
	Summary string

	// Details holds expanded information such as a code listing or report
	Details string

	// Duration for timed operations (optional)
	Duration time.Duration

	// Source identifies the specific component (role name, stage name)
	Source string
}

// String returns a formatted string for display.
func (e Event) String() string {
	result := fmt.Sprintf("%s %s", e.Category.DisplayPrefix(), e.Summary)
	if e.Duration > 0 {
		result += fmt.Sprintf(" (%.1fms)", float64(e.Duration.Microseconds())/1000)
	}
	return result
}

// HasDetails returns true if the event has expanded details.
func (e Event) HasDetails() bool {
	return e.Details != ""
}

// Sink receives events synchronously, in emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Emitter stamps events with a sequence number and timestamp before
// forwarding them. The zero value discards.
type Emitter struct {
	sink Sink
	seq  atomic.Uint64
}

// NewEmitter wraps sink; nil means Discard.
func NewEmitter(sink Sink) *Emitter {
	if sink == nil {
		sink = Discard
	}
	return &Emitter{sink: sink}
}

// Emit forwards e.
func (em *Emitter) Emit(e Event) {
	if em == nil || em.sink == nil {
		return
	}
	e.ID = em.seq.Add(1)
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	em.sink.Emit(e)
}

// Info emits an info-level event.
func (em *Emitter) Info(category EventCategory, source, format string, args ...any) {
	em.Emit(Event{Category: category, Source: source, Summary: fmt.Sprintf(format, args...)})
}

// Warn emits a warn-level event.
func (em *Emitter) Warn(category EventCategory, source, format string, args ...any) {
	em.Emit(Event{Category: category, Level: LevelWarn, Source: source, Summary: fmt.Sprintf(format, args...)})
}

// Detail emits an info-level event carrying an expanded body.
func (em *Emitter) Detail(category EventCategory, source, summary, details string) {
	em.Emit(Event{Category: category, Source: source, Summary: summary, Details: details})
}

// Fault emits the user-facing notice for a classified error.
func (em *Emitter) Fault(category EventCategory, source string, ce *ClassifiedError) {
	if ce == nil {
		return
	}
	em.Emit(Event{
		Category: category,
		Level:    LevelError,
		Source:   source,
		Summary:  ce.Summary,
		Details:  ce.Original.Error(),
	})
}

// Recorder is a Sink that keeps every event. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Summaries returns the recorded summaries, optionally filtered by category.
func (r *Recorder) Summaries(categories ...EventCategory) []string {
	allowed := make(map[EventCategory]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	var out []string
	for _, e := range r.Events() {
		if len(allowed) == 0 || allowed[e.Category] {
			out = append(out, e.Summary)
		}
	}
	return out
}
