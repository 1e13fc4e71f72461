package wheel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
)

// Source supplies raw events. Next blocks until an event is available and
// returns io.EOF once the stream has ended.
type Source interface {
	Next(ctx context.Context) (RawEvent, error)
}

// Publisher receives every command snapshot, in order
type Publisher interface {
	Publish(ctx context.Context, v Vector) error
}

// TimedEvent is an event scheduled at an offset from the start of a replay
type TimedEvent struct {
	AtMS  int64    `json:"at_ms"`
	Event RawEvent `json:"event"`
}

// ReplaySource plays back a finite, recorded event sequence
type ReplaySource struct {
	clock  clockwork.Clock
	events []TimedEvent
	next   int
	start  time.Time
}

// NewReplaySource replays events against clock. Offsets must be
// non-decreasing; an event whose offset has already passed is delivered
// immediately.
func NewReplaySource(clock clockwork.Clock, events []TimedEvent) *ReplaySource {
	return &ReplaySource{
		clock:  clock,
		events: events,
	}
}

// LoadReplay reads a JSON array of timed events
func LoadReplay(path string) ([]TimedEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var events []TimedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	for i := 1; i < len(events); i++ {
		if events[i].AtMS < events[i-1].AtMS {
			return nil, fmt.Errorf("event %d: at_ms %d before previous %d", i, events[i].AtMS, events[i-1].AtMS)
		}
	}
	return events, nil
}

// Next waits for the next event's offset and returns it
func (s *ReplaySource) Next(ctx context.Context) (RawEvent, error) {
	if s.next >= len(s.events) {
		return RawEvent{}, io.EOF
	}
	if s.start.IsZero() {
		s.start = s.clock.Now()
	}

	te := s.events[s.next]
	due := s.start.Add(time.Duration(te.AtMS) * time.Millisecond)
	if wait := due.Sub(s.clock.Now()); wait > 0 {
		select {
		case <-ctx.Done():
			return RawEvent{}, ctx.Err()
		case <-s.clock.After(wait):
		}
	}

	s.next++
	return te.Event, nil
}
