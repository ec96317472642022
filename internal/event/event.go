package event

import (
	"sync/atomic"
	"time"
)

// Type identifies a live notification.
type Type int

const (
	TypeProducts Type = iota + 1
	TypePurchase
)

// String returns the wire name of the event type
func (t Type) String() string {
	switch t {
	case TypeProducts:
		return "products"
	case TypePurchase:
		return "purchase"
	default:
		return "unknown"
	}
}

// Event is one message on the live stream. Seq is strictly increasing per process.
type Event struct {
	Seq  uint64 `json:"seq"`
	Ts   int64  `json:"ts"` // unix millis
	Kind string `json:"type"`
	Data any    `json:"data"`
}

// Sequencer stamps events with a monotonically increasing sequence number so
// clients can detect gaps after a reconnect.
type Sequencer struct {
	next atomic.Uint64
	now  func() time.Time
}

// NewSequencer creates a sequencer starting at 1.
func NewSequencer() *Sequencer {
	return &Sequencer{now: time.Now}
}

// Stamp builds the next event of type t.
func (s *Sequencer) Stamp(t Type, data any) Event {
	return Event{
		Seq:  s.next.Add(1),
		Ts:   s.now().UnixMilli(),
		Kind: t.String(),
		Data: data,
	}
}
