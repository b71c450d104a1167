package seasonal

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMalformedEvent is returned for weather events that fail input
	// validation. Malformed oracle data blocks the operation entirely.
	ErrMalformedEvent = errors.New("seasonal engine: malformed weather event")
)

// WeatherEventType enumerates the recognised external shocks.
type WeatherEventType uint8

const (
	WeatherNormal WeatherEventType = iota
	Drought
	Flood
	Frost
	HeatWave
	Hurricane
)

// Valid reports whether the value names a declared event type.
func (t WeatherEventType) Valid() bool {
	switch t {
	case WeatherNormal, Drought, Flood, Frost, HeatWave, Hurricane:
		return true
	}
	return false
}

func (t WeatherEventType) String() string {
	switch t {
	case WeatherNormal:
		return "normal"
	case Drought:
		return "drought"
	case Flood:
		return "flood"
	case Frost:
		return "frost"
	case HeatWave:
		return "heat-wave"
	case Hurricane:
		return "hurricane"
	}
	return "unknown"
}

// WeatherEvent is a transient shock recorded by the trusted weather oracle.
// Events expire by read-time comparison; nothing deletes them on a schedule.
type WeatherEvent struct {
	ID             string
	SubCommodityID uint32
	Type           WeatherEventType
	// ImpactBps is the signed rate adjustment in basis points before
	// sensitivity scaling. Droughts and frosts push rates up, gluts push
	// them down.
	ImpactBps    int64
	DurationDays uint64
	Start        time.Time
}

// ExpiresAt returns the instant after which the event is inert.
func (e WeatherEvent) ExpiresAt() time.Time {
	return e.Start.Add(time.Duration(e.DurationDays) * 24 * time.Hour)
}

// ActiveAt reports whether the event influences rates at the given read
// time. Normal events never do; others are live from their start until
// expiry.
func (e WeatherEvent) ActiveAt(now time.Time) bool {
	if e.Type == WeatherNormal {
		return false
	}
	if now.Before(e.Start) {
		return false
	}
	return !now.After(e.ExpiresAt())
}

// Validate enforces the input contract on an event before it is recorded.
func (e WeatherEvent) Validate() error {
	if !e.Type.Valid() {
		return ErrMalformedEvent
	}
	if e.Type != WeatherNormal && e.DurationDays == 0 {
		return ErrMalformedEvent
	}
	if e.Start.IsZero() {
		return ErrMalformedEvent
	}
	return nil
}

// ApplyWeatherAdjustment overlays a weather event onto a base multiplier.
// The impact is scaled by the sub-commodity's sensitivity, applied
// multiplicatively and clamped to [0, 20000] bps. All intermediates use
// big.Int so an extreme impact cannot wrap.
func ApplyWeatherAdjustment(baseBps uint64, event WeatherEvent, sensitivity uint64, now time.Time) (uint64, error) {
	if sensitivity > 100 {
		return 0, ErrInvalidSensitivity
	}
	if err := event.Validate(); err != nil {
		return 0, err
	}
	if !event.ActiveAt(now) {
		return baseBps, nil
	}

	scaled := new(big.Int).SetInt64(event.ImpactBps)
	scaled.Mul(scaled, new(big.Int).SetUint64(sensitivity))
	scaled.Quo(scaled, big.NewInt(100))

	factor := new(big.Int).Add(basisPoints, scaled)
	if factor.Sign() < 0 {
		return 0, nil
	}

	adjusted := new(big.Int).SetUint64(baseBps)
	adjusted.Mul(adjusted, factor)
	adjusted.Quo(adjusted, basisPoints)
	if adjusted.Sign() < 0 {
		return 0, nil
	}
	if adjusted.Cmp(big.NewInt(maxMultiplierBps)) > 0 {
		return maxMultiplierBps, nil
	}
	return adjusted.Uint64(), nil
}

// EventBook keeps the weather events recorded by the trusted oracle role.
// Readers always observe a consistent snapshot; expired events stay on the
// book as inert entries until pruned.
type EventBook struct {
	mu     sync.RWMutex
	events map[uint32][]WeatherEvent
}

// NewEventBook constructs an empty weather event registry.
func NewEventBook() *EventBook {
	return &EventBook{events: make(map[uint32][]WeatherEvent)}
}

// Record validates and stores an event, assigning an id when the caller did
// not provide one. The stored event is returned.
func (b *EventBook) Record(event WeatherEvent) (WeatherEvent, error) {
	if err := event.Validate(); err != nil {
		return WeatherEvent{}, err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.SubCommodityID] = append(b.events[event.SubCommodityID], event)
	return event, nil
}

// ActiveEvent returns the most recently started event still live at the read
// time for the given sub-commodity.
func (b *EventBook) ActiveEvent(subCommodityID uint32, now time.Time) (WeatherEvent, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var (
		found  bool
		latest WeatherEvent
	)
	for _, event := range b.events[subCommodityID] {
		if !event.ActiveAt(now) {
			continue
		}
		if !found || event.Start.After(latest.Start) {
			latest = event
			found = true
		}
	}
	return latest, found
}

// Events returns a snapshot of every recorded event for the sub-commodity.
func (b *EventBook) Events(subCommodityID uint32) []WeatherEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]WeatherEvent, len(b.events[subCommodityID]))
	copy(out, b.events[subCommodityID])
	return out
}

// Prune drops events that expired before the cutoff.
func (b *EventBook) Prune(cutoff time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for id, events := range b.events {
		kept := events[:0]
		for _, event := range events {
			if event.ExpiresAt().Before(cutoff) {
				dropped++
				continue
			}
			kept = append(kept, event)
		}
		if len(kept) == 0 {
			delete(b.events, id)
			continue
		}
		b.events[id] = kept
	}
	return dropped
}
