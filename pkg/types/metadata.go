package types

import "time"

// Clock abstracts time for metadata stamping so tests can pin the ingestion
// instant.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Stamp holds the temporal and provenance fields attached to every fact.
// RecordedAt is always the ingestion time. ValidFrom defaults to RecordedAt
// when the caller supplies none. ValidTo stays nil for facts considered
// ongoing; it is never defaulted.
type Stamp struct {
	RecordedAt time.Time
	ValidFrom  time.Time
	ValidTo    *time.Time
}

// Stamper generates system metadata stamps.
type Stamper struct {
	clock Clock
}

// NewStamper creates a Stamper. A nil clock falls back to SystemClock.
func NewStamper(clock Clock) *Stamper {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Stamper{clock: clock}
}

// Stamp produces the metadata for one fact. validFrom and validTo are the
// caller-supplied validity bounds, forwarded verbatim when present.
func (s *Stamper) Stamp(validFrom, validTo *time.Time) Stamp {
	now := s.clock.Now()
	stamp := Stamp{
		RecordedAt: now,
		ValidFrom:  now,
		ValidTo:    validTo,
	}
	if validFrom != nil {
		stamp.ValidFrom = *validFrom
	}
	return stamp
}

// reservedPropertyKeys are the system-metadata fields user-supplied property
// bags must never overwrite.
var reservedPropertyKeys = map[string]struct{}{
	"id":           {},
	"scope_id":     {},
	"context_ids":  {},
	"embedding":    {},
	"_recorded_at": {},
	"_valid_from":  {},
	"_valid_to":    {},
	"_similarity":  {},
}

// IsReservedPropertyKey reports whether key is a protected system field.
func IsReservedPropertyKey(key string) bool {
	_, ok := reservedPropertyKeys[key]
	return ok
}

// FilterProperties returns a copy of props with reserved keys removed.
// Applied at every update boundary so protection is enforced by code, not
// convention.
func FilterProperties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		if IsReservedPropertyKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}
