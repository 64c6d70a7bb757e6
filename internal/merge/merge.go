// Package merge folds freshly extracted records into an existing collection,
// matching on a natural key and recording what changed.
package merge

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/venue-planner/internal/utils"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("a record with the same name already exists")
)

// Summary counts what a merge did to the collection.
type Summary struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

func (s Summary) Total() int { return s.Added + s.Updated + s.Unchanged }

// Merger carries the clock and id source; both are swapped out in tests.
type Merger struct {
	now   func() time.Time
	newID func() string
}

type Option func(*Merger)

func WithClock(now func() time.Time) Option {
	return func(m *Merger) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(m *Merger) {
		if gen != nil {
			m.newID = gen
		}
	}
}

func New(opts ...Option) *Merger {
	m := &Merger{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// fold is the shared reconciliation loop. Records are applied in order, so a
// record can match one appended earlier in the same batch. The first entity
// in collection order wins when keys collide.
func fold[E, F any](
	existing []E,
	incoming []F,
	entityKey func(E) string,
	recordKey func(F) string,
	create func(F) E,
	update func(E, F) (E, bool),
) ([]E, Summary) {
	out := make([]E, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, e := range out {
		k := entityKey(e)
		if _, seen := index[k]; !seen {
			index[k] = i
		}
	}

	var sum Summary
	for _, rec := range incoming {
		k := recordKey(rec)
		i, ok := index[k]
		if !ok {
			out = append(out, create(rec))
			index[k] = len(out) - 1
			sum.Added++
			continue
		}
		updated, changed := update(out[i], rec)
		out[i] = updated
		if changed {
			sum.Updated++
		} else {
			sum.Unchanged++
		}
	}
	return out, sum
}

func normalizeKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x1f")
}

// changeSet accumulates "<Field> updated from A to B" lines.
type changeSet []string

func (c *changeSet) number(label string, from, to float64) {
	if to == 0 || from == to {
		return
	}
	*c = append(*c, label+" updated from "+utils.FormatNumber(from)+" to "+utils.FormatNumber(to))
}

func (c *changeSet) integer(label string, from, to int) {
	c.number(label, float64(from), float64(to))
}

func (c changeSet) String() string { return strings.Join(c, "; ") }

func pickString(existing, extracted string) string {
	if strings.TrimSpace(extracted) == "" {
		return existing
	}
	return extracted
}

func pickFloat(existing, extracted float64) float64 {
	if extracted == 0 {
		return existing
	}
	return extracted
}

func pickInt(existing, extracted int) int {
	if extracted == 0 {
		return existing
	}
	return extracted
}

func pickList(existing, extracted []string) []string {
	if len(extracted) == 0 {
		return existing
	}
	return append([]string(nil), extracted...)
}
