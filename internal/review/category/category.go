// Package category holds the per-category sub-ratings of a review.
package category

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"servicehub-reviews/internal/review/rating"
)

type Category string

const (
	Quality         Category = "quality"
	Timeliness      Category = "timeliness"
	Communication   Category = "communication"
	Professionalism Category = "professionalism"
	ValueForMoney   Category = "value_for_money"
)

// All is the fixed display order.
var All = []Category{Quality, Timeliness, Communication, Professionalism, ValueForMoney}

var labels = map[Category]string{
	Quality:         "Quality of Work",
	Timeliness:      "Timeliness",
	Communication:   "Communication",
	Professionalism: "Professionalism",
	ValueForMoney:   "Value for Money",
}

var ErrUnknownCategory = errors.New("UNKNOWN_CATEGORY")

func (c Category) Label() string { return labels[c] }

func (c Category) Known() bool {
	_, ok := labels[c]
	return ok
}

func Parse(key string) (Category, error) {
	c := Category(key)
	if !c.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}
	return c, nil
}

// ChangeFunc is called after a category value is committed or cleared (value Unset).
type ChangeFunc func(c Category, value rating.Rating)

// Set maps categories to independent ratings. Absent means not rated.
type Set struct {
	mu       sync.Mutex
	values   map[Category]int
	widgets  map[Category]*rating.Widget
	onChange ChangeFunc
}

func NewSet(onChange ChangeFunc) *Set {
	s := &Set{
		values:   make(map[Category]int, len(All)),
		widgets:  make(map[Category]*rating.Widget, len(All)),
		onChange: onChange,
	}
	for _, c := range All {
		c := c
		s.widgets[c] = rating.NewWidget(rating.Unset, true, func(r rating.Rating) {
			s.record(c, r)
		})
	}
	return s
}

// Widget returns the star row bound to c, or nil for unknown categories.
func (s *Set) Widget(c Category) *rating.Widget {
	return s.widgets[c]
}

// Set commits value v for category c through its widget.
func (s *Set) Set(c Category, v int) error {
	w, ok := s.widgets[c]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return w.SetValue(v)
}

func (s *Set) record(c Category, r rating.Rating) {
	s.mu.Lock()
	s.values[c] = int(r)
	cb := s.onChange
	s.mu.Unlock()

	s.widgets[c].Sync(r)

	if cb != nil {
		cb(c, r)
	}
}

func (s *Set) Get(c Category) (rating.Rating, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[c]
	return rating.Rating(v), ok
}

func (s *Set) Clear(c Category) {
	s.mu.Lock()
	_, had := s.values[c]
	delete(s.values, c)
	cb := s.onChange
	s.mu.Unlock()

	if w, ok := s.widgets[c]; ok {
		w.Sync(rating.Unset)
	}
	if had && cb != nil {
		cb(c, rating.Unset)
	}
}

// Load replaces the set's contents with raw values from an untrusted source such as a
// persisted review or job variables. Values are stored as given so that validation can
// report out-of-range entries; unknown keys are skipped and reported.
func (s *Set) Load(values map[string]int) error {
	var unknown []string

	s.mu.Lock()
	s.values = make(map[Category]int, len(values))
	for key, v := range values {
		c := Category(key)
		if !c.Known() {
			unknown = append(unknown, key)
			continue
		}
		s.values[c] = v
	}
	s.mu.Unlock()

	for c, w := range s.widgets {
		v, ok := s.lookup(c)
		if ok && rating.Rating(v).Valid() {
			w.Sync(rating.Rating(v))
		} else {
			w.Sync(rating.Unset)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownCategory, strings.Join(unknown, ", "))
	}
	return nil
}

func (s *Set) lookup(c Category) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[c]
	return v, ok
}

// Invalid lists categories holding a value outside 1..5, in display order.
func (s *Set) Invalid() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Category
	for _, c := range All {
		if v, ok := s.values[c]; ok && !rating.Rating(v).Valid() {
			out = append(out, c)
		}
	}
	return out
}

// Average of the rated categories only. Unset categories do not count as zero.
func (s *Set) Average() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, n := 0, 0
	for _, v := range s.values {
		if rating.Rating(v).Valid() {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Map returns the wire form keyed by category key. Never nil.
func (s *Set) Map() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.values))
	for c, v := range s.values {
		out[string(c)] = v
	}
	return out
}
