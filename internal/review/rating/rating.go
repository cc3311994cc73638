// Package rating implements the 1-5 star rating value and its interactive widget contract.
package rating

import (
	"errors"
	"fmt"
	"sync"
)

// Rating is a whole-star rating. Zero means unset.
type Rating int

const (
	Unset Rating = 0
	Min   Rating = 1
	Max   Rating = 5

	// Stars is the number of indicators a widget renders.
	Stars = 5
)

var (
	ErrOutOfRange = errors.New("RATING_OUT_OF_RANGE")
	ErrReadOnly   = errors.New("RATING_READ_ONLY")
)

func (r Rating) IsSet() bool { return r != Unset }

func (r Rating) Valid() bool { return r >= Min && r <= Max }

// Parse converts an untrusted integer into a Rating; 0 is accepted as Unset.
func Parse(v int) (Rating, error) {
	r := Rating(v)
	if r == Unset || r.Valid() {
		return r, nil
	}
	return Unset, fmt.Errorf("%w: %d", ErrOutOfRange, v)
}

// StarState is what a single star indicator shows.
type StarState int

const (
	StarEmpty StarState = iota
	StarFilled
	StarHovered
)

func (s StarState) String() string {
	switch s {
	case StarFilled:
		return "filled"
	case StarHovered:
		return "hovered"
	default:
		return "empty"
	}
}

// Widget holds the committed value and transient hover state of one star row.
// An owned widget (non-nil onChange) never commits on its own: a click is signalled upward
// and the value shown only changes once the owner pushes it back with Sync.
type Widget struct {
	mu          sync.Mutex
	committed   Rating
	hover       Rating
	interactive bool
	onChange    func(Rating)
}

// NewWidget builds a widget. A nil onChange is allowed for display-only rows.
func NewWidget(value Rating, interactive bool, onChange func(Rating)) *Widget {
	if !value.Valid() {
		value = Unset
	}
	return &Widget{
		committed:   value,
		interactive: interactive,
		onChange:    onChange,
	}
}

func (w *Widget) Value() Rating {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.committed
}

func (w *Widget) Interactive() bool { return w.interactive }

// Display returns the value currently shown: the hovered star if any, else the committed value.
func (w *Widget) Display() Rating {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.display()
}

func (w *Widget) display() Rating {
	if w.hover != Unset {
		return w.hover
	}
	return w.committed
}

// Hover previews star k (1-based). Ignored for display-only widgets and out-of-range k.
func (w *Widget) Hover(k int) {
	if !w.interactive || !Rating(k).Valid() {
		return
	}
	w.mu.Lock()
	w.hover = Rating(k)
	w.mu.Unlock()
}

// Leave ends the hover preview.
func (w *Widget) Leave() {
	w.mu.Lock()
	w.hover = Unset
	w.mu.Unlock()
}

// Click commits star k.
func (w *Widget) Click(k int) error {
	return w.SetValue(k)
}

// SetValue requests v. With an owner the request is only signalled through onChange;
// a widget without one commits v itself.
func (w *Widget) SetValue(v int) error {
	if !w.interactive {
		return ErrReadOnly
	}
	r := Rating(v)
	if !r.Valid() {
		return fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}

	w.mu.Lock()
	w.hover = Unset
	cb := w.onChange
	if cb == nil {
		w.committed = r
	}
	w.mu.Unlock()

	if cb != nil {
		cb(r)
	}
	return nil
}

// Sync replaces the committed value without notifying, for owners pushing state down.
func (w *Widget) Sync(r Rating) {
	if r != Unset && !r.Valid() {
		return
	}
	w.mu.Lock()
	w.committed = r
	w.mu.Unlock()
}

// Render returns the five indicators for the current display value.
func (w *Widget) Render() [Stars]StarState {
	w.mu.Lock()
	hovering := w.hover != Unset
	shown := w.display()
	w.mu.Unlock()

	on := StarFilled
	if hovering {
		on = StarHovered
	}
	var out [Stars]StarState
	for i := 0; i < Stars; i++ {
		if Rating(i+1) <= shown {
			out[i] = on
		}
	}
	return out
}

// RenderAverage renders a fractional average for display-only contexts; a star is filled
// when its index does not exceed the average.
func RenderAverage(avg float64) [Stars]StarState {
	var out [Stars]StarState
	for i := 0; i < Stars; i++ {
		if float64(i+1) <= avg {
			out[i] = StarFilled
		}
	}
	return out
}

// Label formats a value for display next to the stars.
func Label(v float64) string {
	if v <= 0 {
		return "No rating"
	}
	return fmt.Sprintf("%.1f", v)
}
