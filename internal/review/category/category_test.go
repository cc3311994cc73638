package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicehub-reviews/internal/review/rating"
)

type change struct {
	c Category
	v rating.Rating
}

func TestLabelsInDisplayOrder(t *testing.T) {
	want := []string{"Quality of Work", "Timeliness", "Communication", "Professionalism", "Value for Money"}
	got := make([]string, 0, len(All))
	for _, c := range All {
		got = append(got, c.Label())
	}
	assert.Equal(t, want, got)
}

func TestParse(t *testing.T) {
	c, err := Parse("value_for_money")
	require.NoError(t, err)
	assert.Equal(t, ValueForMoney, c)

	_, err = Parse("price")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSet_IndependentCategories(t *testing.T) {
	var changes []change
	s := NewSet(func(c Category, v rating.Rating) { changes = append(changes, change{c, v}) })

	require.NoError(t, s.Set(Quality, 5))
	require.NoError(t, s.Set(Timeliness, 2))

	q, ok := s.Get(Quality)
	assert.True(t, ok)
	assert.Equal(t, rating.Rating(5), q)

	_, ok = s.Get(Communication)
	assert.False(t, ok, "untouched category must read as not rated")

	assert.Equal(t, []change{{Quality, 5}, {Timeliness, 2}}, changes)
	assert.Equal(t, rating.Rating(5), s.Widget(Quality).Value())
}

func TestSet_RejectsUnknownAndOutOfRange(t *testing.T) {
	s := NewSet(nil)

	assert.ErrorIs(t, s.Set(Category("price"), 3), ErrUnknownCategory)
	assert.ErrorIs(t, s.Set(Quality, 6), rating.ErrOutOfRange)
	assert.Zero(t, s.Len())
}

func TestSet_Clear(t *testing.T) {
	var changes []change
	s := NewSet(func(c Category, v rating.Rating) { changes = append(changes, change{c, v}) })
	require.NoError(t, s.Set(Professionalism, 4))

	s.Clear(Professionalism)
	_, ok := s.Get(Professionalism)
	assert.False(t, ok)
	assert.Equal(t, rating.Unset, s.Widget(Professionalism).Value())
	assert.Equal(t, change{Professionalism, rating.Unset}, changes[len(changes)-1])

	s.Clear(Professionalism)
	assert.Len(t, changes, 2, "clearing an unset category does not notify")
}

func TestSet_AverageIgnoresUnset(t *testing.T) {
	s := NewSet(nil)

	_, ok := s.Average()
	assert.False(t, ok)

	require.NoError(t, s.Set(Quality, 5))
	require.NoError(t, s.Set(Communication, 2))

	avg, ok := s.Average()
	assert.True(t, ok)
	assert.InDelta(t, 3.5, avg, 0.0001)
}

func TestSet_LoadKeepsRawValues(t *testing.T) {
	s := NewSet(nil)

	err := s.Load(map[string]int{"quality": 4, "timeliness": 9, "price": 3})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), "price")

	assert.Equal(t, []Category{Timeliness}, s.Invalid())
	assert.Equal(t, map[string]int{"quality": 4, "timeliness": 9}, s.Map())
	assert.Equal(t, rating.Rating(4), s.Widget(Quality).Value())
	assert.Equal(t, rating.Unset, s.Widget(Timeliness).Value())

	avg, ok := s.Average()
	assert.True(t, ok)
	assert.InDelta(t, 4.0, avg, 0.0001)
}

func TestSet_MapNeverNil(t *testing.T) {
	assert.NotNil(t, NewSet(nil).Map())
}
