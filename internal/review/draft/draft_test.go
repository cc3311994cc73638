package draft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicehub-reviews/internal/common/errors"
	commonhttp "servicehub-reviews/internal/common/http"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/models"
	"servicehub-reviews/internal/review/category"
	"servicehub-reviews/internal/review/rating"
)

func validDraft() *Draft {
	d := New(DefaultLimits(), nil)
	d.SetRating(4)
	d.SetTitle("Reliable and tidy")
	d.SetContent("Arrived on time, fixed the boiler and cleaned up after.")
	return d
}

func codeFor(t *testing.T, d *Draft, field string) string {
	t.Helper()
	vr := d.Validate()
	errs := vr.GetErrorsForField(field)
	require.Len(t, errs, 1, "expected exactly one error for %s", field)
	return errs[0].Code
}

func TestNew_Defaults(t *testing.T) {
	d := New(DefaultLimits(), nil)
	assert.Equal(t, rating.Unset, d.Rating())
	assert.True(t, d.WouldRecommend())
	assert.False(t, d.IsEdit())
	assert.Zero(t, d.Categories().Len())
	assert.Zero(t, d.Photos().Len())
}

func TestSetRating_RoundTrip(t *testing.T) {
	d := New(DefaultLimits(), nil)
	for v := 1; v <= 5; v++ {
		d.SetRating(v)
		assert.Equal(t, rating.Rating(v), d.Rating())
		assert.Equal(t, rating.Rating(v), d.RatingWidget().Value())
	}

	d.SetRating(0)
	assert.Equal(t, rating.Unset, d.Rating())
}

func TestValidate_ValidDraft(t *testing.T) {
	vr := validDraft().Validate()
	assert.True(t, vr.Valid, vr.GetErrorMessages())
}

func TestValidate_RatingRequiredRegardlessOfOtherFields(t *testing.T) {
	d := validDraft()
	d.SetRating(0)
	assert.Equal(t, string(errors.ErrCodeRatingRequired), codeFor(t, d, FieldRating))

	d = New(DefaultLimits(), nil)
	vr := d.Validate()
	assert.True(t, vr.HasErrors(FieldRating))
	assert.Len(t, vr.Errors, 3)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(d *Draft)
		field string
		code  errors.ErrorCode
	}{
		{"rating out of range", func(d *Draft) { d.SetRating(7) }, FieldRating, errors.ErrCodeRatingOutOfRange},
		{"blank title", func(d *Draft) { d.SetTitle("   ") }, FieldTitle, errors.ErrCodeTitleRequired},
		{"long title", func(d *Draft) { d.SetTitle(strings.Repeat("t", 101)) }, FieldTitle, errors.ErrCodeTitleTooLong},
		{"blank content", func(d *Draft) { d.SetContent("\n\t ") }, FieldContent, errors.ErrCodeContentRequired},
		{"short content", func(d *Draft) { d.SetContent("Too short.") }, FieldContent, errors.ErrCodeContentTooShort},
		{"short after trim", func(d *Draft) { d.SetContent("  nineteen chars!!!  ") }, FieldContent, errors.ErrCodeContentTooShort},
		{"long content", func(d *Draft) { d.SetContent(strings.Repeat("c", 1001)) }, FieldContent, errors.ErrCodeContentTooLong},
		{"bad category", func(d *Draft) {
			require.NoError(t, d.LoadCategoryRatings(map[string]int{"timeliness": 0}))
		}, CategoryField(category.Timeliness), errors.ErrCodeInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(d)
			assert.Equal(t, string(tt.code), codeFor(t, d, tt.field))
		})
	}
}

func TestValidate_LengthsCountCharactersNotBytes(t *testing.T) {
	d := validDraft()
	d.SetTitle(strings.Repeat("é", 100))
	d.SetContent(strings.Repeat("ü", 20))
	assert.True(t, d.Validate().Valid)
}

func TestValidate_CustomLimits(t *testing.T) {
	d := New(Limits{TitleMaxLength: 10, ContentMinLength: 5, ContentMaxLength: 50}, nil)
	d.SetRating(3)
	d.SetTitle("Short one")
	d.SetContent("Fine.")
	assert.True(t, d.Validate().Valid)

	d.SetTitle("Far too long a title")
	assert.Equal(t, string(errors.ErrCodeTitleTooLong), codeFor(t, d, FieldTitle))
}

func TestEditingClearsSurfacedError(t *testing.T) {
	d := New(DefaultLimits(), nil)
	d.Validate()
	require.Contains(t, d.Errors(), FieldTitle)
	require.Contains(t, d.Errors(), FieldRating)

	d.SetTitle("x")
	assert.NotContains(t, d.Errors(), FieldTitle)

	require.NoError(t, d.RatingWidget().Click(5))
	assert.NotContains(t, d.Errors(), FieldRating)
	assert.Equal(t, rating.Rating(5), d.Rating())
	assert.Equal(t, rating.Rating(5), d.RatingWidget().Value(), "draft pushes the clicked value back to its widget")
	assert.Contains(t, d.Errors(), FieldContent)
}

func TestCategoryEditClearsItsError(t *testing.T) {
	d := validDraft()
	require.NoError(t, d.LoadCategoryRatings(map[string]int{"quality": 8}))
	d.Validate()
	require.Contains(t, d.Errors(), CategoryField(category.Quality))

	require.NoError(t, d.SetCategoryRating("quality", 4))
	assert.NotContains(t, d.Errors(), CategoryField(category.Quality))
	assert.True(t, d.Validate().Valid)
}

func TestSetCategoryRating_UnknownKey(t *testing.T) {
	d := validDraft()
	assert.ErrorIs(t, d.SetCategoryRating("price", 4), category.ErrUnknownCategory)
}

func TestFromReview_PrePopulates(t *testing.T) {
	src := &models.Review{
		ID:              "rev-1",
		JobID:           "job-1",
		RevieweeID:      "tradie-1",
		Rating:          3,
		Title:           "Okay job",
		Content:         "Did what was asked but left some mess behind.",
		CategoryRatings: map[string]int{"quality": 3, "communication": 5},
		Photos:          []string{"https://cdn.test/p1.jpg"},
		WouldRecommend:  false,
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	d, err := FromReview(src, DefaultLimits(), nil)
	require.NoError(t, err)

	assert.True(t, d.IsEdit())
	assert.Equal(t, "rev-1", d.ReviewID())
	assert.Equal(t, rating.Rating(3), d.Rating())
	assert.Equal(t, rating.Rating(3), d.RatingWidget().Value())
	assert.Equal(t, src.Title, d.Title())
	assert.Equal(t, src.Content, d.Content())
	assert.False(t, d.WouldRecommend())
	assert.Equal(t, src.CategoryRatings, d.Categories().Map())
	assert.Equal(t, src.Photos, d.Photos().DataURIs())

	p := d.Payload(src.JobID, src.RevieweeID)
	assert.Equal(t, src.Rating, p.Rating)
	assert.Equal(t, src.Photos, p.Photos)
}

func TestPayload(t *testing.T) {
	d := validDraft()
	require.NoError(t, d.SetCategoryRating("value_for_money", 5))
	d.SetWouldRecommend(false)

	p := d.Payload("job-7", "tradie-3")
	assert.Equal(t, models.ReviewPayload{
		JobID:           "job-7",
		RevieweeID:      "tradie-3",
		Rating:          4,
		Title:           "Reliable and tidy",
		Content:         "Arrived on time, fixed the boiler and cleaned up after.",
		CategoryRatings: map[string]int{"value_for_money": 5},
		Photos:          []string{},
		WouldRecommend:  false,
	}, p)
}

func TestPayload_PaddedFieldsAtLimitReachStore(t *testing.T) {
	title := strings.Repeat("t", 100)
	content := strings.Repeat("c", 1000)

	d := New(DefaultLimits(), nil)
	d.SetRating(5)
	d.SetTitle(" " + title + " ")
	d.SetContent(content + "\n")
	vr := d.Validate()
	require.True(t, vr.Valid, vr.GetErrorMessages())

	var got models.ReviewPayload
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "rev-1", "job_id": got.JobID, "reviewee_id": got.RevieweeID,
			"rating": got.Rating, "title": got.Title, "content": got.Content,
			"category_ratings": got.CategoryRatings, "photos": got.Photos,
			"would_recommend": got.WouldRecommend,
		})
	}))
	defer srv.Close()

	store := commonhttp.NewReviewStoreClient(commonhttp.ReviewStoreOptions{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, logger.NewTestLogger(t))

	review, err := store.Create(context.Background(), d.Payload("job-1", "tradie-2"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, title, review.Title)
	assert.Equal(t, content, review.Content)
}

func TestConsume(t *testing.T) {
	d := validDraft()
	d.Photos().Preload([]string{"https://cdn.test/a.jpg"})
	d.Consume()
	assert.True(t, d.Consumed())
	assert.Zero(t, d.Photos().Len())
}
