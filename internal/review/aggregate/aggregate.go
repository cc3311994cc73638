// Package aggregate derives rating summaries and their display model from stored reviews.
package aggregate

import (
	"fmt"
	"math"

	"servicehub-reviews/internal/models"
	"servicehub-reviews/internal/review/category"
	"servicehub-reviews/internal/review/rating"
)

// Bar is one row of the distribution histogram.
type Bar struct {
	Stars   int     `json:"stars"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Display is everything needed to render a rating summary.
type Display struct {
	Average     float64                        `json:"averageRating"`
	AverageText string                         `json:"averageText"`
	Stars       [rating.Stars]rating.StarState `json:"-"`
	Total       int                            `json:"totalReviews"`
	Label       string                         `json:"label"`
	Bars        []Bar                          `json:"bars"`
}

type Aggregator struct {
	summary    models.RatingSummary
	categories map[category.Category]float64
	recommend  int
}

// FromSummary wraps a precomputed summary from the Review Store. A summary that
// carries reviews but no average gets one derived from its distribution.
func FromSummary(s models.RatingSummary) *Aggregator {
	dist := make(map[int]int, rating.Stars)
	weighted := 0
	for star, n := range s.RatingDistribution {
		dist[star] = n
		if rating.Rating(star).Valid() && n > 0 {
			weighted += star * n
		}
	}
	s.RatingDistribution = dist
	if s.AverageRating == 0 && s.TotalReviews > 0 {
		s.AverageRating = float64(weighted) / float64(s.TotalReviews)
	}
	return &Aggregator{summary: s}
}

// FromReviews computes the summary from raw reviews. Reviews with an out-of-range rating are skipped.
func FromReviews(reviews []models.Review) *Aggregator {
	dist := make(map[int]int, rating.Stars)
	sum, total := 0, 0

	catSum := make(map[category.Category]int)
	catN := make(map[category.Category]int)
	recommend := 0

	for _, r := range reviews {
		if !rating.Rating(r.Rating).Valid() {
			continue
		}
		dist[r.Rating]++
		sum += r.Rating
		total++
		if r.WouldRecommend {
			recommend++
		}
		for key, v := range r.CategoryRatings {
			c := category.Category(key)
			if !c.Known() || !rating.Rating(v).Valid() {
				continue
			}
			catSum[c] += v
			catN[c]++
		}
	}

	avg := 0.0
	if total > 0 {
		avg = float64(sum) / float64(total)
	}

	cats := make(map[category.Category]float64, len(catN))
	for c, n := range catN {
		cats[c] = float64(catSum[c]) / float64(n)
	}

	return &Aggregator{
		summary: models.RatingSummary{
			AverageRating:      avg,
			TotalReviews:       total,
			RatingDistribution: dist,
		},
		categories: cats,
		recommend:  recommend,
	}
}

func (a *Aggregator) Summary() models.RatingSummary {
	return a.summary
}

// CategoryAverages returns per-category averages over the reviews that rated that category.
// Empty for aggregators built from a precomputed summary.
func (a *Aggregator) CategoryAverages() map[category.Category]float64 {
	out := make(map[category.Category]float64, len(a.categories))
	for c, v := range a.categories {
		out[c] = v
	}
	return out
}

// RecommendPercent is the share of reviews that would recommend, 0 when unknown.
func (a *Aggregator) RecommendPercent() float64 {
	if a.summary.TotalReviews == 0 || a.categories == nil {
		return 0
	}
	return float64(a.recommend) / float64(a.summary.TotalReviews) * 100
}

func (a *Aggregator) Display() Display {
	total := a.summary.TotalReviews
	d := Display{
		Average:     a.summary.AverageRating,
		AverageText: AverageText(a.summary.AverageRating, total),
		Total:       total,
		Label:       CountLabel(total),
		Bars:        make([]Bar, 0, rating.Stars),
	}
	if total > 0 {
		d.Stars = rating.RenderAverage(a.summary.AverageRating)
	}

	for star := int(rating.Max); star >= int(rating.Min); star-- {
		n := a.summary.RatingDistribution[star]
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		d.Bars = append(d.Bars, Bar{Stars: star, Count: n, Percent: pct})
	}
	return d
}

// AverageText formats the average to one decimal, or "N/A" when there are no reviews.
func AverageText(avg float64, total int) string {
	if total == 0 || math.IsNaN(avg) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", avg)
}

func CountLabel(total int) string {
	if total == 1 {
		return "1 review"
	}
	return fmt.Sprintf("%d reviews", total)
}
