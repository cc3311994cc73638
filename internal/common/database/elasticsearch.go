// internal/common/database/elasticsearch.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"servicehub-reviews/internal/common/config"
	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/models"
)

// NewElasticsearch builds a client for the review search index.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return es, nil
}

// ReviewDocument is the indexed shape of a review. Photos are not indexed, only counted.
type ReviewDocument struct {
	ID              string         `json:"id"`
	JobID           string         `json:"job_id"`
	ReviewerID      string         `json:"reviewer_id,omitempty"`
	RevieweeID      string         `json:"reviewee_id"`
	Rating          int            `json:"rating"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	CategoryRatings map[string]int `json:"category_ratings,omitempty"`
	WouldRecommend  bool           `json:"would_recommend"`
	PhotoCount      int            `json:"photo_count"`
	CreatedAt       time.Time      `json:"created_at"`
}

func NewReviewDocument(r models.Review) ReviewDocument {
	return ReviewDocument{
		ID:              r.ID,
		JobID:           r.JobID,
		ReviewerID:      r.ReviewerID,
		RevieweeID:      r.RevieweeID,
		Rating:          r.Rating,
		Title:           r.Title,
		Content:         r.Content,
		CategoryRatings: r.CategoryRatings,
		WouldRecommend:  r.WouldRecommend,
		PhotoCount:      len(r.Photos),
		CreatedAt:       r.CreatedAt,
	}
}

// ReviewIndex writes reviews to Elasticsearch and aggregates them back into summaries.
type ReviewIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewReviewIndex(client *elasticsearch.Client, index string) *ReviewIndex {
	if index == "" {
		index = "reviews"
	}
	return &ReviewIndex{client: client, index: index}
}

// IndexReview upserts the review keyed by its id.
func (x *ReviewIndex) IndexReview(ctx context.Context, r models.Review) error {
	body, err := json.Marshal(NewReviewDocument(r))
	if err != nil {
		return errors.NewIndexFailedError(r.ID, err)
	}

	res, err := x.client.Index(
		x.index,
		bytes.NewReader(body),
		x.client.Index.WithDocumentID(r.ID),
		x.client.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.NewIndexFailedError(r.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexFailedError(r.ID, fmt.Errorf("status %s: %s", res.Status(), readBody(res.Body)))
	}
	return nil
}

func summaryQuery(revieweeID string) map[string]interface{} {
	return map[string]interface{}{
		"size":             0,
		"track_total_hits": true,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"reviewee_id": revieweeID}},
					map[string]interface{}{"range": map[string]interface{}{"rating": map[string]interface{}{"gte": 1, "lte": 5}}},
				},
			},
		},
		"aggs": map[string]interface{}{
			"avg_rating": map[string]interface{}{"avg": map[string]interface{}{"field": "rating"}},
			"by_rating":  map[string]interface{}{"terms": map[string]interface{}{"field": "rating", "size": 5}},
		},
	}
}

type summaryResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
	} `json:"hits"`
	Aggregations struct {
		AvgRating struct {
			Value *float64 `json:"value"`
		} `json:"avg_rating"`
		ByRating struct {
			Buckets []struct {
				Key      float64 `json:"key"`
				DocCount int     `json:"doc_count"`
			} `json:"buckets"`
		} `json:"by_rating"`
	} `json:"aggregations"`
}

// Summary aggregates the indexed reviews of revieweeID.
func (x *ReviewIndex) Summary(ctx context.Context, revieweeID string) (*models.RatingSummary, error) {
	body, err := json.Marshal(summaryQuery(revieweeID))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("rating_summary", err)
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("rating_summary", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("rating_summary",
			fmt.Errorf("status %s: %s", res.Status(), readBody(res.Body)))
	}

	var parsed summaryResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("rating_summary", err)
	}

	summary := &models.RatingSummary{
		TotalReviews:       parsed.Hits.Total.Value,
		RatingDistribution: make(map[int]int, 5),
	}
	if parsed.Aggregations.AvgRating.Value != nil {
		summary.AverageRating = *parsed.Aggregations.AvgRating.Value
	}
	for _, b := range parsed.Aggregations.ByRating.Buckets {
		summary.RatingDistribution[int(b.Key)] = b.DocCount
	}
	return summary, nil
}

// Ping checks the cluster is reachable.
func (x *ReviewIndex) Ping(ctx context.Context) error {
	res, err := x.client.Ping(x.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}
