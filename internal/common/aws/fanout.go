package aws

import (
	"context"
	stderrors "errors"

	"servicehub-reviews/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, event models.ReviewEvent) (string, error)
}

// Fanout delivers an event to every publisher. It returns the first non-empty
// message id and the joined errors of the publishers that failed.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event models.ReviewEvent) (string, error) {
	var (
		id   string
		errs []error
	)
	for _, p := range f {
		msgID, err := p.Publish(ctx, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id == "" {
			id = msgID
		}
	}
	return id, stderrors.Join(errs...)
}
