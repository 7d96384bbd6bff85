package storage

import (
	"context"
	"errors"

	"pairAlert/internal/model"
)

// Journal records the outcome of each handled event.
type Journal interface {
	PutAlert(ctx context.Context, record model.AlertRecord) error
}

// Multi fans a record out to several journals and joins their errors.
type Multi []Journal

func (m Multi) PutAlert(ctx context.Context, record model.AlertRecord) error {
	var errs []error
	for _, journal := range m {
		if journal == nil {
			continue
		}
		if err := journal.PutAlert(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
