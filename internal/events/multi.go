package events

import (
	"context"
	"errors"
)

// Publisher matches report.EventPublisher.
type Publisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}

// Multi publishes to every target and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, typ, key string, payload any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, typ, key, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
