package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// inTx runs fn in a transaction from the order repository, committing on
// success and rolling back otherwise.
func (s *statusService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// wrapUnlessDomain passes domain errors through unchanged so handlers can
// map them, and wraps anything else.
func wrapUnlessDomain(err error, msg string) error {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
