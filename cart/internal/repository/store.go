package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/internal/log"
	commonOtel "github.com/Alturino/storefront/internal/otel"
)

type Store struct {
	*Queries
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

func (s *Store) ExecTx(c context.Context, fn func(store.Querier) error) (err error) {
	c, span := otel.Tracer.Start(c, "Store ExecTx")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store ExecTx").
		Str(log.KeyProcess, "initializing transaction").
		Logger()

	logger.Trace().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.NotDeferrable,
	})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("initialized transaction")
	defer func(lg zerolog.Logger) {
		l := lg.With().Str(log.KeyProcess, "rolling back transaction").Logger()
		rbErr := tx.Rollback(c)
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			rbErr = fmt.Errorf("failed rolling back transaction with error=%w", rbErr)
			commonOtel.RecordError(rbErr, span)
			l.Error().Err(rbErr).Msg(rbErr.Error())
			return
		}
		if rbErr == nil {
			l.Trace().Msg("rolled back transaction")
		}
	}(logger)

	if err = fn(s.WithTx(tx)); err != nil {
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("committed transaction")

	return nil
}
