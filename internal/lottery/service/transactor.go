package service

import (
	"context"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/store"
)

type GameRepository interface {
	List(ctx context.Context) ([]models.Game, error)
	GetByName(ctx context.Context, name string) (*models.Game, error)
	GetByID(ctx context.Context, id int64) (*models.Game, error)
	Create(ctx context.Context, name string, description, image *string) (*models.Game, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type DrawRepository interface {
	List(ctx context.Context) ([]models.Draw, error)
	Create(ctx context.Context, gameID int64, at models.LocalDateTime, image *string) (*models.Draw, error)
	ListDue(ctx context.Context, cutoff models.LocalDateTime, limit int) ([]models.Draw, error)
	LockPending(ctx context.Context, id int64) (*models.Draw, error)
	MarkNotified(ctx context.Context, id int64) (bool, error)
}

// Repositories are the stores bound to one transaction.
type Repositories interface {
	Games() GameRepository
	Draws() DrawRepository
}

// Transactor runs fn atomically: everything fn wrote is committed when it
// returns nil and discarded otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type pgTransactor struct {
	store *store.Store
}

func NewPgTransactor(s *store.Store) Transactor {
	return &pgTransactor{store: s}
}

func (p *pgTransactor) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	return p.store.WithinTx(ctx, func(tx *store.Tx) error {
		return fn(pgRepositories{tx: tx})
	})
}

type pgRepositories struct {
	tx *store.Tx
}

func (r pgRepositories) Games() GameRepository { return r.tx.Games() }
func (r pgRepositories) Draws() DrawRepository { return r.tx.Draws() }
