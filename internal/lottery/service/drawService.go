package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/store"
)

type DrawInput struct {
	GameID       int64                `json:"game_id"`
	DrawDatetime models.LocalDateTime `json:"draw_datetime"`
	Image        *string              `json:"image"`
}

type DrawService struct {
	tx Transactor
}

func NewDrawService(tx Transactor) *DrawService {
	return &DrawService{tx: tx}
}

func (s *DrawService) ListDraws(ctx context.Context) ([]models.Draw, error) {
	var draws []models.Draw
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		var err error
		draws, err = repos.Draws().List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return draws, nil
}

// CreateDraw schedules a draw for an existing game. The date-time is stored
// as naive wall clock.
func (s *DrawService) CreateDraw(ctx context.Context, in DrawInput) (*models.Draw, error) {
	if in.DrawDatetime.IsZero() {
		return nil, fmt.Errorf("%w: draw_datetime is required", ErrValidation)
	}
	at := models.NewLocalDateTime(in.DrawDatetime.Time)

	var draw *models.Draw
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		game, err := repos.Games().GetByID(ctx, in.GameID)
		if err != nil {
			return err
		}
		if game == nil {
			return fmt.Errorf("%w: game %d", ErrNotFound, in.GameID)
		}

		draw, err = repos.Draws().Create(ctx, game.ID, at, in.Image)
		return err
	})
	if err != nil {
		// game removed between the lookup and the insert
		if errors.Is(err, store.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: game %d", ErrNotFound, in.GameID)
		}
		return nil, err
	}
	return draw, nil
}

// DueDraws lists pending draws scheduled at or before cutoff.
func (s *DrawService) DueDraws(ctx context.Context, cutoff models.LocalDateTime, limit int) ([]models.Draw, error) {
	var draws []models.Draw
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		var err error
		draws, err = repos.Draws().ListDue(ctx, cutoff, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return draws, nil
}

// NotifyDraw delivers a pending draw and flips its notified flag in one
// transaction. It returns false without calling deliver when the draw is
// already notified, gone, or being handled elsewhere. A deliver error leaves
// the draw pending.
func (s *DrawService) NotifyDraw(ctx context.Context, id int64, deliver func(models.Draw) error) (bool, error) {
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		draw, err := repos.Draws().LockPending(ctx, id)
		if err != nil {
			return err
		}
		if draw == nil {
			return errNoop
		}

		if err := deliver(*draw); err != nil {
			return fmt.Errorf("deliver draw %d: %w", id, err)
		}

		marked, err := repos.Draws().MarkNotified(ctx, id)
		if err != nil {
			return err
		}
		if !marked {
			return errNoop
		}
		return nil
	})
	if errors.Is(err, errNoop) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
