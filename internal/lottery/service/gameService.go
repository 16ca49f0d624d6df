package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/store"
)

type GameInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

type GameService struct {
	tx Transactor
}

func NewGameService(tx Transactor) *GameService {
	return &GameService{tx: tx}
}

func (s *GameService) ListGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		var err error
		games, err = repos.Games().List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

// CreateGame inserts a game with a unique name. The name lookup only gives a
// clean error; games_name_key decides when two creators race.
func (s *GameService) CreateGame(ctx context.Context, in GameInput) (*models.Game, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > models.MaxGameNameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", ErrValidation, models.MaxGameNameLength)
	}

	var game *models.Game
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		existing, err := repos.Games().GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: game %q already exists", ErrConflict, name)
		}

		game, err = repos.Games().Create(ctx, name, in.Description, in.Image)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: game %q already exists", ErrConflict, name)
		}
		return nil, err
	}
	return game, nil
}

// DeleteGame reports whether a game was removed. Its draws and results go
// with it.
func (s *GameService) DeleteGame(ctx context.Context, id int64) (bool, error) {
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		deleted, err := repos.Games().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
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
