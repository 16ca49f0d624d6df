package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/jackc/pgx/v5"
)

type GameStore struct {
	db DBTX
}

func NewGameStore(db DBTX) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, name, description, image, created_at, updated_at`

func scanGame(row pgx.Row) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.Description,
		&game.Image,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *GameStore) List(ctx context.Context) ([]models.Game, error) {
	rows, err := s.db.Query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return games, nil
}

// GetByName returns nil, nil when no game has that exact name.
func (s *GameStore) GetByName(ctx context.Context, name string) (*models.Game, error) {
	game, err := scanGame(s.db.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE name = $1
	`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game by name: %w", err)
	}
	return game, nil
}

// GetByID returns nil, nil when the game does not exist.
func (s *GameStore) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	game, err := scanGame(s.db.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return game, nil
}

// Create does not check the name; games_name_key rejects duplicates with
// ErrUniqueViolation.
func (s *GameStore) Create(ctx context.Context, name string, description, image *string) (*models.Game, error) {
	game, err := scanGame(s.db.QueryRow(ctx, `
		INSERT INTO games (name, description, image)
		VALUES ($1, $2, $3)
		RETURNING `+gameColumns,
		name, description, image))
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", mapPgError(err))
	}
	return game, nil
}

// Delete removes the game and, through ON DELETE CASCADE, its draws and
// their results. It reports whether a row was removed.
func (s *GameStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete game: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
