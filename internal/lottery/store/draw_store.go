package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/jackc/pgx/v5"
)

type DrawStore struct {
	db DBTX
}

func NewDrawStore(db DBTX) *DrawStore {
	return &DrawStore{db: db}
}

const drawColumns = `id, game_id, draw_datetime, notified, image, created_at, updated_at`

func scanDraw(row pgx.Row) (*models.Draw, error) {
	var (
		draw models.Draw
		at   time.Time
	)
	err := row.Scan(
		&draw.ID,
		&draw.GameID,
		&at,
		&draw.Notified,
		&draw.Image,
		&draw.CreatedAt,
		&draw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	draw.DrawDatetime = models.NewLocalDateTime(at)
	return &draw, nil
}

func (s *DrawStore) collect(rows pgx.Rows) ([]models.Draw, error) {
	defer rows.Close()

	draws := []models.Draw{}
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, *draw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return draws, nil
}

func (s *DrawStore) List(ctx context.Context) ([]models.Draw, error) {
	rows, err := s.db.Query(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	return s.collect(rows)
}

// Create does not verify the game; draws_game_id_fkey rejects a missing one
// with ErrForeignKeyViolation.
func (s *DrawStore) Create(ctx context.Context, gameID int64, at models.LocalDateTime, image *string) (*models.Draw, error) {
	draw, err := scanDraw(s.db.QueryRow(ctx, `
		INSERT INTO draws (game_id, draw_datetime, image)
		VALUES ($1, $2, $3)
		RETURNING `+drawColumns,
		gameID, models.Naive(at.Time), image))
	if err != nil {
		return nil, fmt.Errorf("failed to create draw: %w", mapPgError(err))
	}
	return draw, nil
}

// ListDue returns pending draws scheduled at or before cutoff, oldest first.
func (s *DrawStore) ListDue(ctx context.Context, cutoff models.LocalDateTime, limit int) ([]models.Draw, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+drawColumns+`
		FROM draws
		WHERE notified = FALSE
		  AND draw_datetime <= $1
		ORDER BY draw_datetime, id
		LIMIT $2
	`, models.Naive(cutoff.Time), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due draws: %w", err)
	}
	return s.collect(rows)
}

// LockPending row-locks the draw if it is still pending. A draw that is
// notified already, or locked by another notifier, yields nil, nil.
func (s *DrawStore) LockPending(ctx context.Context, id int64) (*models.Draw, error) {
	draw, err := scanDraw(s.db.QueryRow(ctx, `
		SELECT `+drawColumns+`
		FROM draws
		WHERE id = $1
		  AND notified = FALSE
		FOR UPDATE SKIP LOCKED
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock draw %d: %w", id, err)
	}
	return draw, nil
}

// MarkNotified only flips false to true and reports whether it did.
func (s *DrawStore) MarkNotified(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE draws
		SET notified = TRUE, updated_at = now()
		WHERE id = $1
		  AND notified = FALSE
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark draw %d notified: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
