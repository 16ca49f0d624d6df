package models

import "time"

type Draw struct {
	ID           int64         `json:"id"`            // Primary key
	GameID       int64         `json:"game_id"`       // FK to games(id), ON DELETE CASCADE
	DrawDatetime LocalDateTime `json:"draw_datetime"` // Naive wall clock
	Notified     bool          `json:"notified"`      // Set once by the notifier
	Image        *string       `json:"image"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
