package models

import "time"

// MaxGameNameLength matches the games.name column width.
const MaxGameNameLength = 100

type Game struct {
	ID          int64     `json:"id"`          // Primary key
	Name        string    `json:"name"`        // Unique, see games_name_key
	Description *string   `json:"description"` // Optional
	Image       *string   `json:"image"`       // Asset reference, file itself is stored elsewhere
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
