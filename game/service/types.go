package service

import (
	"time"

	"github.com/wricardo/elementcapture/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Board          *engine.BoardView  `json:"board"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// TapResponse contains the outcome of one tap and the board after it
type TapResponse struct {
	Result engine.TapResult  `json:"result"`
	Board  *engine.BoardView `json:"board"`
	Events []GameEvent       `json:"events"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string             `json:"type"` // "selected", "deselected", "captured", "ignored", "turn", "reset"
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Coord     *engine.Coordinate `json:"coord,omitempty"`
}

// TileInfo describes a tile and what it could do if selected now
type TileInfo struct {
	Tile      engine.TileView   `json:"tile"`
	Beats     engine.Element    `json:"beats"`
	BeatenBy  engine.Element    `json:"beaten_by"`
	Neighbors []engine.TileView `json:"neighbors"`
	// Targets lists neighbours this tile's element could capture
	Targets []engine.Coordinate `json:"targets"`
}

// HistoryOptions configures capture history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated capture history
type HistoryResponse struct {
	Captures      []engine.CaptureEntry `json:"captures"`
	TotalCaptures int                   `json:"total_captures"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
	TotalPages    int                   `json:"total_pages"`
	HasNext       bool                  `json:"has_next"`
	HasPrevious   bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a board configuration
type ConfigInfo struct {
	Filename      string       `json:"filename"`
	ConfigID      string       `json:"config_id"` // The identifier to use for session creation
	Name          string       `json:"name"`      // Display name
	Description   string       `json:"description"`
	Rows          int          `json:"rows"`
	Cols          int          `json:"cols"`
	ElementPolicy string       `json:"element_policy"`
	FirstPlayer   engine.Owner `json:"first_player"`
}
