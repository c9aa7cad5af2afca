package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/elementcapture/game/engine"
)

var (
	// ErrSessionNotFound is returned for unknown session IDs
	ErrSessionNotFound = errors.New("session not found")
	// ErrConfigNotFound is returned for unknown board configurations
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrInvalidConfig is returned for configurations that fail validation
	ErrInvalidConfig = errors.New("invalid configuration")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Tap(ctx context.Context, sessionID string, coord engine.Coordinate) (*TapResponse, error)
	Reset(ctx context.Context, sessionID string) (*engine.BoardView, error)

	// Game State
	GetBoard(ctx context.Context, sessionID string) (*engine.BoardView, error)
	DescribeTile(ctx context.Context, sessionID string, coord engine.Coordinate) (*TileInfo, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles board configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	DefaultID() string
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game: one board, one turn state
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	ConfigID       string // config the session was created from
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
