package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/elementcapture/game/engine"
)

var tracer = otel.Tracer("elementcapture/service")

// customConfigID names sessions built from a config with no ID
const customConfigID = "custom"

// gameServiceImpl implements the GameService interface.
// mu makes each tap and its interaction recompute one critical section.
// Any path that refreshes a session's access time takes mu exclusively.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

func startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "GameService."+name)
	if sessionID != "" {
		span.SetAttributes(attribute.String("session.id", sessionID))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// getSession looks up a session and refreshes its access time
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	view := sess.Engine.View()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Board:          &view,
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (info *SessionInfo, err error) {
	_, span := startSpan(ctx, "CreateSession", "")
	span.SetAttributes(attribute.String("config.name", configName))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					configIDs := make([]string, 0, len(availableConfigs))
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}
	if configID == "" {
		configID = customConfigID
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = configID
	span.SetAttributes(attribute.String("session.id", sess.ID))

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (info *SessionInfo, err error) {
	_, span := startSpan(ctx, "GetSession", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions ordered by ID
func (s *gameServiceImpl) ListSessions(ctx context.Context) (infos []*SessionInfo, err error) {
	_, span := startSpan(ctx, "ListSessions", "")
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) (err error) {
	_, span := startSpan(ctx, "DeleteSession", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// Tap forwards one tile tap to the session's engine
func (s *gameServiceImpl) Tap(ctx context.Context, sessionID string, coord engine.Coordinate) (resp *TapResponse, err error) {
	_, span := startSpan(ctx, "Tap", sessionID)
	span.SetAttributes(attribute.Int("tap.row", coord.Row), attribute.Int("tap.col", coord.Col))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result, err := sess.Engine.Tap(coord)
	if err != nil {
		if errors.Is(err, engine.ErrIntegrityViolation) {
			log.Printf("[TAP] session=%s coord=%s integrity violation: %v", sessionID, coord, err)
		}
		return nil, fmt.Errorf("tap %s: %w", coord, err)
	}
	span.SetAttributes(attribute.String("tap.outcome", string(result.Outcome)))

	view := sess.Engine.View()
	return &TapResponse{
		Result: result,
		Board:  &view,
		Events: tapEvents(result, view),
	}, nil
}

// Reset restores the session's board to its starting layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (board *engine.BoardView, err error) {
	_, span := startSpan(ctx, "Reset", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	view := sess.Engine.Reset()
	return &view, nil
}

// GetBoard returns a copy of the session's board for rendering
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (board *engine.BoardView, err error) {
	_, span := startSpan(ctx, "GetBoard", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	view := sess.Engine.View()
	return &view, nil
}

// DescribeTile reports a tile, its neighbours and what its element could capture
func (s *gameServiceImpl) DescribeTile(ctx context.Context, sessionID string, coord engine.Coordinate) (info *TileInfo, err error) {
	_, span := startSpan(ctx, "DescribeTile", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	board := sess.Engine.Board()
	tile, err := board.TileAt(coord)
	if err != nil {
		return nil, err
	}

	info = &TileInfo{
		Tile:      engine.TileView(tile),
		Neighbors: []engine.TileView{},
		Targets:   []engine.Coordinate{},
	}
	for _, e := range engine.Elements {
		if engine.Beats(tile.Element, e) {
			info.Beats = e
		}
		if engine.Beats(e, tile.Element) {
			info.BeatenBy = e
		}
	}

	src := engine.Snapshot{Element: tile.Element, Owner: tile.Owner, Coord: tile.Coord}
	for _, n := range coord.Neighbors() {
		neighbor, err := board.TileAt(n)
		if err != nil {
			continue
		}
		info.Neighbors = append(info.Neighbors, engine.TileView(neighbor))
		if board.IsLegalTarget(src, n) {
			info.Targets = append(info.Targets, n)
		}
	}

	return info, nil
}

// GetHistory returns paginated capture history
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (resp *HistoryResponse, err error) {
	_, span := startSpan(ctx, "GetHistory", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetCaptureHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	captures := []engine.CaptureEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				captures = append(captures, history[i])
			}
		} else {
			captures = append(captures, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Captures:      captures,
		TotalCaptures: total,
		Page:          opts.Page,
		PageSize:      opts.Limit,
		TotalPages:    totalPages,
		HasNext:       opts.Page < totalPages,
		HasPrevious:   opts.Page > 1,
	}, nil
}

// ListConfigs returns available board configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) (infos []*ConfigInfo, err error) {
	_, span := startSpan(ctx, "ListConfigs", "")
	defer func() { endSpan(span, err) }()

	return s.configs.ListConfigs()
}

// LoadConfig loads a specific board configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (config *engine.GameConfig, err error) {
	_, span := startSpan(ctx, "LoadConfig", "")
	defer func() { endSpan(span, err) }()

	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a board configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) (err error) {
	_, span := startSpan(ctx, "SaveConfig", "")
	defer func() { endSpan(span, err) }()

	return s.configs.SaveConfig(configName, config)
}

// tapEvents generates events from a tap result
func tapEvents(result engine.TapResult, view engine.BoardView) []GameEvent {
	now := time.Now()
	coord := result.Coord
	events := []GameEvent{}

	switch result.Outcome {
	case engine.OutcomeSelected:
		events = append(events, GameEvent{
			Type:      "selected",
			Message:   fmt.Sprintf("%s selected %s at %s", result.Player, result.Source.Element, coord),
			Timestamp: now,
			Coord:     &coord,
		})
	case engine.OutcomeDeselected:
		events = append(events, GameEvent{
			Type:      "deselected",
			Message:   fmt.Sprintf("%s released %s", result.Player, coord),
			Timestamp: now,
			Coord:     &coord,
		})
	case engine.OutcomeCaptured:
		capture := result.Capture
		events = append(events, GameEvent{
			Type: "captured",
			Message: fmt.Sprintf("%s captured %s with %s from %s",
				result.Player, capture.To, capture.Element, capture.From),
			Timestamp: now,
			Coord:     &coord,
		}, GameEvent{
			Type:      "turn",
			Message:   fmt.Sprintf("%s to move", view.ActivePlayer),
			Timestamp: now,
		})
	default:
		events = append(events, GameEvent{
			Type:      "ignored",
			Message:   view.Message,
			Timestamp: now,
			Coord:     &coord,
		})
	}

	return events
}
