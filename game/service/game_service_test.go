package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/elementcapture/game/engine"
	"github.com/wricardo/elementcapture/game/service"
	"github.com/wricardo/elementcapture/game/session"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

// testConfig is a 3x3 board where player1's earth at (0,0) can take the water at (0,1)
func testConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "test",
		Description: "Test configuration",
		Rows:        3,
		Cols:        3,
		Elements:    []string{"EWF", "EEE", "WWW"},
		Owners:      []string{"100", "000", "222"},
		FirstPlayer: engine.Player1,
	}
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := testConfig()
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":    defaultConfig,
			"default": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Rows:        config.Rows,
			Cols:        config.Cols,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) DefaultID() string {
	return "default"
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T) (service.GameService, string) {
	t.Helper()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())
	info, err := svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return svc, info.ID
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantErr    error
	}{
		{name: "create with default config", configName: ""},
		{name: "create with named config", configName: "test"},
		{name: "unknown config", configName: "missing", wantErr: service.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.configName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if !strings.Contains(err.Error(), "Available configs") {
					t.Errorf("Expected available configs in error, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() error = %v", err)
			}
			if info.ID == "" {
				t.Error("Expected session ID")
			}
			if info.Board == nil || info.Board.Rows != 3 || info.Board.Cols != 3 {
				t.Errorf("Expected 3x3 board, got %+v", info.Board)
			}
			if info.Board.ActivePlayer != engine.Player1 {
				t.Errorf("Expected player1 to move, got %s", info.Board.ActivePlayer)
			}
			if info.Board.Phase != engine.AwaitingSource {
				t.Errorf("Expected awaiting_source, got %s", info.Board.Phase)
			}
		})
	}
}

func TestGameService_SessionLookup(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	t.Run("get existing", func(t *testing.T) {
		info, err := svc.GetSession(ctx, id)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if info.ConfigName != "test" {
			t.Errorf("Expected config id 'test', got %q", info.ConfigName)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if _, err := svc.GetSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
		if _, err := svc.Tap(ctx, "nope", engine.Coordinate{}); !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound from Tap, got %v", err)
		}
	})

	t.Run("list sorted", func(t *testing.T) {
		if _, err := svc.CreateSession(ctx, ""); err != nil {
			t.Fatal(err)
		}
		list, err := svc.ListSessions(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 sessions, got %d", len(list))
		}
		if list[0].ID > list[1].ID {
			t.Errorf("Expected sessions sorted by ID, got %s before %s", list[0].ID, list[1].ID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.DeleteSession(ctx, id); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		if _, err := svc.GetBoard(ctx, id); !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected deleted session to be gone, got %v", err)
		}
		if err := svc.DeleteSession(ctx, id); !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
		}
	})
}

// "test" and "default" share a display name, so the session must keep the ID
// it was created with.
func TestGameService_ConfigIDIsStable(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

		byDefault, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		byName, err := svc.CreateSession(ctx, "test")
		if err != nil {
			t.Fatal(err)
		}
		if byDefault.ConfigName != "default" || byName.ConfigName != "test" {
			t.Fatalf("Expected default/test at creation, got %q/%q", byDefault.ConfigName, byName.ConfigName)
		}

		got, err := svc.GetSession(ctx, byDefault.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.ConfigName != "default" {
			t.Fatalf("Run %d: expected default from GetSession, got %q", i, got.ConfigName)
		}

		list, err := svc.ListSessions(ctx)
		if err != nil {
			t.Fatal(err)
		}
		for _, info := range list {
			want := "test"
			if info.ID == byDefault.ID {
				want = "default"
			}
			if info.ConfigName != want {
				t.Fatalf("Run %d: expected %s for %s in list, got %q", i, want, info.ID, info.ConfigName)
			}
		}
	}
}

// Reads refresh the access time; run with -race.
func TestGameService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(session.NewManager(), NewMockConfigManager())
	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatal(err)
	}
	id := info.ID

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := svc.GetSession(ctx, id)
				if err != nil {
					t.Errorf("GetSession failed: %v", err)
					return
				}
				if got.LastAccessedAt.IsZero() {
					t.Error("Expected access time to be set")
				}
				if _, err := svc.GetBoard(ctx, id); err != nil {
					t.Errorf("GetBoard failed: %v", err)
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					t.Errorf("ListSessions failed: %v", err)
				}
				if g%2 == 0 {
					svc.DescribeTile(ctx, id, engine.Coordinate{Row: 0, Col: 0})
					svc.GetHistory(ctx, id, service.HistoryOptions{})
				}
			}
		}(g)
	}
	wg.Wait()

	before, _ := svc.GetSession(ctx, id)
	time.Sleep(2 * time.Millisecond)
	after, _ := svc.GetSession(ctx, id)
	if !after.LastAccessedAt.After(before.CreatedAt) {
		t.Errorf("Expected access time to move past creation, got %v", after.LastAccessedAt)
	}
}

func TestGameService_Tap(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	resp, err := svc.Tap(ctx, id, engine.Coordinate{Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("select tap failed: %v", err)
	}
	if resp.Result.Outcome != engine.OutcomeSelected {
		t.Fatalf("Expected selected, got %s", resp.Result.Outcome)
	}
	if len(resp.Events) != 1 || resp.Events[0].Type != "selected" {
		t.Errorf("Expected one selected event, got %+v", resp.Events)
	}
	if resp.Board.Phase != engine.SourceSelected {
		t.Errorf("Expected source_selected, got %s", resp.Board.Phase)
	}
	if tile, _ := resp.Board.TileAt(engine.Coordinate{Row: 0, Col: 1}); tile.Interaction != engine.Selectable {
		t.Errorf("Expected water neighbour to be selectable, got %s", tile.Interaction)
	}

	resp, err = svc.Tap(ctx, id, engine.Coordinate{Row: 0, Col: 1})
	if err != nil {
		t.Fatalf("capture tap failed: %v", err)
	}
	if resp.Result.Outcome != engine.OutcomeCaptured {
		t.Fatalf("Expected captured, got %s", resp.Result.Outcome)
	}
	if len(resp.Events) != 2 || resp.Events[0].Type != "captured" || resp.Events[1].Type != "turn" {
		t.Errorf("Expected captured + turn events, got %+v", resp.Events)
	}
	captured, _ := resp.Board.TileAt(engine.Coordinate{Row: 0, Col: 1})
	if captured.Element != engine.Earth || captured.Owner != engine.Player1 {
		t.Errorf("Expected captured tile to be player1 earth, got %+v", captured)
	}
	if resp.Board.ActivePlayer != engine.Player2 {
		t.Errorf("Expected player2 to move, got %s", resp.Board.ActivePlayer)
	}

	resp, err = svc.Tap(ctx, id, engine.Coordinate{Row: 1, Col: 1})
	if err != nil {
		t.Fatalf("neutral tap failed: %v", err)
	}
	if resp.Result.Outcome != engine.OutcomeIgnored || resp.Events[0].Type != "ignored" {
		t.Errorf("Expected ignored tap on neutral tile, got %s", resp.Result.Outcome)
	}

	t.Run("out of bounds", func(t *testing.T) {
		before, _ := svc.GetBoard(ctx, id)
		_, err := svc.Tap(ctx, id, engine.Coordinate{Row: 5, Col: 5})
		if !errors.Is(err, engine.ErrOutOfBounds) {
			t.Fatalf("Expected ErrOutOfBounds, got %v", err)
		}
		after, _ := svc.GetBoard(ctx, id)
		if before.ActivePlayer != after.ActivePlayer || before.Phase != after.Phase {
			t.Error("Out-of-bounds tap changed the turn state")
		}
	})
}

func TestGameService_ConcurrentTaps(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	const taps = 20
	var wg sync.WaitGroup
	outcomes := make(chan engine.Outcome, taps)
	for i := 0; i < taps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Tap(ctx, id, engine.Coordinate{Row: 0, Col: 0})
			if err != nil {
				t.Errorf("Tap failed: %v", err)
				return
			}
			outcomes <- resp.Result.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[engine.Outcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	if counts[engine.OutcomeSelected] != taps/2 || counts[engine.OutcomeDeselected] != taps/2 {
		t.Errorf("Expected alternating select/deselect, got %v", counts)
	}

	board, err := svc.GetBoard(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if board.Phase != engine.AwaitingSource || board.Source != nil {
		t.Errorf("Expected no selection after an even number of taps, got %s", board.Phase)
	}
}

func TestGameService_ResetAndHistory(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	svc.Tap(ctx, id, engine.Coordinate{Row: 0, Col: 0})
	svc.Tap(ctx, id, engine.Coordinate{Row: 0, Col: 1})

	board, err := svc.Reset(ctx, id)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	tile, _ := board.TileAt(engine.Coordinate{Row: 0, Col: 1})
	if tile.Element != engine.Water || tile.Owner != engine.NoOwner {
		t.Errorf("Expected reset to restore neutral water, got %+v", tile)
	}
	if board.ActivePlayer != engine.Player1 {
		t.Errorf("Expected player1 after reset, got %s", board.ActivePlayer)
	}
	if board.TotalCaptures != 1 {
		t.Errorf("Expected history to survive reset, got %d captures", board.TotalCaptures)
	}

	t.Run("defaults", func(t *testing.T) {
		history, err := svc.GetHistory(ctx, id, service.HistoryOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if history.TotalCaptures != 1 || len(history.Captures) != 1 {
			t.Fatalf("Expected one capture, got %+v", history)
		}
		entry := history.Captures[0]
		if entry.From != (engine.Coordinate{Row: 0, Col: 0}) || entry.To != (engine.Coordinate{Row: 0, Col: 1}) {
			t.Errorf("Unexpected capture entry %+v", entry)
		}
		if history.PageSize != 20 || history.Page != 1 || history.TotalPages != 1 {
			t.Errorf("Unexpected paging defaults %+v", history)
		}
	})

	t.Run("past last page", func(t *testing.T) {
		history, err := svc.GetHistory(ctx, id, service.HistoryOptions{Page: 2, Limit: 1, Order: "asc"})
		if err != nil {
			t.Fatal(err)
		}
		if len(history.Captures) != 0 {
			t.Errorf("Expected empty page, got %d", len(history.Captures))
		}
		if !history.HasPrevious || history.HasNext {
			t.Errorf("Unexpected paging flags %+v", history)
		}
	})
}

func TestGameService_DescribeTile(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	info, err := svc.DescribeTile(ctx, id, engine.Coordinate{Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("DescribeTile failed: %v", err)
	}
	if info.Tile.Element != engine.Earth || info.Tile.Owner != engine.Player1 {
		t.Errorf("Unexpected tile %+v", info.Tile)
	}
	if info.Beats != engine.Water || info.BeatenBy != engine.Fire {
		t.Errorf("Expected earth to beat water and lose to fire, got %s/%s", info.Beats, info.BeatenBy)
	}
	if len(info.Neighbors) != 2 {
		t.Errorf("Expected 2 neighbours for a corner, got %d", len(info.Neighbors))
	}
	if len(info.Targets) != 1 || info.Targets[0] != (engine.Coordinate{Row: 0, Col: 1}) {
		t.Errorf("Expected single target (0,1), got %v", info.Targets)
	}

	if _, err := svc.DescribeTile(ctx, id, engine.Coordinate{Row: -1, Col: 0}); !errors.Is(err, engine.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	configs, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(configs))
	}

	bad := testConfig()
	bad.Owners = []string{"000", "000", "000"}
	if err := svc.SaveConfig(ctx, "bad", bad); err == nil {
		t.Error("Expected invalid config to be rejected")
	}

	good := testConfig()
	good.Name = "saved"
	if err := svc.SaveConfig(ctx, "saved", good); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := svc.LoadConfig(ctx, "saved")
	if err != nil || loaded.Name != "saved" {
		t.Errorf("Expected saved config back, got %v, %v", loaded, err)
	}
}
