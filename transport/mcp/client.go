package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/elementcapture/game/engine"
	"github.com/wricardo/elementcapture/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Element Capture",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Element Capture - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Two players take turns on a grid of earth, fire and water tiles. Select one of
your own tiles, then tap an orthogonal neighbour whose element yours beats to
capture it. Earth beats water, fire beats earth, water beats fire.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions: List all active sessions
- get_session: Get session details
- board_state: Current board, active player and selection
- tap: Tap one tile (select, deselect or capture)
- reset_game: Restore the starting board
- capture_history: View past captures
- describe_tile: Inspect one tile and the captures it allows
- list_configs: List available board configurations
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current board, active player and selection",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tap",
		Description: "Tap a tile. Selects your own tile, deselects the selected tile, or captures a legal target next to the selection. Other taps are ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the tile (0-based, top row is 0)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the tile (0-based)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this tap (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleTap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the board to its starting layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "capture_history",
		Description: "Get capture history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCaptureHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe one tile: element, owner, interaction state, neighbours and which of them its element could capture.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the tile (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the tile (0-based)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeTile)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// intArg reads a JSON number argument. MCP clients send integers as float64.
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func sessionArg(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return url.PathEscape(sessionID), nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatBoard(session.Board))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		turn := ""
		if s.Board != nil {
			turn = fmt.Sprintf(", %s to move", s.Board.ActivePlayer)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s%s)\n", s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), turn)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := sessionArg(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := sessionArg(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var board engine.BoardView
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID+"/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handleTap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := sessionArg(args)
	if errResult != nil {
		return errResult, nil
	}
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	// intent is rubber duck debugging for the caller; the API does not need it
	var resp service.TapResponse
	body := map[string]int{"row": row, "col": col}
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+"/tap", body, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTapResponse(&resp)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := sessionArg(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string            `json:"message"`
		Board   *engine.BoardView `json:"board"`
	}
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+"/reset", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatBoard(response.Board))), nil
}

func (c *Client) handleCaptureHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := sessionArg(args)
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := "/api/sessions/" + sessionID + "/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Elements: %s, First: %s\n\n",
			config.Name, config.ConfigID, config.Description, config.Rows, config.Cols,
			config.ElementPolicy, config.FirstPlayer)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Element Capture - Complete Instructions

GAME OBJECTIVE:
Two players share one grid. Grow your territory by capturing tiles next to the
ones you already hold.

ELEMENTS:
• Earth beats Water
• Fire beats Earth
• Water beats Fire
Equal elements never beat each other.

A TURN:
1. Tap one of your own tiles to select it (the machine moves to source_selected).
2. Tap an orthogonal neighbour (up, down, left or right, no diagonals) whose
   element your tile beats. That tile takes your element and your colour and
   the turn passes to the other player.
3. Tapping the selected tile again clears the selection without using the turn.
Any other tap is ignored: the selection stays and nothing changes.

Neighbours you own can be captured too, which changes their element.

BOARD LEGEND (board_state output):
Each tile is three characters: element, owner, marker.
• Element: E earth, F fire, W water
• Owner: 1 player1, 2 player2, . neutral
• Marker: * selected, + selectable now, space inert
Rows are numbered from 0 at the top, columns from 0 on the left.

TOOLS:
- tap with row and col plays the game
- describe_tile shows which neighbours a tile could capture
- capture_history lists every capture in the session
- reset_game restores the starting board

ERRORS:
Tapping outside the grid returns an error and changes nothing.`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := sessionArg(args)
	if errResult != nil {
		return errResult, nil
	}
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var info service.TileInfo
	path := fmt.Sprintf("/api/sessions/%s/tiles/%d/%d", sessionID, row, col)
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTileInfo(&info)), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatBoard(session.Board))
}

func ownerMark(o engine.Owner) string {
	switch o {
	case engine.Player1:
		return "1"
	case engine.Player2:
		return "2"
	}
	return "."
}

func interactionMark(i engine.Interaction) string {
	switch i {
	case engine.Selected:
		return "*"
	case engine.Selectable:
		return "+"
	}
	return " "
}

func formatBoard(board *engine.BoardView) string {
	if board == nil {
		return "No board available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn: %s | Phase: %s | Tiles: player1=%d player2=%d neutral=%d | Captures: %d\n",
		board.ActivePlayer, board.Phase,
		board.Standings.Player1, board.Standings.Player2, board.Standings.Neutral,
		board.TotalCaptures)
	if board.Source != nil {
		fmt.Fprintf(&b, "Selected: %s %s\n", board.Source.Element, board.Source.Coord)
	}
	fmt.Fprintf(&b, "Available captures for %s: %d\n\n", board.ActivePlayer, board.AvailableCaptures)

	b.WriteString("    ")
	for col := 0; col < board.Cols; col++ {
		fmt.Fprintf(&b, "%-3d", col)
	}
	b.WriteString("\n")
	for row := 0; row < board.Rows; row++ {
		fmt.Fprintf(&b, "%2d  ", row)
		for col := 0; col < board.Cols; col++ {
			tile, ok := board.TileAt(engine.Coordinate{Row: row, Col: col})
			if !ok {
				b.WriteString("?? ")
				continue
			}
			b.WriteByte(engine.ElementChar(tile.Element))
			b.WriteString(ownerMark(tile.Owner))
			b.WriteString(interactionMark(tile.Interaction))
		}
		b.WriteString("\n")
	}

	if board.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", board.Message)
	}
	return b.String()
}

func formatTapResponse(resp *service.TapResponse) string {
	var b strings.Builder
	result := resp.Result

	switch result.Outcome {
	case engine.OutcomeCaptured:
		fmt.Fprintf(&b, "✓ %s captured %s\n", result.Player, result.Coord)
	case engine.OutcomeSelected:
		fmt.Fprintf(&b, "✓ %s selected %s\n", result.Player, result.Coord)
	case engine.OutcomeDeselected:
		fmt.Fprintf(&b, "✓ %s cleared the selection\n", result.Player)
	default:
		fmt.Fprintf(&b, "✗ Tap at %s ignored\n", result.Coord)
	}

	if capture := result.Capture; capture != nil {
		fmt.Fprintf(&b, "Capture #%d: %s %s→%s replaced %s/%s\n",
			capture.MoveNumber, capture.Element, capture.From, capture.To,
			capture.ReplacedElement, capture.ReplacedOwner)
	}

	if len(resp.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range resp.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatBoard(resp.Board))
	return b.String()
}

func formatTileInfo(info *service.TileInfo) string {
	var b strings.Builder
	tile := info.Tile
	fmt.Fprintf(&b, "Tile at %s:\n━━━━━━━━━━━━━━━━━━━━━━━━\n", tile.Coord)
	fmt.Fprintf(&b, "Element: %s (beats %s, beaten by %s)\n", tile.Element, info.Beats, info.BeatenBy)
	fmt.Fprintf(&b, "Owner: %s\n", tile.Owner)
	fmt.Fprintf(&b, "Interaction: %s\n", tile.Interaction)

	b.WriteString("\nNeighbours:\n")
	for _, n := range info.Neighbors {
		fmt.Fprintf(&b, "- %s %s %s\n", n.Coord, n.Element, n.Owner)
	}

	if len(info.Targets) == 0 {
		b.WriteString("\nNo neighbour can be captured from this tile.")
	} else {
		targets := make([]string, len(info.Targets))
		for i, c := range info.Targets {
			targets[i] = c.String()
		}
		fmt.Fprintf(&b, "\nCould capture: %s", strings.Join(targets, " "))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Capture History (Page %d/%d) | Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalCaptures)

	if len(history.Captures) == 0 {
		b.WriteString("(no captures yet)\n")
	}
	for _, capture := range history.Captures {
		fmt.Fprintf(&b, "%d. %s %s %s→%s took %s/%s\n",
			capture.MoveNumber, capture.Player, capture.Element, capture.From, capture.To,
			capture.ReplacedElement, capture.ReplacedOwner)
	}

	return b.String()
}
