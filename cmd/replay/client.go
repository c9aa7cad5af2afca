package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/elementcapture/game/engine"
	"github.com/wricardo/elementcapture/game/service"
)

// Client talks to a running game server over the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is playing
func (c *Client) SessionID() string { return c.sessionID }

// UseSession points the client at an existing session
func (c *Client) UseSession(id string) { c.sessionID = id }

func (c *Client) CreateSession(configID string) (*engine.BoardView, error) {
	var reqBody []byte
	if configID != "" {
		var err error
		reqBody, err = json.Marshal(map[string]string{"config_id": configID})
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	var session service.SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", reqBody, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.Board, nil
}

func (c *Client) GetBoard() (*engine.BoardView, error) {
	var board engine.BoardView
	if err := c.do(http.MethodGet, c.sessionPath("/board"), nil, &board); err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return &board, nil
}

func (c *Client) Tap(coord engine.Coordinate) (*service.TapResponse, error) {
	body, err := json.Marshal(coord)
	if err != nil {
		return nil, fmt.Errorf("marshal tap: %w", err)
	}

	var resp service.TapResponse
	if err := c.do(http.MethodPost, c.sessionPath("/tap"), body, &resp); err != nil {
		return nil, fmt.Errorf("tap %s: %w", coord, err)
	}
	return &resp, nil
}

type ResetResponse struct {
	Message string            `json:"message"`
	Board   *engine.BoardView `json:"board"`
}

func (c *Client) Reset() (*engine.BoardView, error) {
	var resp ResetResponse
	if err := c.do(http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.Board, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(method, path string, body []byte, result interface{}) error {
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
