// Command elementcapture starts the Element Capture game server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "play" – plays a local session in the terminal, with mouse and keyboard input
//  3. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (ELEMENTS_* variables, optionally from a
// .env file). Flags override them for a single run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/elementcapture/api"
	"github.com/wricardo/elementcapture/game/config"
	"github.com/wricardo/elementcapture/game/service"
	"github.com/wricardo/elementcapture/game/session"
	"github.com/wricardo/elementcapture/settings"
	"github.com/wricardo/elementcapture/telemetry"
	"github.com/wricardo/elementcapture/transport/mcp"
	"github.com/wricardo/elementcapture/transport/terminal"
	"github.com/wricardo/elementcapture/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Element Capture Server"
)

func main() {
	cfg, err := settings.Load()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(cfg).Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// newRootCommand builds the CLI. Flag defaults are taken from cfg so that
// --help shows the effective values.
func newRootCommand(cfg *settings.Settings) *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		return runHTTPServer(ctx, applyFlags(cfg, cmd))
	}

	return &cli.Command{
		Name:    "elementcapture",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: cfg.Port, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "host", Value: cfg.Host, Usage: "HTTP server host"},
			&cli.StringFlag{Name: "config-dir", Value: cfg.ConfigDir, Usage: "Directory containing board configurations"},
			&cli.BoolFlag{Name: "debug", Value: cfg.Debug, Usage: "Enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Value: cfg.Ngrok.Enabled, Usage: "Enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or use ELEMENTS_NGROK_AUTHTOKEN / NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Value: cfg.Ngrok.Domain, Usage: "Custom ngrok domain (optional)"},
			&cli.StringFlag{Name: "otel-endpoint", Value: cfg.OTel.Endpoint, Usage: "OTLP/HTTP endpoint for traces (tracing off when empty)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serve,
			},
			{
				Name:  "play",
				Usage: "Play a local game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "board", Usage: "Board configuration name (default board when empty)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runTerminal(ctx, applyFlags(cfg, cmd), cmd.String("board"))
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCPWithInternalServer(ctx, applyFlags(cfg, cmd))
				},
			},
		},
	}
}

// applyFlags returns a copy of cfg with command-line values applied
func applyFlags(cfg *settings.Settings, cmd *cli.Command) *settings.Settings {
	s := *cfg
	s.Port = int(cmd.Int("port"))
	s.Host = cmd.String("host")
	s.ConfigDir = cmd.String("config-dir")
	s.Debug = cmd.Bool("debug")
	s.Ngrok.Enabled = cmd.Bool("ngrok")
	s.Ngrok.Domain = cmd.String("ngrok-domain")
	s.OTel.Endpoint = cmd.String("otel-endpoint")
	if cmd.IsSet("ngrok-auth") {
		s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if s.Ngrok.AuthToken == "" {
		s.Ngrok.AuthToken = os.Getenv("NGROK_AUTHTOKEN")
	}

	if s.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return &s
}

// initializeServices wires session/config managers and the game service.
func initializeServices(s *settings.Settings) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	return service.NewGameService(sessionManager, configManager), sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within ttl. It returns when ctx is cancelled.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// newRouter mounts the API at the root and the MCP server on /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel. It returns once ctx is
// cancelled and the servers have drained.
func runHTTPServer(ctx context.Context, s *settings.Settings) error {
	log.Printf("Starting %s v%s", AppName, Version)

	shutdownTracing, err := telemetry.Setup(ctx, s.OTel, Version)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()
	if s.TracingEnabled() {
		log.Printf("Exporting traces to %s", s.OTel.Endpoint)
	}

	gameService, sessions, err := initializeServices(s)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sessionCleanupRoutine(ctx, sessions, s.SessionTTL, s.CleanupEvery)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := s.Addr()
	handler := newRouter(api.NewServer(gameService, hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if s.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, s.Ngrok, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serveErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is cancelled
func runNgrokTunnel(ctx context.Context, cfg settings.Ngrok, handler http.Handler) {
	if cfg.AuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, ELEMENTS_NGROK_AUTHTOKEN, or NGROK_AUTHTOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		log.Printf("Using custom ngrok domain: %s", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runTerminal creates a session and plays it in the terminal until the player
// quits. Log output is muted while the screen is active.
func runTerminal(ctx context.Context, s *settings.Settings, board string) error {
	gameService, _, err := initializeServices(s)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	info, err := gameService.CreateSession(ctx, board)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialise screen: %w", err)
	}

	prev := log.Writer()
	log.SetOutput(io.Discard)
	runErr := terminal.New(screen, gameService, info.ID).Run(ctx)
	screen.Fini()
	log.SetOutput(prev)

	if runErr != nil {
		return runErr
	}

	final, err := gameService.GetBoard(context.Background(), info.ID)
	if err == nil {
		fmt.Printf("%s: player1=%d player2=%d neutral=%d after %d captures\n",
			final.ConfigName, final.Standings.Player1, final.Standings.Player2, final.Standings.Neutral, final.TotalCaptures)
	}
	return nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an API already listening on the configured address; if
// unavailable, it starts a minimal internal HTTP API bound to a random loopback
// port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, s *settings.Settings) error {
	externalURL := "http://" + s.Addr()
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		if resp != nil {
			resp.Body.Close()
		}
		log.Printf("No external API server found, starting internal HTTP server")

		internalURL, stop, err := startInternalServer(ctx, s)
		if err != nil {
			return err
		}
		defer stop()
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// startInternalServer serves the API on a random loopback port. The returned
// function stops the server.
func startInternalServer(ctx context.Context, s *settings.Settings) (string, func(), error) {
	gameService, sessions, err := initializeServices(s)
	if err != nil {
		return "", nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	internalAddr := listener.Addr().String()
	log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

	ctx, cancel := context.WithCancel(ctx)
	go sessionCleanupRoutine(ctx, sessions, s.SessionTTL, s.CleanupEvery)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	stop := func() {
		cancel()
		httpServer.Close()
	}
	return "http://" + internalAddr, stop, nil
}
