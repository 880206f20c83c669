package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/wm"
)

const (
	writeWait      = 10 * time.Second
	requestTimeout = 10 * time.Second
	sendBuffer     = 64
)

// Server exposes the control surface over websocket.
type Server struct {
	dispatcher *daemon.Dispatcher
	router     *mux.Router
	upgrader   websocket.Upgrader
	version    string
	logger     *slog.Logger
}

// NewServer creates a control-surface server backed by d.
func NewServer(d *daemon.Dispatcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dispatcher: d,
		router:     mux.NewRouter(),
		version:    version,
		logger:     logger,
		upgrader: websocket.Upgrader{
			// Clients are local tools, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleSocket)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the HTTP handler serving the control surface.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("IPC server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("IPC server shutdown", "error", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Addr returns the loopback address for port.
func Addr(port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

// session is one websocket connection. Writes go through send so that
// responses and subscription streams never write concurrently.
type session struct {
	server *Server
	ws     *websocket.Conn
	send   chan any
	done   chan struct{}

	mu   sync.Mutex
	subs map[uuid.UUID]struct{}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	sess := &session{
		server: s,
		ws:     ws,
		send:   make(chan any, sendBuffer),
		done:   make(chan struct{}),
		subs:   make(map[uuid.UUID]struct{}),
	}
	s.logger.Debug("client connected", "remote", r.RemoteAddr)

	go sess.writeLoop()
	sess.readLoop(r.Context())

	close(sess.done)
	sess.unsubscribeAll()
	ws.Close()
	s.logger.Debug("client disconnected", "remote", r.RemoteAddr)
}

func (c *session) readLoop(ctx context.Context) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.server.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		resp, after := c.handleMessage(ctx, string(data))
		if !c.write(resp) {
			return
		}
		if after != nil {
			after()
		}
	}
}

func (c *session) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.server.logger.Debug("websocket write error", "error", err)
				c.ws.Close()
				return
			}
		}
	}
}

func (c *session) write(msg any) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}

// handleMessage answers text. The returned func, if any, runs once the
// response has been queued.
func (c *session) handleMessage(ctx context.Context, text string) (*ClientResponseMessage, func()) {
	msg, err := ParseClientMessage(text)
	if err != nil {
		return NewErrorResponse(text, err), nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var (
		data  any
		after func()
	)
	switch msg.Kind {
	case KindQuery:
		data, err = c.server.query(ctx, msg.Query)
	case KindCommand:
		data, err = c.server.command(ctx, msg)
	case KindSub:
		data, after = c.subscribe(msg.Events)
	case KindUnsub:
		err = c.unsubscribe(msg.SubscriptionID)
	}
	if err != nil {
		return NewErrorResponse(text, err), nil
	}

	resp, err := NewClientResponse(text, data)
	if err != nil {
		return NewErrorResponse(text, err), nil
	}
	return resp, after
}

func (s *Server) query(ctx context.Context, target string) (any, error) {
	if target == "app-metadata" {
		return AppMetadataData{Version: s.version}, nil
	}
	return s.dispatcher.Do(ctx, "query "+target, func(st *wm.State, _ *config.Config) (any, error) {
		switch target {
		case "monitors":
			return MonitorsData{Monitors: wm.Monitors(st)}, nil
		case "workspaces":
			return WorkspacesData{Workspaces: wm.Workspaces(st)}, nil
		case "windows":
			return WindowsData{Windows: wm.Windows(st)}, nil
		case "focused":
			focused, err := wm.Focused(st)
			if err != nil {
				return nil, err
			}
			return FocusedData{Focused: focused}, nil
		case "binding-modes":
			modes := append([]config.BindingModeConfig{}, st.BindingModes...)
			return BindingModesData{BindingModes: modes}, nil
		case "tiling-direction":
			subject, err := wm.ResolveSubject(st, nil)
			if err != nil {
				return nil, err
			}
			direction, dto, err := wm.TilingDirection(st, subject)
			if err != nil {
				return nil, err
			}
			return TilingDirectionData{TilingDirection: direction, DirectionContainer: dto}, nil
		case "paused":
			return PausedData(st.Paused), nil
		default:
			return nil, fmt.Errorf("unknown query %q", target)
		}
	})
}

func (s *Server) command(ctx context.Context, msg ClientMessage) (any, error) {
	return s.dispatcher.Do(ctx, msg.Command.Name, func(st *wm.State, cfg *config.Config) (any, error) {
		subject, err := wm.ResolveSubject(st, msg.SubjectID)
		if err != nil {
			return nil, err
		}
		id, err := wm.RunCommand(st, msg.Command, subject, cfg)
		if err != nil {
			return nil, err
		}
		return CommandData{SubjectContainerID: id}, nil
	})
}

// subscribe registers a subscription and returns the func that starts
// streaming its events.
func (c *session) subscribe(types []wm.EventType) (EventSubscribeData, func()) {
	sub := c.server.dispatcher.Hub().Subscribe(types, 0)
	c.mu.Lock()
	c.subs[sub.ID] = struct{}{}
	c.mu.Unlock()

	stream := func() {
		go func() {
			for ev := range sub.C {
				if !c.write(NewEventMessage(sub.ID, ev)) {
					return
				}
			}
		}()
	}
	return EventSubscribeData{SubscriptionID: sub.ID}, stream
}

func (c *session) unsubscribe(id uuid.UUID) error {
	if !c.server.dispatcher.Hub().Unsubscribe(id) {
		return fmt.Errorf("no subscription with id %s", id)
	}
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
	return nil
}

func (c *session) unsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.subs {
		c.server.dispatcher.Hub().Unsubscribe(id)
		delete(c.subs, id)
	}
}
