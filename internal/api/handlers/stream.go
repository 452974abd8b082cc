package handlers

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/force-layout/internal/apierr"
	"github.com/onnwee/force-layout/internal/layout"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/metrics"
	"github.com/onnwee/force-layout/internal/middleware"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum size of a command message once the session is running
	maxCommandSize = 512
)

// StreamMessage is the envelope for every server to client message.
type StreamMessage struct {
	Type    string `json:"type"` // "frame" or "error"
	Payload any    `json:"payload"`
}

// StreamOptions configures live layout sessions.
type StreamOptions struct {
	FrameInterval  time.Duration
	MaxSessions    int
	MaxGraphBytes  int64    // read limit for the initial graph document
	AllowedOrigins []string // empty accepts any origin
}

// StreamHandler runs live layout sessions over WebSocket. The client's
// first message is a graph document; the server then streams a frame per
// tick and applies grab, drag, drop and reheat commands sent by the client.
type StreamHandler struct {
	svc      *layout.Service
	opts     StreamOptions
	upgrader websocket.Upgrader
	slots    chan struct{}

	mu     sync.Mutex
	closed bool
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStreamHandler creates a stream handler backed by svc.
func NewStreamHandler(svc *layout.Service, opts StreamOptions) *StreamHandler {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 1
	}
	if opts.MaxGraphBytes <= 0 {
		opts.MaxGraphBytes = middleware.DefaultMaxRequestBodySize
	}
	base, cancel := context.WithCancel(context.Background())
	h := &StreamHandler{
		svc:    svc,
		opts:   opts,
		slots:  make(chan struct{}, opts.MaxSessions),
		base:   base,
		cancel: cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	return middleware.OriginAllowed(origin, h.opts.AllowedOrigins)
}

// Close ends all running sessions and waits for them to finish.
func (h *StreamHandler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	h.wg.Wait()
}

// track registers a session unless the handler is closed.
func (h *StreamHandler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	return true
}

// HandleWebSocket upgrades the connection and runs one session until the
// client disconnects or the handler is closed.
// GET /api/layout/stream
func (h *StreamHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.track() {
		apierr.WriteErrorWithContext(w, r, apierr.SystemUnavailable("Server is shutting down"))
		return
	}
	defer h.wg.Done()

	select {
	case h.slots <- struct{}{}:
	default:
		apierr.WriteErrorWithContext(w, r, apierr.StreamCapacity())
		return
	}
	defer func() { <-h.slots }()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		logger.WarnContext(r.Context(), "Failed to upgrade to WebSocket", "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamSessionsActive.Inc()
	defer metrics.StreamSessionsActive.Dec()

	ctx, cancel := context.WithCancel(context.WithValue(r.Context(), logger.SessionIDKey, newSessionID()))
	defer cancel()
	stop := context.AfterFunc(h.base, cancel)
	defer stop()

	log := logger.WithRequestID(ctx).With("component", "stream")
	log.Info("Live layout session started")
	start := time.Now()
	defer func() {
		log.Info("Live layout session ended", "duration_ms", time.Since(start).Milliseconds())
	}()

	// Reading the graph does not watch ctx, so closing the connection is
	// what ends a session that is shut down before it starts.
	unblock := context.AfterFunc(ctx, func() { conn.Close() })
	anim, apiErr := h.open(conn)
	if !unblock() {
		return
	}
	if apiErr != nil {
		h.reject(conn, apiErr.WithRequestID(apierr.GetRequestID(ctx)))
		log.Debug("Rejected session", "code", apiErr.Code, "error", apiErr.Message)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return anim.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return writePump(ctx, conn, anim.Frames())
	})
	g.Go(func() error {
		defer cancel()
		return readPump(ctx, conn, anim, log)
	})
	if err := g.Wait(); err != nil {
		log.Warn("Live layout session failed", "error", err)
	}
}

// open reads the graph document and builds the session's animator.
func (h *StreamHandler) open(conn *websocket.Conn) (*layout.Animator, *apierr.Error) {
	conn.SetReadLimit(h.opts.MaxGraphBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return nil, apierr.ValidationBodyTooLarge(h.opts.MaxGraphBytes)
		}
		return nil, apierr.ValidationInvalidFormat("Expected a graph document as the first message")
	}

	var g layout.Graph
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return nil, apierr.ValidationInvalidJSON()
	}

	anim, err := h.svc.NewAnimator(&g, h.opts.FrameInterval)
	if err != nil {
		var tooLarge *layout.TooLargeError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apierr.LayoutTooLarge(tooLarge.Field, tooLarge.Count, tooLarge.Limit)
		case errors.Is(err, layout.ErrInvalidGraph):
			return nil, apierr.LayoutInvalidGraph(err.Error())
		default:
			return nil, apierr.LayoutFailed("")
		}
	}
	return anim, nil
}

// reject sends an error message followed by a close frame.
func (h *StreamHandler) reject(conn *websocket.Conn, apiErr *apierr.Error) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(StreamMessage{Type: "error", Payload: apiErr})
	code := websocket.ClosePolicyViolation
	if apiErr.Status() >= http.StatusInternalServerError {
		code = websocket.CloseInternalServerErr
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, string(apiErr.Code)),
		time.Now().Add(writeWait))
}

// readPump decodes client commands and queues them on the animator. It is
// the only reader of conn.
func readPump(ctx context.Context, conn *websocket.Conn, anim *layout.Animator, log *slog.Logger) error {
	conn.SetReadLimit(maxCommandSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				log.Warn("WebSocket unexpected close", "error", err)
			}
			return nil
		}

		var cmd layout.Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			metrics.StreamCommandsTotal.WithLabelValues("invalid").Inc()
			log.Debug("Ignoring undecodable command", "error", err)
			continue
		}
		if err := anim.Send(ctx, cmd); err != nil {
			return nil
		}
	}
}

// writePump sends frames and pings. It is the only writer of conn and
// closes it on exit, which unblocks readPump.
func writePump(ctx context.Context, conn *websocket.Conn, frames <-chan layout.Frame) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(StreamMessage{Type: "frame", Payload: frame}); err != nil {
				return nil
			}
			metrics.StreamFramesSent.Inc()

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "session"
	}
	return hex.EncodeToString(b)
}
