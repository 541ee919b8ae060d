package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// LiveHandler upgrades browser connections to live analysis sessions
type LiveHandler struct {
	svc      session.Service
	ctx      context.Context
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewLiveHandler creates a websocket handler. Sessions live as long as ctx,
// not the upgrade request. origins lists allowed browser origins; "*" allows any.
func NewLiveHandler(ctx context.Context, svc session.Service, origins []string, logger *slog.Logger) *LiveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandler{
		svc: svc,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// HandleWebSocket upgrades the connection and starts the client pumps
func (h *LiveHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", slog.Any("error", err))
		return
	}

	c := session.NewClient(uuid.NewString(), conn, h.svc, h.logger)

	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	h.logger.Info("websocket connection established", slog.String("client_id", c.ID))
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(origins, "*") {
			return true
		}
		if slices.Contains(origins, origin) {
			return true
		}
		// same host as the page that served the form
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
