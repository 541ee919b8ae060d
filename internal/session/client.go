package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for outbound messages
	sendBufferSize = 32

	// Upper bound for one suggestion lookup
	suggestTimeout = 10 * time.Second
)

// Service is what a live session needs from the analyzer
type Service interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Suggest(ctx context.Context, query string) ([]models.TeamRef, error)
}

// Stats describes one session, returned on heartbeat
type Stats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	AnalysesStarted  int64     `json:"analyses_started"`
	ActiveRunID      string    `json:"active_run_id,omitempty"`
}

// Client is one browser connection. At most one analysis runs per client;
// starting another cancels the previous one and its result is dropped.
type Client struct {
	ID     string
	conn   *websocket.Conn
	Send   chan models.ServerMessage
	svc    Service
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once

	mu               sync.Mutex
	runID            string
	cancelRun        context.CancelFunc
	connectedAt      time.Time
	messagesSent     int64
	messagesReceived int64
	analysesStarted  int64
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, svc Service, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ID:          id,
		conn:        conn,
		Send:        make(chan models.ServerMessage, sendBufferSize),
		svc:         svc,
		logger:      logger.With(slog.String("component", "session"), slog.String("client_id", id)),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// ReadPump reads client messages until the connection drops or ctx ends
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg models.ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Warn("unexpected close", slog.Any("error", err))
				}
				return
			}

			c.updateReceived()
			c.handleClientMessage(ctx, msg)
		}
	}
}

// WritePump writes queued messages and keeps the connection alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.done:
			return

		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("write error", slog.Any("error", err))
				return
			}
			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking; false means the buffer is full
func (c *Client) TrySend(msg models.ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		c.logger.Warn("send buffer full, dropping message", slog.String("type", msg.Type))
		return false
	}
}

// GetStats returns connection statistics
func (c *Client) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		ClientID:         c.ID,
		ConnectedAt:      c.connectedAt,
		MessagesSent:     c.messagesSent,
		MessagesReceived: c.messagesReceived,
		AnalysesStarted:  c.analysesStarted,
		ActiveRunID:      c.runID,
	}
}

func (c *Client) handleClientMessage(ctx context.Context, msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeAnalyze:
		c.handleAnalyze(ctx, msg.Payload)
	case models.MessageTypeSuggest:
		c.handleSuggest(ctx, msg.Payload)
	case models.MessageTypeHeartbeat:
		c.sendHeartbeat()
	default:
		c.sendError("", "unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// handleAnalyze supersedes any in-flight run and starts a new one
func (c *Client) handleAnalyze(ctx context.Context, payload map[string]any) {
	var req models.AnalysisRequest
	if err := decodePayload(payload, &req); err != nil {
		c.sendError("", models.CodeInvalidInput, "failed to parse analysis request")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()

	c.mu.Lock()
	if c.cancelRun != nil {
		c.cancelRun()
		c.logger.Debug("superseded analysis", slog.String("run_id", c.runID))
	}
	c.runID = runID
	c.cancelRun = cancel
	c.analysesStarted++
	c.mu.Unlock()

	c.TrySend(models.ServerMessage{
		Type:      models.MessageTypeAnalysisStarted,
		RunID:     runID,
		Timestamp: time.Now(),
	})

	go func() {
		defer cancel()

		result, err := c.svc.Analyze(runCtx, req)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.runID != runID {
			return
		}
		c.runID = ""
		c.cancelRun = nil

		if err != nil {
			c.sendError(runID, models.ErrorCode(err), err.Error())
			return
		}
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeAnalysisResult,
			RunID:     runID,
			Payload:   result,
			Timestamp: time.Now(),
		})
	}()
}

func (c *Client) handleSuggest(ctx context.Context, payload map[string]any) {
	var req models.SuggestRequest
	if err := decodePayload(payload, &req); err != nil {
		c.sendError("", models.CodeInvalidInput, "failed to parse suggest request")
		return
	}

	go func() {
		sctx, cancel := context.WithTimeout(ctx, suggestTimeout)
		defer cancel()

		teams, err := c.svc.Suggest(sctx, req.Query)
		if err != nil {
			c.sendError("", models.ErrorCode(err), err.Error())
			return
		}
		if teams == nil {
			teams = []models.TeamRef{}
		}
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeSuggestions,
			Payload:   teams,
			Timestamp: time.Now(),
		})
	}()
}

func (c *Client) sendHeartbeat() {
	c.TrySend(models.ServerMessage{
		Type:      models.MessageTypeHeartbeat,
		Payload:   c.GetStats(),
		Timestamp: time.Now(),
	})
}

func (c *Client) sendError(runID, code, message string) {
	c.TrySend(models.ServerMessage{
		Type:      models.MessageTypeError,
		RunID:     runID,
		Payload:   models.ErrorMessage{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

// close cancels the active run and stops the write pump
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.cancelRun != nil {
			c.cancelRun()
			c.cancelRun = nil
		}
		c.runID = ""
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
}

func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
}

// decodePayload converts a generic JSON payload into a typed request
func decodePayload(payload map[string]any, v any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
