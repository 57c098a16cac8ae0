package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

// Handler serves the requests of one connection.
type Handler interface {
	HandleRequest(ctx context.Context, method string, params []any) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, method string, params []any) (any, error)

func (f HandlerFunc) HandleRequest(ctx context.Context, method string, params []any) (any, error) {
	return f(ctx, method, params)
}

// WebsocketNodeConfig configures a WebsocketNode. OnConnect is required.
type WebsocketNodeConfig struct {
	Logger log.Logger
	Tracer trace.Tracer

	// OnConnect returns the handler for a new connection. Returning an error
	// rejects the connection. The connection is already reachable through
	// Notify while OnConnect runs; writes are queued until it is served.
	OnConnect    func(conn Connection) (Handler, error)
	OnDisconnect func(connID string)
	// OnRequestServed is called after each response with the method, how long
	// it took and the error returned by the handler.
	OnRequestServed func(method string, took time.Duration, err error)
	OnMessageSent   func([]byte)

	CheckOrigin      func(r *http.Request) bool
	ReadBufferSize   int
	WriteBufferSize  int
	WriteTimeout     time.Duration
	ConnWriteQueue   int
	ConnProcessQueue int
}

var _ http.Handler = (*WebsocketNode)(nil)

// WebsocketNode accepts page connections and serves their requests.
type WebsocketNode struct {
	cfg      WebsocketNodeConfig
	upgrader websocket.Upgrader
	hub      *ConnectionHub
	logger   log.Logger
	tracer   trace.Tracer
}

func NewWebsocketNode(cfg WebsocketNodeConfig) (*WebsocketNode, error) {
	if cfg.OnConnect == nil {
		return nil, errors.New("OnConnect handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNoopLogger()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/GuardianUI/storycheck/mockwallet/pkg/rpc")
	}
	if cfg.OnDisconnect == nil {
		cfg.OnDisconnect = func(string) {}
	}
	if cfg.OnRequestServed == nil {
		cfg.OnRequestServed = func(string, time.Duration, error) {}
	}
	if cfg.CheckOrigin == nil {
		// Pages under test are served from arbitrary dev-server origins.
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = 1024
	}
	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = 1024
	}

	return &WebsocketNode{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		hub:    NewConnectionHub(),
		logger: cfg.Logger.Named("rpc-node"),
		tracer: cfg.Tracer,
	}, nil
}

// ServeHTTP upgrades the request and serves the socket until it closes.
func (n *WebsocketNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	conn, err := NewWebsocketConnection(WebsocketConnectionConfig{
		ConnectionID:      uuid.NewString(),
		Conn:              ws,
		WriteTimeout:      n.cfg.WriteTimeout,
		WriteBufferSize:   n.cfg.ConnWriteQueue,
		ProcessBufferSize: n.cfg.ConnProcessQueue,
		Logger:            n.logger,
		OnMessageSent:     n.cfg.OnMessageSent,
	})
	if err != nil {
		n.logger.Error("could not create connection", "err", err)
		ws.Close()
		return
	}
	lg := n.logger.With("connectionId", conn.ConnectionID())

	if err := n.hub.Add(conn); err != nil {
		lg.Error("could not register connection", "err", err)
		ws.Close()
		return
	}

	handler, err := n.cfg.OnConnect(conn)
	if err != nil {
		lg.Warn("connection rejected", "err", err)
		n.hub.Remove(conn.ConnectionID())
		conn.close()
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		ws.Close()
		return
	}
	lg.Info("page connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	conn.Serve(ctx, func(err error) {
		if err != nil {
			lg.Warn("connection closed with error", "err", err)
		}
		close(done)
	})

	var inflight sync.WaitGroup
	for raw := range conn.RawRequests() {
		inflight.Add(1)
		go func(raw []byte) {
			defer inflight.Done()
			n.process(ctx, conn, handler, raw)
		}(raw)
	}
	inflight.Wait()
	cancel()
	<-done

	n.hub.Remove(conn.ConnectionID())
	n.cfg.OnDisconnect(conn.ConnectionID())
	lg.Info("page disconnected")
}

// process answers one frame. Requests of a connection run concurrently, so
// responses may be written out of order; ids pair them up.
func (n *WebsocketNode) process(parent context.Context, conn Connection, handler Handler, raw []byte) {
	var req Request
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		n.reply(conn, Response{Error: NewError(CodeInvalidRequest, "batch requests are not supported")})
		return
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		n.reply(conn, Response{Error: NewError(CodeParseError, "parse error: %v", err)})
		return
	}
	if req.JSONRPC != Version || req.Method == "" {
		n.reply(conn, Response{ID: req.ID, Error: NewError(CodeInvalidRequest, "invalid request")})
		return
	}
	params, err := req.DecodeParams()
	if err != nil {
		n.reply(conn, Response{ID: req.ID, Error: NewError(CodeInvalidParams, "invalid params: %v", err)})
		return
	}

	ctx, span := n.tracer.Start(parent, req.Method, trace.WithAttributes(
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.method", req.Method),
		attribute.String("connection.id", conn.ConnectionID()),
	))
	defer span.End()
	ctx = log.SetContextLogger(ctx, n.logger.With("connectionId", conn.ConnectionID(), "method", req.Method))

	start := time.Now()
	result, err := handler.HandleRequest(ctx, req.Method, params)
	n.cfg.OnRequestServed(req.Method, time.Since(start), err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.FromContext(ctx).Debug("request failed", "err", err)
	}
	if req.IsNotification() {
		return
	}
	if err != nil {
		n.reply(conn, Response{ID: req.ID, Error: ToError(err)})
		return
	}
	n.reply(conn, Response{ID: req.ID, Result: result})
}

func (n *WebsocketNode) reply(conn Connection, res Response) {
	msg, err := json.Marshal(res)
	if err != nil {
		n.logger.Error("could not encode response", "err", err)
		msg, _ = json.Marshal(Response{ID: res.ID, Error: NewError(CodeInternalError, "could not encode result")})
	}
	conn.Write(msg)
}

// Notify sends a provider event to one connection. It reports false when the
// connection is gone or not accepting writes.
func (n *WebsocketNode) Notify(connID, event string, payload ...any) bool {
	conn := n.hub.Get(connID)
	if conn == nil {
		return false
	}
	msg, err := json.Marshal(NewNotification(event, payload...))
	if err != nil {
		n.logger.Error("could not encode notification", "event", event, "err", err)
		return false
	}
	return conn.Write(msg)
}

// Connections returns the number of open page connections.
func (n *WebsocketNode) Connections() int { return n.hub.Len() }
