package rpc

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

var (
	defaultWriteTimeout      = 5 * time.Second
	defaultWriteBufferSize   = 16
	defaultProcessBufferSize = 16
)

// Connection is one page socket as the node sees it.
type Connection interface {
	ConnectionID() string
	// RawRequests yields incoming frames until the socket goes away.
	RawRequests() <-chan []byte
	// Write queues message for sending. It returns false when the queue
	// stayed full for the write timeout, in which case the connection is
	// closed.
	Write(message []byte) bool
	// Serve runs the socket until it closes or ctx ends, then calls onClose
	// once with the first error seen.
	Serve(ctx context.Context, onClose func(error))
}

// WsConn is the part of *websocket.Conn a WebsocketConnection uses.
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	NextWriter(messageType int) (io.WriteCloser, error)
	Close() error
}

type WebsocketConnectionConfig struct {
	ConnectionID      string
	Conn              WsConn
	WriteTimeout      time.Duration
	WriteBufferSize   int
	ProcessBufferSize int
	Logger            log.Logger
	OnMessageSent     func([]byte)
}

// WebsocketConnection pumps frames between a socket and two queues.
type WebsocketConnection struct {
	id            string
	conn          WsConn
	writeTimeout  time.Duration
	logger        log.Logger
	onMessageSent func([]byte)

	writeSink   chan []byte
	processSink chan []byte
	closeCh     chan struct{}

	serveOnce sync.Once
	closeOnce sync.Once
}

func NewWebsocketConnection(conf WebsocketConnectionConfig) (*WebsocketConnection, error) {
	if conf.ConnectionID == "" {
		return nil, errors.New("connection id cannot be empty")
	}
	if conf.Conn == nil {
		return nil, errors.New("websocket connection cannot be nil")
	}
	if conf.Logger == nil {
		conf.Logger = log.NewNoopLogger()
	}
	if conf.WriteTimeout <= 0 {
		conf.WriteTimeout = defaultWriteTimeout
	}
	if conf.WriteBufferSize <= 0 {
		conf.WriteBufferSize = defaultWriteBufferSize
	}
	if conf.ProcessBufferSize <= 0 {
		conf.ProcessBufferSize = defaultProcessBufferSize
	}
	if conf.OnMessageSent == nil {
		conf.OnMessageSent = func([]byte) {}
	}

	return &WebsocketConnection{
		id:            conf.ConnectionID,
		conn:          conf.Conn,
		writeTimeout:  conf.WriteTimeout,
		logger:        conf.Logger.With("connectionId", conf.ConnectionID),
		onMessageSent: conf.OnMessageSent,
		writeSink:     make(chan []byte, conf.WriteBufferSize),
		processSink:   make(chan []byte, conf.ProcessBufferSize),
		closeCh:       make(chan struct{}),
	}, nil
}

func (c *WebsocketConnection) ConnectionID() string       { return c.id }
func (c *WebsocketConnection) RawRequests() <-chan []byte { return c.processSink }

func (c *WebsocketConnection) Write(message []byte) bool {
	timer := time.NewTimer(c.writeTimeout)
	defer timer.Stop()

	select {
	case c.writeSink <- message:
		return true
	case <-c.closeCh:
		return false
	case <-timer.C:
		c.logger.Warn("write queue full, closing connection")
		c.close()
		return false
	}
}

func (c *WebsocketConnection) close() {
	c.closeOnce.Do(func() { close(c.closeCh) })
}

func (c *WebsocketConnection) Serve(ctx context.Context, onClose func(error)) {
	started := false
	c.serveOnce.Do(func() { started = true })
	if !started {
		onClose(errors.New("connection already served"))
		return
	}

	var (
		firstErr error
		errMu    sync.Mutex
		wg       sync.WaitGroup
	)
	record := func(err error) {
		errMu.Lock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		c.close()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		record(c.readLoop())
	}()
	go func() {
		defer wg.Done()
		record(c.writeLoop())
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.close()
		case <-c.closeCh:
		}
		// Closing the socket unblocks the read loop.
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("closing websocket", "err", err)
		}
		wg.Wait()

		errMu.Lock()
		defer errMu.Unlock()
		onClose(firstErr)
	}()
}

func (c *WebsocketConnection) readLoop() error {
	defer close(c.processSink)

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				return nil
			default:
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("websocket closed unexpectedly", "err", err)
				return err
			}
			return nil
		}
		if len(msg) == 0 {
			continue
		}

		select {
		case c.processSink <- msg:
		case <-c.closeCh:
			return nil
		}
	}
}

func (c *WebsocketConnection) writeLoop() error {
	for {
		select {
		case <-c.closeCh:
			return nil
		case msg := <-c.writeSink:
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return err
			}
			if _, err := w.Write(msg); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			c.onMessageSent(msg)
		}
	}
}
