package internal

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	reconnectDelay = 1 * time.Second
	writeWait      = 1 * time.Second
)

type WsMessage struct {
	Type    int
	Message []byte
	Err     error
}
type WsMessageHandler func(message WsMessage)

// WebSocketClient is a reconnecting gorilla/websocket wrapper. The endpoint
// can be swapped between connections (the summary feed URL carries the symbol
// list as a query parameter), and reconnects are delayed by the base delay
// plus jitter so a flapping backend isn't hammered in lockstep.
type WebSocketClient struct {
	endpoint     string
	conn         *websocket.Conn
	send         chan WsMessage
	receive      chan WsMessage
	reconnect    chan struct{}
	mu           sync.Mutex
	once         sync.Once
	reconnecting bool
	connected    bool
	Closed       bool
	onConnect    func() error
	onDisconnect func() error
	onMessage    WsMessageHandler
	retryDelay   time.Duration
	log          *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewWebSocketClient(endpoint string) *WebSocketClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketClient{
		endpoint:   endpoint,
		send:       make(chan WsMessage, 256),
		receive:    make(chan WsMessage, 256),
		reconnect:  make(chan struct{}, 1),
		retryDelay: reconnectDelay,
		ctx:        ctx,
		cancel:     cancel,
		log:        slog.Default(),
	}
}

// SetReconnectDelay overrides the base delay between reconnect attempts.
func (c *WebSocketClient) SetReconnectDelay(delay time.Duration) {
	if delay > 0 {
		c.retryDelay = delay
	}
}

// SetEndpoint changes the URL used by the next dial. An already-open
// connection is not touched; callers renegotiate over it instead.
func (c *WebSocketClient) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}

func (c *WebSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *WebSocketClient) SendMessage(message WsMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.log.Warn("SendMessage: send channel is full, dropping message")
	}
}

func (c *WebSocketClient) SendMessageJSON(msgType int, message interface{}) error {
	data, err := sonic.Marshal(message)
	if err != nil {
		return err
	}

	c.SendMessage(WsMessage{Type: msgType, Message: data})

	return nil
}

func (c *WebSocketClient) Start() {
	go c.startListening()
	go func() {
		for {
			select {
			case <-c.ctx.Done():
				c.log.Info("WebSocket client context canceled")
				return
			default:
				if err := c.connect(); err != nil {
					c.log.Error("connection error", "error", err)
					c.sleepBeforeReconnect()
					continue
				}

				select {
				case <-c.ctx.Done():
					c.log.Info("Closing WebSocket client")
					c.handleDisconnect()
					return
				case <-c.reconnect:
					c.sleepBeforeReconnect()
					c.log.Info("Reconnecting...")
					continue
				}
			}
		}
	}()
}

func (c *WebSocketClient) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.Closed = true
		c.mu.Unlock()
		c.cancel()
		c.handleDisconnect()
	})
}

func (c *WebSocketClient) Reconnect() {
	c.handleDisconnect()
	c.handleReconnection()
}

func (c *WebSocketClient) SetOnConnect(handler func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = handler
}

func (c *WebSocketClient) SetOnDisconnect(handler func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = handler
}

func (ws *WebSocketClient) SetLogger(logger *slog.Logger) {
	ws.log = logger
}

func (ws *WebSocketClient) SetMessageHandler(handler WsMessageHandler) {
	ws.onMessage = handler
}

func (c *WebSocketClient) sleepBeforeReconnect() {
	// base delay plus up to half again of jitter
	delay := c.retryDelay
	if half := int64(c.retryDelay / 2); half > 0 {
		delay += time.Duration(rand.Int63n(half))
	}
	select {
	case <-c.ctx.Done():
	case <-time.After(delay):
	}
}

func (c *WebSocketClient) connect() error {
	c.mu.Lock()
	endpoint := c.endpoint
	c.mu.Unlock()

	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(655350)

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.reconnecting = false
	c.mu.Unlock()

	if c.onMessage == nil {
		return fmt.Errorf("onMessage handler not set")
	}

	go c.writePump(conn)
	go c.readPump(conn)

	c.log.Info("Connected", "endpoint", u.Redacted())

	if c.onConnect != nil {
		c.onConnect()
	}

	return nil
}

func (c *WebSocketClient) readPump(conn *websocket.Conn) {
	defer c.handleReconnection()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msgType, message, err := conn.ReadMessage()
			if err != nil {
				c.log.Error("read error", "error", err.Error())
				c.handleDisconnect()
				return
			}
			select {
			case c.receive <- WsMessage{Type: msgType, Message: message}:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *WebSocketClient) writePump(conn *websocket.Conn) {
	defer c.handleReconnection()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message := <-c.send:
			if err := c.write(message.Type, message.Message); err != nil {
				c.log.Error("write error", "error", err)
				c.handleDisconnect()
				return
			}
		}
	}
}

func (c *WebSocketClient) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("connection is nil")
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *WebSocketClient) handleReconnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return
	}
	if !c.reconnecting {
		c.reconnecting = true
		select {
		case c.reconnect <- struct{}{}:
		default:
		}
	}
}

func (c *WebSocketClient) handleDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}

func (c *WebSocketClient) startListening() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.receive:
			if c.onMessage != nil {
				c.onMessage(msg)
			}
		}
	}
}
