package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantship/crossarb/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// QuoteHandler receives one updated quote per WebSocket price event, keyed by
// the CLOB token id.
type QuoteHandler func(instrumentID string, quote domain.PriceQuote)

// PriceFeed streams real-time price updates for subscribed CLOB tokens over
// the Polymarket market-data WebSocket. Book snapshots, price changes, and
// last-trade messages are all collapsed into quote updates.
type PriceFeed struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// Token ids to restore on reconnect.
	assets []string

	handlerMu sync.RWMutex
	handlers  []QuoteHandler

	// done is closed when the feed is shut down.
	done chan struct{}
}

// NewPriceFeed creates a price feed for the given WebSocket endpoint,
// e.g. "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewPriceFeed(wsURL string) *PriceFeed {
	return &PriceFeed{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// OnQuote registers a handler invoked for every price update.
func (f *PriceFeed) OnQuote(handler QuoteHandler) {
	f.handlerMu.Lock()
	defer f.handlerMu.Unlock()
	f.handlers = append(f.handlers, handler)
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Previously subscribed tokens are re-subscribed.
func (f *PriceFeed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("polymarket/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}
	f.conn = conn

	f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go f.readLoop()
	go f.pingLoop()

	if len(f.assets) > 0 {
		if err := f.sendCommand(WSCommand{Type: "subscribe", Channel: "market", Assets: f.assets}); err != nil {
			return fmt.Errorf("polymarket/ws: restore subscription: %w", err)
		}
	}
	return nil
}

// Subscribe adds token ids to the market channel subscription.
func (f *PriceFeed) Subscribe(assetIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}
	if err := f.sendCommand(WSCommand{Type: "subscribe", Channel: "market", Assets: assetIDs}); err != nil {
		return fmt.Errorf("polymarket/ws: subscribe: %w", err)
	}
	f.assets = append(f.assets, assetIDs...)
	return nil
}

// Close shuts down the connection and stops the loops.
func (f *PriceFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)

	if f.conn != nil {
		_ = f.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return f.conn.Close()
	}
	return nil
}

// sendCommand sends a JSON command to the WebSocket. Caller must hold f.mu.
func (f *PriceFeed) sendCommand(cmd WSCommand) error {
	f.conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return f.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads frames until disconnect, then reconnects with backoff.
func (f *PriceFeed) readLoop() {
	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
				return
			default:
			}
			f.reconnect()
			return // readLoop is restarted by reconnect -> Connect
		}

		f.handleMessage(message)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (f *PriceFeed) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()

			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses one frame and emits a quote update when it carries a
// usable price. Unparseable frames are dropped silently.
func (f *PriceFeed) handleMessage(raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	var quote domain.PriceQuote
	switch msg.EventType {
	case "book":
		price, size, found := bestLevel(msg.Asks, false)
		if !found {
			return
		}
		quote = domain.PriceQuote{
			Probability:  price,
			Source:       domain.QuoteSourceOrderbook,
			DepthDollars: price * size,
			Timestamp:    time.Now().UTC(),
		}
	case "price_change", "last_trade_price":
		price, err := strconv.ParseFloat(msg.Price, 64)
		if err != nil || price <= 0 || price >= 1 {
			return
		}
		size, _ := strconv.ParseFloat(msg.Size, 64)
		quote = domain.PriceQuote{
			Probability:  price,
			Source:       domain.QuoteSourceLastTrade,
			DepthDollars: price * size,
			Timestamp:    time.Now().UTC(),
		}
	default:
		return
	}

	f.handlerMu.RLock()
	handlers := f.handlers
	f.handlerMu.RUnlock()

	for _, h := range handlers {
		h(msg.AssetID, quote)
	}
}

// reconnect re-establishes the connection with exponential backoff. It blocks
// until successful or the feed is closed.
func (f *PriceFeed) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-f.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := f.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
