package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client talks to a running daemon over the control surface.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Dial connects to the daemon at addr (host:port).
func Dial(ctx context.Context, addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon at %s: %w (is the daemon running?)", addr, err)
	}
	return &Client{conn: conn, timeout: 10 * time.Second}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// Send sends message and waits for its response. Event messages that
// arrive in the meantime are discarded.
func (c *Client) Send(ctx context.Context, message string) (*ClientResponseMessage, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	c.conn.SetReadDeadline(deadline)
	defer c.conn.SetReadDeadline(time.Time{})
	for {
		data, kind, err := c.read()
		if err != nil {
			return nil, err
		}
		if kind != MessageClientResponse {
			continue
		}
		var resp ClientResponseMessage
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if resp.ClientMessage != message {
			continue
		}
		return &resp, nil
	}
}

// Call sends message and returns an error if the daemon reports failure.
func (c *Client) Call(ctx context.Context, message string, out any) error {
	resp, err := c.Send(ctx, message)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("daemon error: %s", resp.ErrorMessage())
	}
	if out == nil {
		return nil
	}
	return resp.DecodeData(out)
}

// Subscribe subscribes to events and calls fn for each one until ctx is
// done, fn returns an error, or the connection closes. The subscription
// id is passed to onSubscribed before any events arrive.
func (c *Client) Subscribe(ctx context.Context, events []string, onSubscribed func(EventSubscribeData), fn func(*EventSubscriptionMessage) error) error {
	var data EventSubscribeData
	if err := c.Call(ctx, "sub --events "+strings.Join(events, ","), &data); err != nil {
		return err
	}
	if onSubscribed != nil {
		onSubscribed(data)
	}

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		raw, kind, err := c.read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if kind != MessageEventSubscription {
			continue
		}
		var msg EventSubscriptionMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("failed to parse event: %w", err)
		}
		if msg.SubscriptionID != data.SubscriptionID {
			continue
		}
		if err := fn(&msg); err != nil {
			return err
		}
	}
}

func (c *Client) read() ([]byte, MessageType, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read message: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("failed to parse message: %w", err)
	}
	return data, env.MessageType, nil
}

// Query dials addr, sends one message and returns its response.
func Query(ctx context.Context, addr string, message string) (*ClientResponseMessage, error) {
	c, err := Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Send(ctx, message)
}
