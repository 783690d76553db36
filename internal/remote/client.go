// Package remote speaks to the authoritative territory-war service over one
// websocket connection using JSON envelopes dispatched on an action field.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/wire"
)

// PlacementResult is the service's answer to a batched placement: how many
// cells it actually placed, or a textual rejection reason. Rejection is not
// a transport error; the caller surfaces the reason and lets the next
// accepted snapshot correct the optimistic local state.
type PlacementResult struct {
	Placed   int
	Rejected string
}

type request struct {
	Action string   `json:"action"`
	ID     uint64   `json:"id"`
	Cells  [][2]int `json:"cells,omitempty"`
	Slot   uint8    `json:"slot,omitempty"`
}

type response struct {
	ID        uint64              `json:"id"`
	Error     string              `json:"error,omitempty"`
	State     *wire.StateSnapshot `json:"state,omitempty"`
	Placed    *int                `json:"placed,omitempty"`
	Rejection string              `json:"rejection,omitempty"`
	Balance   *int64              `json:"balance,omitempty"`
}

// Client is safe for concurrent calls; writes are serialized and responses
// are matched to callers by request id. A dropped connection fails the
// in-flight calls and is re-dialed by the next call, so the session's timer
// cadence doubles as the reconnect path.
type Client struct {
	url string

	writeMu sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  uint64
	pending map[uint64]chan response
	lost    bool // read pump ended, next call re-dials
	stopped bool // Close called, no more re-dials
}

// Dial connects to the service websocket endpoint and starts the read pump.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		url:     url,
		conn:    conn,
		pending: make(map[uint64]chan response),
	}
	go c.readPump(conn)
	return c, nil
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.connLost(conn, err)
			return
		}
		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			log.Println("remote: bad frame:", err)
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// connLost unblocks every in-flight call and marks the client for re-dial.
// A pump whose connection was already replaced changes nothing.
func (c *Client) connLost(conn *websocket.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	if !c.stopped {
		log.Println("remote: connection lost:", err)
	}
	c.lost = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
}

func (c *Client) call(ctx context.Context, req request) (response, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return response{}, fmt.Errorf("remote: client closed")
	}
	if c.lost {
		// Reconnect lazily. Transport failure mutates no session state;
		// the timers retry through here, so the cycle after a drop
		// re-establishes the connection.
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.mu.Unlock()
			return response{}, fmt.Errorf("redial %s: %w", c.url, err)
		}
		c.conn = conn
		c.lost = false
		go c.readPump(conn)
	}
	conn := c.conn
	c.nextID++
	req.ID = c.nextID
	ch := make(chan response, 1)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return response{}, fmt.Errorf("remote: write %s: %w", req.Action, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return response{}, fmt.Errorf("remote: connection lost")
		}
		if resp.Error != "" {
			return response{}, fmt.Errorf("remote: %s: %s", req.Action, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return response{}, ctx.Err()
	}
}

// FetchState requests the full authoritative snapshot.
func (c *Client) FetchState(ctx context.Context) (*wire.StateSnapshot, error) {
	resp, err := c.call(ctx, request{Action: "fetch_state"})
	if err != nil {
		return nil, err
	}
	if resp.State == nil {
		return nil, fmt.Errorf("remote: fetch_state: empty state")
	}
	return resp.State, nil
}

// SubmitPlacement sends one batched list of expanded cells.
func (c *Client) SubmitPlacement(ctx context.Context, cells [][2]int) (PlacementResult, error) {
	resp, err := c.call(ctx, request{Action: "place_cells", Cells: cells})
	if err != nil {
		return PlacementResult{}, err
	}
	if resp.Rejection != "" {
		return PlacementResult{Rejected: resp.Rejection}, nil
	}
	if resp.Placed == nil {
		return PlacementResult{}, fmt.Errorf("remote: place_cells: empty response")
	}
	return PlacementResult{Placed: *resp.Placed}, nil
}

// Balance queries one player slot's coin balance.
func (c *Client) Balance(ctx context.Context, slot uint8) (int64, error) {
	resp, err := c.call(ctx, request{Action: "balance", Slot: slot})
	if err != nil {
		return 0, err
	}
	if resp.Balance == nil {
		return 0, fmt.Errorf("remote: balance: empty response")
	}
	return *resp.Balance, nil
}

// Close tears the client down for good; in-flight calls fail and no
// re-dial happens afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.stopped = true
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
