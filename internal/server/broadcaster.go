package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/session"
)

const aliveBit = 0x80 // high bit of a frame byte, low bits carry the owner id

// Hub fans session updates out to viewer websockets: a binary grid frame
// per update plus a JSON stats/pending/events message.
type Hub struct {
	sess *session.Session

	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	mu      sync.RWMutex
	writeMu map[*websocket.Conn]*sync.Mutex // per-conn write locks

	lastFrame []byte // most recent grid frame, sent to new clients
	lastStats []byte
}

func NewHub(sess *session.Session) *Hub {
	return &Hub{
		sess:       sess,
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		writeMu:    make(map[*websocket.Conn]*sync.Mutex),
	}
}

// EncodeFrame packs a grid into one byte per cell: owner id in the low bits,
// high bit set when the cell is alive.
func EncodeFrame(g *grid.Grid) []byte {
	frame := make([]byte, grid.CellCount)
	for i := range g.Cells {
		b := g.Cells[i].Owner
		if g.Cells[i].Alive {
			b |= aliveBit
		}
		frame[i] = b
	}
	return frame
}

type statsMessage struct {
	Action    string         `json:"action"`
	Stats     session.Stats  `json:"stats"`
	Pending   []pendingView  `json:"pending"`
	Conflicts [][2]int       `json:"conflicts,omitempty"`
	Events    []economyEvent `json:"events,omitempty"`
}

type pendingView struct {
	ID      string   `json:"id"`
	Pattern string   `json:"pattern"`
	X       int      `json:"x"`
	Y       int      `json:"y"`
	Legal   [][2]int `json:"legal"`
	Illegal [][2]int `json:"illegal"`
}

type economyEvent struct {
	Player uint8 `json:"player"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Amount int64 `json:"amount"`
}

func buildStatsMessage(u session.Update) ([]byte, error) {
	msg := statsMessage{
		Action:    "state",
		Stats:     u.Stats,
		Pending:   make([]pendingView, 0, len(u.Pending)),
		Conflicts: u.Validated.Conflicts,
	}
	for _, p := range u.Pending {
		view := pendingView{ID: p.ID, Pattern: p.Pattern, X: p.CentroidX, Y: p.CentroidY}
		for _, c := range p.Cells {
			if _, bad := u.Validated.Illegal[c]; bad {
				view.Illegal = append(view.Illegal, c)
			} else {
				view.Legal = append(view.Legal, c)
			}
		}
		msg.Pending = append(msg.Pending, view)
	}
	for _, e := range u.Events {
		msg.Events = append(msg.Events, economyEvent{Player: e.Player, X: e.X, Y: e.Y, Amount: e.Amount})
	}
	return json.Marshal(msg)
}

// Run pumps session updates to all connected viewers until the session's
// update channel closes.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.writeMu[conn] = &sync.Mutex{}
			frame, stats := h.lastFrame, h.lastStats
			h.mu.Unlock()

			// Send current state so new viewers draw immediately.
			if frame != nil {
				h.sendTo(conn, websocket.BinaryMessage, frame)
			}
			if stats != nil {
				h.sendTo(conn, websocket.TextMessage, stats)
			}

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				delete(h.writeMu, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case u, ok := <-h.sess.Updates():
			if !ok {
				return
			}
			frame := EncodeFrame(u.Grid)
			stats, err := buildStatsMessage(u)
			if err != nil {
				log.Println("Stats marshal error:", err)
				continue
			}

			h.mu.Lock()
			h.lastFrame = frame
			h.lastStats = stats
			h.mu.Unlock()

			h.broadcast(websocket.BinaryMessage, frame)
			h.broadcast(websocket.TextMessage, stats)
		}
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister <- conn
}

func (h *Hub) sendTo(conn *websocket.Conn, msgType int, data []byte) {
	h.mu.RLock()
	mu, ok := h.writeMu[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}
	mu.Lock()
	err := conn.WriteMessage(msgType, data)
	mu.Unlock()
	if err != nil {
		log.Println("Viewer send error:", err)
		go func() { h.unregister <- conn }()
	}
}

func (h *Hub) broadcast(msgType int, data []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.sendTo(conn, msgType, data)
	}
}
