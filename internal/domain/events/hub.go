package events

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	sendBuffer    = 16
	timeLayoutUTC = "2006-01-02T15:04:05.000Z"
)

// listener is one websocket peer. Only its writePump writes to conn.
type listener struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to every connected websocket.
type Hub struct {
	connections map[int64]*listener
	nextID      int64
	mutex       sync.Mutex
	now         func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*listener),
		now:         time.Now,
	}
}

// Register adds conn, starts its writer and returns the id used to
// unregister it.
func (h *Hub) Register(conn *websocket.Conn) int64 {
	l := &listener{conn: conn, send: make(chan Event, sendBuffer)}

	h.mutex.Lock()
	h.nextID++
	id := h.nextID
	h.connections[id] = l
	h.mutex.Unlock()

	go h.writePump(id, l)
	return id
}

func (h *Hub) Unregister(id int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.unregisterLocked(id)
}

// Publish broadcasts an event without waiting on any peer.
func (h *Hub) Publish(kind, filename string) {
	h.Broadcast(Event{
		Type:      kind,
		Filename:  filename,
		Timestamp: h.now().UTC().Format(timeLayoutUTC),
	})
}

// Broadcast queues ev for every connection and returns how many took it.
// A peer whose queue is full has stopped reading and is dropped.
func (h *Hub) Broadcast(ev Event) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	queued := 0
	for id, l := range h.connections {
		select {
		case l.send <- ev:
			queued++
		default:
			h.unregisterLocked(id)
		}
	}
	return queued
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id := range h.connections {
		h.unregisterLocked(id)
	}
}

func (h *Hub) writePump(id int64, l *listener) {
	for ev := range l.send {
		_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := l.conn.WriteJSON(ev); err != nil {
			h.Unregister(id)
			return
		}
	}
}

// unregisterLocked closes the queue and the socket. Closing the socket
// also unblocks a writer stuck on a slow peer.
func (h *Hub) unregisterLocked(id int64) {
	if l, ok := h.connections[id]; ok {
		delete(h.connections, id)
		close(l.send)
		_ = l.conn.Close()
	}
}
