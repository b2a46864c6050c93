// Package notify pushes deck change events to websocket subscribers.
package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/deckedit/internal/edit"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// EventDeckUpdated is sent after an edit changed a deck.
const EventDeckUpdated = "deck_updated"

// Event is the JSON message delivered to subscribers.
type Event struct {
	Type    string       `json:"type"`
	DeckID  string       `json:"deck_id"`
	Source  string       `json:"source,omitempty"`
	Command edit.Command `json:"command"`
	Result  edit.Result  `json:"result"`
	At      time.Time    `json:"at"`
}

type subscriber struct {
	deckID string
	send   chan []byte
}

// Hub fans events out to the subscribers of each deck.
type Hub struct {
	log  *slog.Logger
	upgr websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub returns an empty hub. A nil logger discards output.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		log:  log,
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers ev to every subscriber of ev.DeckID. Subscribers whose
// buffer is full are disconnected.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[ev.DeckID] {
		select {
		case s.send <- data:
		default:
			h.log.Warn("dropping slow subscriber", "deck_id", ev.DeckID)
			h.removeLocked(s)
		}
	}
}

// Subscribers returns the number of live subscribers for deckID.
func (h *Hub) Subscribers(deckID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[deckID])
}

func (h *Hub) add(deckID string) *subscriber {
	s := &subscriber{deckID: deckID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[deckID]
	if set == nil {
		set = make(map[*subscriber]struct{})
		h.subs[deckID] = set
	}
	set[s] = struct{}{}
	return s
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *subscriber) {
	set := h.subs[s.deckID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.send)
	if len(set) == 0 {
		delete(h.subs, s.deckID)
	}
}

// Serve upgrades the request and streams deckID's events until the client
// goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, deckID string) {
	wc, err := h.upgr.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "deck_id", deckID, "error", err)
		return
	}
	s := h.add(deckID)
	h.log.Info("subscriber connected", "deck_id", deckID)

	go h.write(wc, s)
	h.read(wc)
	h.remove(s)
	h.log.Info("subscriber disconnected", "deck_id", deckID)
}

// read discards client messages; it returns when the connection closes.
func (h *Hub) read(wc *websocket.Conn) {
	for {
		if _, _, err := wc.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read", "error", err)
			}
			return
		}
	}
}

func (h *Hub) write(wc *websocket.Conn, s *subscriber) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	defer wc.Close()
	for {
		select {
		case msg, ok := <-s.send:
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				wc.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wc.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-t.C:
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
