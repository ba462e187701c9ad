package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/websocket"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/bus"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
)

// TopicSnapshot is the first frame of every stream.
const TopicSnapshot = "overlay.snapshot"

// StreamFrame is one websocket message of the overlay stream.
type StreamFrame struct {
	Type        string          `json:"type"`
	CharacterID string          `json:"character_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	At          time.Time       `json:"at"`
}

type streamPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *streamPeer) write(topic, characterID string, payload any, at time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(StreamFrame{Type: topic, CharacterID: characterID, Payload: raw, At: at})
}

func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := h.controller(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		serveStream(conn, h.events, id, c)
	}).ServeHTTP(w, r)
}

func serveStream(conn *websocket.Conn, events *bus.Bus, characterID string, c *overlay.Controller) {
	defer func() {
		_ = conn.Close()
	}()

	// Subscribe before the snapshot so no event falls between the two.
	var ch <-chan bus.Event
	cancelSub := func() {}
	if events != nil {
		ch, cancelSub = events.Subscribe(characterID)
	}
	defer cancelSub()

	peer := &streamPeer{encoder: json.NewEncoder(conn)}
	if err := peer.write(TopicSnapshot, characterID, c.Snapshot(), time.Now()); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	go func() {
		// Client frames are ignored; a read error means the peer left.
		_, _ = io.Copy(io.Discard, conn)
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := peer.write(string(e.Topic), e.CharacterID, e.Payload, e.At); err != nil {
				log.Printf("dice: stream %s: %v", characterID, err)
				return
			}
		}
	}
}
