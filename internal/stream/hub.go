// Package stream fans live position updates out to control-API clients.
// The hub keeps per-track subscriber sets in process and mirrors every
// payload through Redis when one is configured, so a companion display
// on another host can follow the same track.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "positions:"
	channelSuffix  = ":live"
	channelPattern = channelPrefix + "*" + channelSuffix
)

type Hub struct {
	id    string
	redis *redis.Client

	mu     sync.RWMutex
	tracks map[string]map[*Subscriber]struct{}
}

// Subscriber receives one track's position payloads. Send is closed by
// Unregister; only the hub ever closes it.
type Subscriber struct {
	TrackID string
	Send    chan []byte
}

// remoteEnvelope wraps mirrored payloads with the publishing hub's id so
// a hub never re-delivers its own broadcasts.
type remoteEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:     uuid.NewString(),
		redis:  redisClient,
		tracks: map[string]map[*Subscriber]struct{}{},
	}

	if redisClient != nil {
		go h.mirrorRemote()
	}
	return h
}

func (h *Hub) Register(trackID string) *Subscriber {
	sub := &Subscriber{
		TrackID: trackID,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tracks[trackID] == nil {
		h.tracks[trackID] = map[*Subscriber]struct{}{}
	}
	h.tracks[trackID][sub] = struct{}{}
	return sub
}

func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.tracks[sub.TrackID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.tracks, sub.TrackID)
	}
	// Closing under the write lock means deliver, which sends under the
	// read lock, can never race a close.
	close(sub.Send)
}

// Broadcast delivers to local subscribers and mirrors the payload
// through Redis for hubs on other hosts.
func (h *Hub) Broadcast(trackID string, payload []byte) {
	h.deliver(trackID, payload)

	if h.redis == nil {
		return
	}
	envelope, err := json.Marshal(remoteEnvelope{Origin: h.id, Payload: payload})
	if err != nil {
		return
	}
	if err := h.redis.Publish(context.Background(), trackChannel(trackID), envelope).Err(); err != nil {
		log.Printf("[stream] redis publish failed for track %s: %v", trackID, err)
	}
}

// deliver sends without blocking; a slow subscriber drops samples rather
// than stalling the recorder.
func (h *Hub) deliver(trackID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.tracks[trackID] {
		select {
		case sub.Send <- payload:
		default:
		}
	}
}

func (h *Hub) mirrorRemote() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		trackID := trackIDFromChannel(msg.Channel)
		if trackID == "" {
			continue
		}

		var envelope remoteEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("[stream] bad mirrored payload on %s: %v", msg.Channel, err)
			continue
		}
		if envelope.Origin == h.id {
			continue
		}
		h.deliver(trackID, envelope.Payload)
	}
}

func trackChannel(trackID string) string {
	return channelPrefix + trackID + channelSuffix
}

func trackIDFromChannel(ch string) string {
	trackID, ok := strings.CutPrefix(ch, channelPrefix)
	if !ok {
		return ""
	}
	trackID, ok = strings.CutSuffix(trackID, channelSuffix)
	if !ok || trackID == "" {
		return ""
	}
	return trackID
}
