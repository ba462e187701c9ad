// Package bus fans dice overlay events out to subscribers.
//
// Publishing never blocks: a subscriber whose buffer is full misses the
// event and the drop is counted. Frames are lossy and may fill only half of
// a subscriber's buffer, so the other half is always free for lifecycle
// events such as a resolved roll.
package bus

import (
	"sync"
	"time"
)

// Topic names an event type.
type Topic string

const (
	TopicSelection Topic = "overlay.selection"
	TopicRollStart Topic = "overlay.roll.started"
	TopicFrame     Topic = "overlay.frame"
	TopicResolved  Topic = "overlay.roll.resolved"
	TopicToggle    Topic = "overlay.die.toggled"
	TopicReroll    Topic = "overlay.reroll"
	TopicRefused   Topic = "overlay.refused"
	TopicWiped     Topic = "overlay.wiped"
	TopicTracks    Topic = "sheet.tracks"
)

// Event is one published message.
type Event struct {
	Topic       Topic     `json:"topic"`
	CharacterID string    `json:"character_id"`
	Payload     any       `json:"payload,omitempty"`
	At          time.Time `json:"at"`
}

const (
	defaultBuffer = 64
	lossyShare    = defaultBuffer / 2
)

// Lossy reports whether subscribers may miss the topic under load. Only
// animation frames are; a later frame supersedes an earlier one.
func (t Topic) Lossy() bool {
	return t == TopicFrame
}

type subscriber struct {
	ch        chan Event
	character string
	topics    map[Topic]struct{}
}

func (s *subscriber) wants(e Event) bool {
	if s.character != "" && s.character != e.CharacterID {
		return false
	}
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[e.Topic]
	return ok
}

// Bus is an in-process publish/subscribe hub. The zero value is not usable;
// call New.
type Bus struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	dropped     int
	clock       func() time.Time
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[*subscriber]struct{}),
		clock:       time.Now,
	}
}

// Subscribe registers interest in events for one character, or every
// character when characterID is empty, limited to topics when any are given.
// The returned cancel closes the channel.
func (b *Bus) Subscribe(characterID string, topics ...Topic) (<-chan Event, func()) {
	sub := &subscriber{
		ch:        make(chan Event, defaultBuffer),
		character: characterID,
	}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, sub)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish delivers an event to every interested subscriber.
func (b *Bus) Publish(topic Topic, characterID string, payload any) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	e := Event{Topic: topic, CharacterID: characterID, Payload: payload, At: b.clock()}
	for sub := range b.subscribers {
		if !sub.wants(e) {
			continue
		}
		if topic.Lossy() && len(sub.ch) >= lossyShare {
			b.dropped++
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were skipped on full buffers.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
