package websocket

import (
	"sync"

	"scholarline/internal/events"
)

type bridgeSub struct {
	sub   *events.Subscription
	count int
}

// Bridge ties hub channels to the subscription registry: the first client
// on a channel opens the registry subscription that feeds the hub, and the
// last one off closes it again.
type Bridge struct {
	mu       sync.Mutex
	hub      *Hub
	registry *events.Registry
	subs     map[string]*bridgeSub
}

func NewBridge(hub *Hub, registry *events.Registry) *Bridge {
	return &Bridge{
		hub:      hub,
		registry: registry,
		subs:     make(map[string]*bridgeSub),
	}
}

// Subscribe attaches a client to a channel and makes sure payloads
// published on it reach the hub.
func (b *Bridge) Subscribe(client *Client, channel string) {
	b.hub.Subscribe(client, channel)

	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.subs[channel]; ok {
		s.count++
		return
	}
	sub := b.registry.Acquire(channel, func(payload []byte) {
		b.hub.Broadcast(channel, payload)
	})
	b.subs[channel] = &bridgeSub{sub: sub, count: 1}
}

// Unsubscribe detaches a client; the registry subscription is released
// once no client on this hub needs the channel.
func (b *Bridge) Unsubscribe(client *Client, channel string) {
	b.hub.Unsubscribe(client, channel)
	b.release(channel)
}

// Disconnect drops a client and every channel it held.
func (b *Bridge) Disconnect(client *Client) {
	channels := client.Channels()
	b.hub.Unregister(client)
	for _, ch := range channels {
		b.release(ch)
	}
}

func (b *Bridge) release(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.subs[channel]
	if !ok {
		return
	}
	s.count--
	if s.count <= 0 {
		s.sub.Release()
		delete(b.subs, channel)
	}
}
