package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu         sync.Mutex
	subscribes map[string]int
	active     map[string]func([]byte)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		subscribes: make(map[string]int),
		active:     make(map[string]func([]byte)),
	}
}

func (s *fakeSource) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	s.mu.Lock()
	s.subscribes[topic]++
	s.active[topic] = handler
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	delete(s.active, topic)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSource) emit(topic string, payload []byte) {
	s.mu.Lock()
	handler := s.active[topic]
	s.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
}

func (s *fakeSource) subscribeCount(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes[topic]
}

func (s *fakeSource) isActive(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[topic]
	return ok
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestRegistryAcquireSharesOneSubscription(t *testing.T) {
	source := newFakeSource()
	reg := NewRegistry(source, nil)
	defer reg.Close()

	sub1 := reg.Acquire("channel:user:abc", func([]byte) {})
	sub2 := reg.Acquire("channel:user:abc", func([]byte) {})
	defer sub1.Release()
	defer sub2.Release()

	waitFor(t, func() bool { return source.isActive("channel:user:abc") })
	assert.Equal(t, 1, source.subscribeCount("channel:user:abc"))
	assert.True(t, reg.Active("channel:user:abc"))
}

func TestRegistryDispatchesToEveryHandler(t *testing.T) {
	source := newFakeSource()
	reg := NewRegistry(source, nil)
	defer reg.Close()

	got1 := make(chan []byte, 1)
	got2 := make(chan []byte, 1)
	sub1 := reg.Acquire("topic", func(p []byte) { got1 <- p })
	sub2 := reg.Acquire("topic", func(p []byte) { got2 <- p })
	defer sub1.Release()
	defer sub2.Release()

	waitFor(t, func() bool { return source.isActive("topic") })
	source.emit("topic", []byte("hello"))

	select {
	case p := <-got1:
		assert.Equal(t, []byte("hello"), p)
	case <-time.After(time.Second):
		t.Fatal("first handler never received payload")
	}
	select {
	case p := <-got2:
		assert.Equal(t, []byte("hello"), p)
	case <-time.After(time.Second):
		t.Fatal("second handler never received payload")
	}
}

func TestRegistryReleaseKeepsSharedSubscription(t *testing.T) {
	source := newFakeSource()
	reg := NewRegistry(source, nil)
	defer reg.Close()

	sub1 := reg.Acquire("topic", func([]byte) {})
	sub2 := reg.Acquire("topic", func([]byte) {})
	waitFor(t, func() bool { return source.isActive("topic") })

	sub1.Release()
	assert.True(t, reg.Active("topic"))
	assert.True(t, source.isActive("topic"))

	sub2.Release()
	assert.False(t, reg.Active("topic"))
	waitFor(t, func() bool { return !source.isActive("topic") })
}

func TestRegistryReleaseIsIdempotent(t *testing.T) {
	source := newFakeSource()
	reg := NewRegistry(source, nil)
	defer reg.Close()

	sub1 := reg.Acquire("topic", func([]byte) {})
	sub2 := reg.Acquire("topic", func([]byte) {})
	waitFor(t, func() bool { return source.isActive("topic") })

	sub1.Release()
	sub1.Release()
	assert.True(t, reg.Active("topic"))

	sub2.Release()
	assert.False(t, reg.Active("topic"))
}

func TestRegistryReacquireOpensFreshSubscription(t *testing.T) {
	source := newFakeSource()
	reg := NewRegistry(source, nil)
	defer reg.Close()

	sub := reg.Acquire("topic", func([]byte) {})
	waitFor(t, func() bool { return source.isActive("topic") })
	sub.Release()
	waitFor(t, func() bool { return !source.isActive("topic") })

	sub2 := reg.Acquire("topic", func([]byte) {})
	defer sub2.Release()
	waitFor(t, func() bool { return source.isActive("topic") })
	assert.Equal(t, 2, source.subscribeCount("topic"))
}

func TestRegistryCloseTearsDownEverything(t *testing.T) {
	source := newFakeSource()
	reg := NewRegistry(source, nil)

	reg.Acquire("a", func([]byte) {})
	reg.Acquire("b", func([]byte) {})
	waitFor(t, func() bool { return source.isActive("a") && source.isActive("b") })

	reg.Close()
	assert.False(t, reg.Active("a"))
	assert.False(t, reg.Active("b"))
	waitFor(t, func() bool { return !source.isActive("a") && !source.isActive("b") })

	// Acquire after close hands back an inert subscription.
	sub := reg.Acquire("a", func([]byte) {})
	assert.False(t, reg.Active("a"))
	sub.Release()
}
