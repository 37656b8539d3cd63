package events

import (
	"context"
	"sync"

	"scholarline/pkg/logger"
)

// Handler receives the raw payload published on a topic.
type Handler func(payload []byte)

// Registry is the process-wide owner of live topic subscriptions. The
// real-time transport tolerates exactly one logical listener per topic, so
// Acquire is reference-counted: the first acquirer opens the underlying
// subscription, later acquirers share it, and the last Release tears it
// down. Teardown failures are logged and swallowed.
type Registry struct {
	mu     sync.Mutex
	source Source
	log    *logger.Logger
	topics map[string]*topicState
	closed bool
}

type topicState struct {
	cancel   context.CancelFunc
	handlers map[uint64]Handler
	nextID   uint64
}

// Subscription is the handle returned by Acquire. Release is safe to call
// more than once.
type Subscription struct {
	registry *Registry
	topic    string
	id       uint64
	once     sync.Once
}

func NewRegistry(source Source, log *logger.Logger) *Registry {
	return &Registry{
		source: source,
		log:    log,
		topics: make(map[string]*topicState),
	}
}

// Acquire attaches a handler to the topic, opening the underlying
// subscription only if the topic is not already live.
func (r *Registry) Acquire(topic string, h Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return &Subscription{registry: r, topic: topic}
	}

	st, ok := r.topics[topic]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		st = &topicState{
			cancel:   cancel,
			handlers: make(map[uint64]Handler),
		}
		r.topics[topic] = st
		go r.listen(ctx, topic)
	}

	st.nextID++
	id := st.nextID
	st.handlers[id] = h
	return &Subscription{registry: r, topic: topic, id: id}
}

func (r *Registry) listen(ctx context.Context, topic string) {
	err := r.source.Subscribe(ctx, topic, func(payload []byte) {
		r.dispatch(topic, payload)
	})
	if err != nil && ctx.Err() == nil && r.log != nil {
		r.log.Errorf("subscription for %s ended: %v", topic, err)
	}
}

func (r *Registry) dispatch(topic string, payload []byte) {
	r.mu.Lock()
	st, ok := r.topics[topic]
	if !ok {
		r.mu.Unlock()
		return
	}
	handlers := make([]Handler, 0, len(st.handlers))
	for _, h := range st.handlers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
}

func (r *Registry) release(topic string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.topics[topic]
	if !ok {
		return
	}
	delete(st.handlers, id)
	if len(st.handlers) == 0 {
		st.cancel()
		delete(r.topics, topic)
	}
}

// Active reports whether the topic has a live subscription.
func (r *Registry) Active(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.topics[topic]
	return ok
}

// Close tears down every active subscription, best effort.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for topic, st := range r.topics {
		st.cancel()
		delete(r.topics, topic)
	}
	r.closed = true
}

func (s *Subscription) Release() {
	s.once.Do(func() {
		if s.id != 0 {
			s.registry.release(s.topic, s.id)
		}
	})
}

func (s *Subscription) Topic() string {
	return s.topic
}
