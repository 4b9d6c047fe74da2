// Package notification fans out catalog, countdown, and player updates to
// connected subscribers.
package notification

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/releasebox/internal/api/apiv1"
)

// DefaultSendTimeout bounds a single stream send during Broadcast.
// A subscriber that exceeds it is evicted.
const DefaultSendTimeout = 500 * time.Millisecond

// ErrSubscriptionClosed is returned when sending on a closed subscription.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*apiv1.Notification) error
}

// Subscription is one subscriber's view of the broadcast.
//
// Sends are serialized. Close waits for an in-flight send to finish, so once
// Close returns the stream is never written again.
type Subscription struct {
	id      string
	manager *Manager
	stream  Stream

	mu     sync.Mutex // held for the duration of a send
	closed bool

	done     chan struct{}
	doneOnce sync.Once
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.id
}

// Done is closed when the subscription is evicted or the manager shuts down.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Send stamps the notification with the next sequence number and writes it
// to this subscriber only.
func (s *Subscription) Send(notification *apiv1.Notification) error {
	notification.SequenceNo = s.manager.NextSequenceNo()
	return s.send(notification)
}

// Close removes the subscription and waits for any in-flight send.
// It is safe to call repeatedly.
func (s *Subscription) Close() {
	s.manager.remove(s.id)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.signalDone()
}

func (s *Subscription) send(notification *apiv1.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriptionClosed
	}
	select {
	case <-s.done:
		return ErrSubscriptionClosed
	default:
	}
	return s.stream.Send(notification)
}

func (s *Subscription) signalDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	sequenceNo    atomic.Uint64
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*Subscription),
		sendTimeout:   DefaultSendTimeout,
	}
}

// Subscribe registers stream and returns its subscription.
// The caller must Close the subscription when the stream ends.
func (m *Manager) Subscribe(stream Stream) *Subscription {
	sub := m.newSubscription(stream)

	m.mu.Lock()
	m.subscriptions[sub.id] = sub
	count := len(m.subscriptions)
	m.mu.Unlock()

	zlog.Debug().Msgf("notification: subscribed: id=%s subscribers=%d", sub.id, count)
	return sub
}

// SubscribeWithState registers stream and sends it the notification built by
// state before any broadcast. Broadcasts stamped after registration carry
// higher sequence numbers than the state notification, and earlier ones are
// not delivered to it.
func (m *Manager) SubscribeWithState(stream Stream, state func() *apiv1.Notification) (*Subscription, error) {
	sub := m.newSubscription(stream)

	// Broadcasts reaching the new subscription wait here until the state is written.
	sub.mu.Lock()

	m.mu.Lock()
	m.subscriptions[sub.id] = sub
	count := len(m.subscriptions)
	initial := state()
	initial.SequenceNo = m.NextSequenceNo()
	m.mu.Unlock()

	err := stream.Send(initial)
	sub.mu.Unlock()

	if err != nil {
		sub.Close()
		return nil, errors.Wrap(err, "failed to send initial state")
	}

	zlog.Debug().Msgf("notification: subscribed: id=%s subscribers=%d sequence_no=%d", sub.id, count, initial.SequenceNo)
	return sub, nil
}

func (m *Manager) newSubscription(stream Stream) *Subscription {
	return &Subscription{
		id:      uuid.New().String(),
		manager: m,
		stream:  stream,
		done:    make(chan struct{}),
	}
}

// NextSequenceNo returns the next sequence number.
func (m *Manager) NextSequenceNo() uint64 {
	return m.sequenceNo.Add(1)
}

// Broadcast stamps the notification with the next sequence number and sends
// it to every subscriber concurrently. It returns once each send has finished
// or timed out. Timed-out subscribers are evicted.
func (m *Manager) Broadcast(notification *apiv1.Notification) {
	m.mu.RLock()
	notification.SequenceNo = m.NextSequenceNo()
	subs := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			m.deliver(s, notification)
		}(sub)
	}
	wg.Wait()
}

// deliver sends to one subscriber, bounded by the send timeout.
func (m *Manager) deliver(s *Subscription, notification *apiv1.Notification) {
	result := make(chan error, 1)
	go func() {
		result <- s.send(notification)
	}()

	timer := time.NewTimer(m.sendTimeout)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil && !errors.Is(err, ErrSubscriptionClosed) {
			zlog.Debug().Err(err).Msgf("notification: send failed: id=%s type=%s", s.id, notification.Type)
		}
	case <-timer.C:
		// The pending send finishes under the subscription lock; Close waits for it.
		zlog.Warn().Msgf("notification: subscriber too slow, evicting: id=%s type=%s", s.id, notification.Type)
		m.remove(s.id)
		s.signalDone()
	case <-s.done:
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close signals every subscription to end and removes them.
// Streams are released by their owners calling Subscription.Close.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := m.subscriptions
	m.subscriptions = make(map[string]*Subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.signalDone()
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	_, ok := m.subscriptions[id]
	delete(m.subscriptions, id)
	count := len(m.subscriptions)
	m.mu.Unlock()

	if ok {
		zlog.Debug().Msgf("notification: unsubscribed: id=%s subscribers=%d", id, count)
	}
}
