package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultRetention is the number of events kept when no retention is given
const DefaultRetention = 1000

// InMemoryEventStore keeps the newest events in a fixed size ring. Once the
// ring is full each append evicts the oldest event of any stream. Stream
// versions keep counting across evictions.
type InMemoryEventStore struct {
	ring        []Event
	next        int // slot the next event is written to
	count       int
	versions    map[string]int
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	logger      *logrus.Logger
}

// NewInMemoryEventStore creates an empty store holding at most retention
// events, DefaultRetention when retention is not positive. Subscriber
// failures are reported through logger.
func NewInMemoryEventStore(logger *logrus.Logger, retention int) *InMemoryEventStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &InMemoryEventStore{
		ring:        make([]Event, retention),
		versions:    make(map[string]int),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.versions[streamID]++
	stored := BaseEvent{
		EventID:      event.ID(),
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: s.versions[streamID],
	}

	s.ring[s.next] = stored
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}

	go s.notifySubscribers(stored)

	return nil
}

// ReadEvents returns the retained events of a stream from fromVersion on,
// oldest first
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := make([]Event, 0)
	for i := 0; i < s.count; i++ {
		e := s.at(i)
		if e.StreamID() == streamID && e.Version() >= fromVersion {
			events = append(events, e)
		}
	}
	return events, nil
}

// Recent returns up to limit of the newest events, newest first
func (s *InMemoryEventStore) Recent(limit int) []Event {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 || limit > s.count {
		limit = s.count
	}
	recent := make([]Event, 0, limit)
	for i := s.count - 1; i >= s.count-limit; i-- {
		recent = append(recent, s.at(i))
	}
	return recent
}

// Len returns the number of retained events
func (s *InMemoryEventStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.count
}

// at returns the i-th retained event, 0 being the oldest. Callers hold the lock.
func (s *InMemoryEventStore) at(i int) Event {
	oldest := (s.next - s.count + len(s.ring)) % len(s.ring)
	return s.ring[(oldest+i)%len(s.ring)]
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) notifySubscribers(event Event) {
	s.mutex.RLock()
	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)
	s.mutex.RUnlock()

	for _, handler := range handlers {
		if handler.CanHandle(event.Type()) {
			go func(h EventHandler, e Event) {
				if err := h.Handle(e); err != nil {
					s.logger.WithFields(logrus.Fields{
						"event_id":   e.ID(),
						"event_type": e.Type(),
					}).WithError(err).Error("event handler failed")
				}
			}(handler, event)
		}
	}
}
