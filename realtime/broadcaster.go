package realtime

import (
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// envelope is the wire frame for every realtime message.
type envelope struct {
	Event string       `json:"event"`
	Data  domain.Event `json:"data"`
}

// Broadcaster fans typed events out to project rooms. Delivery is
// fire-and-forget: no acknowledgment, no retry, and a room with zero members
// just drops the event. Publishing is serialized through one mutex so events
// for the same room leave this process in FIFO order.
type Broadcaster struct {
	registry *RoomRegistry
	logger   *log.Logger

	mu sync.Mutex
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *RoomRegistry, logger *log.Logger) *Broadcaster {
	if registry == nil {
		panic("realtime.NewBroadcaster: registry is nil")
	}
	return &Broadcaster{registry: registry, logger: logger}
}

// Publish delivers evt to every connection currently in projectID's room and
// to no one else. Errors never reach the caller: the realtime channel is a
// best-effort supplement to the authoritative HTTP responses.
func (b *Broadcaster) Publish(projectID string, evt domain.Event) {
	data, err := EncodeEvent(evt)
	if err != nil {
		if b.logger != nil {
			b.logger.WithFields(log.Fields{
				"project_id": projectID,
				"event":      evt.EventType(),
				"error":      err.Error(),
			}).Error("encode event failed; broadcast skipped")
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.registry.Members(projectID) {
		if !sub.Send(data) && b.logger != nil {
			b.logger.WithFields(log.Fields{
				"project_id": projectID,
				"event":      evt.EventType(),
			}).Debug("subscriber saturated; event dropped")
		}
	}
}

// EncodeEvent marshals one event into its wire frame.
func EncodeEvent(evt domain.Event) ([]byte, error) {
	return sonic.ConfigStd.Marshal(envelope{Event: evt.EventType(), Data: evt})
}
