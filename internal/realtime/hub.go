package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/auth"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/logutil"
)

type (
	// PublishMiddleware inspects an inbound publish before it reaches
	// any subscriber. Returning an error denies the operation.
	PublishMiddleware func(claim *auth.Claim, channel string) error

	subscriber interface {
		deliver(p push) error
	}

	Hub struct {
		mtx  sync.Mutex
		subs map[string]map[subscriber]struct{}

		publishIn []PublishMiddleware

		// process-wide ping counter, shared across all connections
		pongCount uint64
	}
)

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[subscriber]struct{}),
	}
}

// UsePublishIn appends mw to the inbound publish chain. Register all
// middleware before the hub starts taking connections.
func (h *Hub) UsePublishIn(mw PublishMiddleware) {
	h.publishIn = append(h.publishIn, mw)
}

func (h *Hub) checkPublishIn(claim *auth.Claim, channel string) error {
	for _, mw := range h.publishIn {
		if err := mw(claim, channel); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) subscribe(channel string, s subscriber) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	set := h.subs[channel]
	if set == nil {
		set = make(map[subscriber]struct{})
		h.subs[channel] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) unsubscribeAll(s subscriber) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for channel, set := range h.subs {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, channel)
		}
	}
}

// broadcast delivers data to every subscriber of channel. Exchange
// publishes go through here directly, bypassing the inbound chain.
// Delivery is best effort: a subscriber whose socket is gone gets
// cleaned up by its own read loop.
func (h *Hub) broadcast(ctx context.Context, channel string, data interface{}) {
	h.mtx.Lock()
	targets := make([]subscriber, 0, len(h.subs[channel]))
	for s := range h.subs[channel] {
		targets = append(targets, s)
	}
	h.mtx.Unlock()
	p := push{Event: eventPublish, Data: publishEnvelope{Channel: channel, Data: data}}
	for _, s := range targets {
		err := s.deliver(p)
		if err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Debug().Err(err).Msg("Dropped delivery to dead subscriber")
		}
	}
}

func (h *Hub) nextPong() uint64 {
	return atomic.AddUint64(&h.pongCount, 1)
}
