package graphqlws

import (
	"context"

	"github.com/dieff/clacks/graphql"
	"github.com/dieff/clacks/graphql/value"
)

// SubscriptionInstance identifies one active subscription operation:
// the connection's user and the client-chosen operation id.
type SubscriptionInstance struct {
	UserID string
	ID     string
}

type registeredSubscription struct {
	channels []string
	prepared *graphql.Prepared
	send     func(payload []byte)
}

// Registry is the subscription fan-out core: a single-writer actor that
// maps channel events to the subscriptions interested in them, re-running
// the execution engine against an event-seeded root for each one.
//
// All state mutation (register/stop/disconnect/deliver) is serialized on
// one goroutine draining a buffered command channel. A mutex-protected
// map would work too, but an actor serializes state naturally and
// composes better with per-delivery goroutines that shouldn't block the
// registry on slow sends.
type Registry struct {
	commands chan func(*registryState)
	stop     chan struct{}
}

type registryState struct {
	subscriptions map[SubscriptionInstance]*registeredSubscription
	byChannel     map[string][]SubscriptionInstance
}

const registryCommandBufferSize = 256

// NewRegistry starts the registry's single-writer goroutine.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(chan func(*registryState), registryCommandBufferSize),
		stop:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Registry) run() {
	state := &registryState{
		subscriptions: map[SubscriptionInstance]*registeredSubscription{},
		byChannel:     map[string][]SubscriptionInstance{},
	}
	for {
		select {
		case cmd := <-r.commands:
			cmd(state)
		case <-r.stop:
			return
		}
	}
}

// Close stops the registry's goroutine. Pending commands already queued are
// dropped.
func (r *Registry) Close() {
	close(r.stop)
}

func (r *Registry) exec(fn func(*registryState)) {
	done := make(chan struct{})
	r.commands <- func(s *registryState) {
		fn(s)
		close(done)
	}
	<-done
}

// RegisterSubscription registers an active subscription operation. It will
// be re-executed against prepared, with the event's root object
// substituted in, whenever Deliver is called for one of channels.
func (r *Registry) RegisterSubscription(instance SubscriptionInstance, channels []string, prepared *graphql.Prepared, send func(payload []byte)) {
	r.exec(func(s *registryState) {
		s.subscriptions[instance] = &registeredSubscription{channels: channels, prepared: prepared, send: send}
		for _, ch := range channels {
			s.byChannel[ch] = append(s.byChannel[ch], instance)
		}
	})
}

// StopSubscription removes a single subscription, e.g. in response to a
// "stop" message.
func (r *Registry) StopSubscription(instance SubscriptionInstance) {
	r.exec(func(s *registryState) {
		removeLocked(s, instance)
	})
}

// Disconnect removes every subscription belonging to userID, e.g. when its
// connection closes.
func (r *Registry) Disconnect(userID string) {
	r.exec(func(s *registryState) {
		for instance := range s.subscriptions {
			if instance.UserID == userID {
				removeLocked(s, instance)
			}
		}
	})
}

func removeLocked(s *registryState, instance SubscriptionInstance) {
	sub, ok := s.subscriptions[instance]
	if !ok {
		return
	}
	delete(s.subscriptions, instance)
	for _, ch := range sub.channels {
		subs := s.byChannel[ch]
		for i, in := range subs {
			if in == instance {
				subs = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(subs) == 0 {
			delete(s.byChannel, ch)
		} else {
			s.byChannel[ch] = subs
		}
	}
}

// Deliver fans an event out to every subscription listening on channel.
// senderUserID's own subscriptions are skipped: a user never hears an
// event echoed back for their own action, matching the original
// implementation. Matching subscriptions are looked up on the registry's
// own goroutine, but each one is re-executed and sent from its own
// goroutine so a slow client can't stall delivery to the others or block
// the registry. root is cloned per instance before execution: every
// invocation gets its own mutable seed, since the executor writes
// resolved fields directly into it as it runs.
func (r *Registry) Deliver(ctx context.Context, channel, senderUserID string, root *value.Object) {
	var matched []*registeredSubscription
	r.exec(func(s *registryState) {
		for _, instance := range s.byChannel[channel] {
			if instance.UserID == senderUserID {
				continue
			}
			matched = append(matched, s.subscriptions[instance])
		}
	})

	for _, sub := range matched {
		sub := sub
		go func() {
			p := &graphql.Prepared{Catalog: sub.prepared.Catalog, Operation: sub.prepared.Operation, Root: root.Clone()}
			data, err := graphql.Execute(ctx, p)
			body, marshalErr := graphql.MarshalResponse(data, err)
			if marshalErr != nil {
				return
			}
			sub.send(body)
		}()
	}
}
