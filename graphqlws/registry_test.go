package graphqlws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dieff/clacks/graphql"
	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

func testSubscriptionCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	catalog, err := graphql.NewSchema(`
		type Message {
			content: String
		}
		type Query {
			noop: String
		}
		type Subscription {
			messageCreated: Message
		}
	`, map[string]map[string]schema.Resolver{
		"Subscription": {
			"messageCreated": func(ctx context.Context, parent *value.Object, args schema.Args) (schema.Outcome, error) {
				return schema.TypeObject("Message", parent), nil
			},
		},
	})
	require.NoError(t, err)
	return catalog
}

func prepareSubscription(t *testing.T, catalog *schema.Catalog) *graphql.Prepared {
	t.Helper()
	p, err := graphql.Prepare(catalog, &graphql.Request{Query: `subscription { messageCreated { content } }`})
	require.NoError(t, err)
	return p
}

func waitForDelivery(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(time.Second):
		return nil
	}
}

func TestRegistryDeliverFansOutToSubscribedChannelOnly(t *testing.T) {
	catalog := testSubscriptionCatalog(t)
	p := prepareSubscription(t, catalog)

	r := NewRegistry()
	defer r.Close()

	receivedA := make(chan []byte, 1)
	receivedB := make(chan []byte, 1)
	r.RegisterSubscription(SubscriptionInstance{UserID: "userA", ID: "sub1"}, []string{"general"}, p, func(payload []byte) { receivedA <- payload })
	r.RegisterSubscription(SubscriptionInstance{UserID: "userB", ID: "sub2"}, []string{"random"}, p, func(payload []byte) { receivedB <- payload })

	root := value.NewObject()
	root.Set("content", value.String("hi"))
	r.Deliver(context.Background(), "general", "someone-else", root)

	assert.Contains(t, string(waitForDelivery(t, receivedA)), "hi")
	select {
	case payload := <-receivedB:
		t.Fatalf("unexpected delivery to unsubscribed channel: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegistryDeliverSkipsSender(t *testing.T) {
	catalog := testSubscriptionCatalog(t)
	p := prepareSubscription(t, catalog)

	r := NewRegistry()
	defer r.Close()

	received := make(chan []byte, 1)
	r.RegisterSubscription(SubscriptionInstance{UserID: "userA", ID: "sub1"}, []string{"general"}, p, func(payload []byte) { received <- payload })

	root := value.NewObject()
	root.Set("content", value.String("hi"))
	r.Deliver(context.Background(), "general", "userA", root)

	select {
	case payload := <-received:
		t.Fatalf("sender should not receive its own event, got: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegistryStopSubscriptionStopsFanOut(t *testing.T) {
	catalog := testSubscriptionCatalog(t)
	p := prepareSubscription(t, catalog)

	r := NewRegistry()
	defer r.Close()

	received := make(chan []byte, 1)
	instance := SubscriptionInstance{UserID: "userA", ID: "sub1"}
	r.RegisterSubscription(instance, []string{"general"}, p, func(payload []byte) { received <- payload })
	r.StopSubscription(instance)

	root := value.NewObject()
	root.Set("content", value.String("hi"))
	r.Deliver(context.Background(), "general", "someone-else", root)

	select {
	case payload := <-received:
		t.Fatalf("stopped subscription should not receive events, got: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegistryDisconnectRemovesAllUserSubscriptions(t *testing.T) {
	catalog := testSubscriptionCatalog(t)
	p := prepareSubscription(t, catalog)

	r := NewRegistry()
	defer r.Close()

	received := make(chan []byte, 1)
	r.RegisterSubscription(SubscriptionInstance{UserID: "userA", ID: "sub1"}, []string{"general"}, p, func(payload []byte) { received <- payload })
	r.RegisterSubscription(SubscriptionInstance{UserID: "userA", ID: "sub2"}, []string{"other"}, p, func(payload []byte) { received <- payload })
	r.Disconnect("userA")

	root := value.NewObject()
	root.Set("content", value.String("hi"))
	r.Deliver(context.Background(), "general", "someone-else", root)
	r.Deliver(context.Background(), "other", "someone-else", root)

	select {
	case payload := <-received:
		t.Fatalf("disconnected user should not receive events, got: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}
