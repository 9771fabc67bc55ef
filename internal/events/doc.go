/*
Package events implements a fan-out pub/sub Broker. The cluster coordinator
publishes membership, leadership and rebalance events on it, and the RPC
server publishes shard updates; no package in this module subscribes to it.

Event is a single tagged struct (Type plus a free-form Metadata map) rather
than one Go type per EventType. Broker.Publish queues each event on a
100-event buffered channel; the loop launched by Start fans it out to every
current Subscribe channel, dropping the event for a subscriber whose channel
is full rather than stalling the broadcaster goroutine. Publish blocks while
that queue is full, so a broker must be started before much is published.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(&events.Event{Type: events.EventLeaderChanged, Message: "node-2 elected"})

EventType values are a closed set (see the const block in events.go)
covering membership, leadership, partition-status, rebalance, AP-store
conflict, and shard-update transitions. The partition-status and AP-store
conflict types are not published anywhere in this module, and the
coordinator calls its own observer callbacks directly as well as publishing.
*/
package events
