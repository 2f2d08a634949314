package transport

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/errors"
	"sync"
)

type Set map[string]struct{}

// Registry tracks live subscriptions. It guarantees at most one subscription
// per (channel, component) pair so that no component ever receives the same
// event twice through duplicate attachments.
type Registry struct {
	mu             sync.RWMutex
	sinks          map[string]contract.EventSink // map (channel/component) -> sink
	channelMembers map[domain.ChannelID]Set      // map channel -> component names
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:          make(map[string]contract.EventSink),
		channelMembers: make(map[domain.ChannelID]Set),
	}
}

func subscriptionKey(channel domain.ChannelID, component string) string {
	return string(channel) + "/" + component
}

// Register records a component's attachment to a channel.
// A second registration for the same (channel, component) pair fails with
// ErrAlreadySubscribed; the caller keeps its original subscription.
func (r *Registry) Register(channel domain.ChannelID, component string, sink contract.EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := subscriptionKey(channel, component)
	if _, ok := r.sinks[key]; ok {
		return errors.ErrAlreadySubscribed
	}
	r.sinks[key] = sink

	if _, ok := r.channelMembers[channel]; !ok {
		r.channelMembers[channel] = make(Set)
	}
	r.channelMembers[channel][component] = struct{}{}
	return nil
}

// Unregister removes a component from the registry and its channel.
// It ensures no empty sets are left in the channel map
// to prevent memory leaks over time.
func (r *Registry) Unregister(channel domain.ChannelID, component string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, subscriptionKey(channel, component))

	if members, ok := r.channelMembers[channel]; ok {
		delete(members, component)

		// If no one is left on the channel, remove the channel entry entirely
		if len(members) == 0 {
			delete(r.channelMembers, channel)
		}
	}
}

// SinksFor retrieves all active sinks attached to a channel.
// Returns nil if the channel doesn't exist or has no members.
func (r *Registry) SinksFor(channel domain.ChannelID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.channelMembers[channel]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for component := range members {
		if sink, exists := r.sinks[subscriptionKey(channel, component)]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Empty reports whether a channel has no attached components left.
func (r *Registry) Empty(channel domain.ChannelID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channelMembers[channel]) == 0
}
