// Package stream maintains the live, ordered message sequence of one
// conversation: a single full historical load followed by transport-fed
// appends, each enriched with the sender's display profile.
package stream

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"betstream/repositories"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Manager owns the message sequence of the currently open channel.
//
// Every asynchronous completion (bulk load, subscription attach, profile
// fill-in, live append) carries the epoch it was started under and is
// discarded when the active channel has changed since. That guard is what
// keeps a late load or profile fetch for channel A from leaking into
// channel B's view.
type Manager struct {
	log       *slog.Logger
	transport contract.Transport
	messages  repositories.IMessageRepository
	profiles  repositories.IProfileRepository

	// component is this instance's subscription key. Instance-scoped so
	// independent sessions can observe the same channel over one transport.
	component string

	mu       sync.Mutex
	epoch    uint64
	channel  domain.ChannelID
	sub      contract.Subscription
	loading  bool
	sequence []domain.Message
	loaded   chan struct{}
}

func NewManager(log *slog.Logger, transport contract.Transport,
	messages repositories.IMessageRepository, profiles repositories.IProfileRepository) *Manager {
	return &Manager{
		log:       log,
		transport: transport,
		messages:  messages,
		profiles:  profiles,
		component: "stream/" + uuid.NewString(),
	}
}

// Open switches the manager to a channel. The previous subscription is torn
// down and the sequence cleared before any new load begins, so no stale
// cross-channel state survives. An empty channel just closes the manager.
func (m *Manager) Open(channel domain.ChannelID) {
	m.mu.Lock()
	m.teardownLocked()
	if channel == "" {
		m.mu.Unlock()
		return
	}
	m.channel = channel
	m.loading = true
	m.loaded = make(chan struct{})
	epoch := m.epoch
	m.mu.Unlock()

	go m.load(epoch, channel)
}

// Close detaches from the current channel and clears the sequence.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// teardownLocked invalidates every in-flight completion by bumping the epoch.
func (m *Manager) teardownLocked() {
	m.epoch++
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
	m.signalLoadedLocked()
	m.channel = ""
	m.sequence = nil
	m.loading = false
}

// load performs the initial bulk fetch, enriches it with one batched profile
// lookup, commits the sequence, and only then attaches to the transport.
// Attaching after the commit is what guarantees every live append lands
// strictly after the historical log.
func (m *Manager) load(epoch uint64, channel domain.ChannelID) {
	history, err := m.messages.GetMessages(channel)
	if err != nil {
		// Initial load aborts: empty view, loading cleared, nothing fatal
		m.log.Warn("Initial message load failed", "channel", channel, "error", err)
		m.mu.Lock()
		if epoch == m.epoch {
			m.loading = false
			m.signalLoadedLocked()
		}
		m.mu.Unlock()
		return
	}

	senders := lo.Uniq(lo.Map(history, func(msg domain.Message, _ int) string {
		return msg.SenderID
	}))
	profiles, err := m.profiles.GetProfiles(senders)
	if err != nil {
		// Enrichment is best-effort: the sequence still commits, senders unresolved
		m.log.Warn("Batch profile lookup failed", "channel", channel, "error", err)
		profiles = nil
	}
	for i := range history {
		if profile, ok := profiles[history[i].SenderID]; ok {
			history[i].Sender = &profile
		}
	}

	m.mu.Lock()
	if epoch != m.epoch {
		// The channel changed while the load was in flight: discard
		m.mu.Unlock()
		return
	}
	m.sequence = history
	m.loading = false
	m.mu.Unlock()

	sub, err := m.transport.Subscribe(channel, m.component, &streamSink{manager: m, epoch: epoch})
	if err != nil {
		m.log.Warn("Message stream subscription failed", "channel", channel, "error", err)
		m.mu.Lock()
		if epoch == m.epoch {
			m.signalLoadedLocked()
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		sub.Close()
		return
	}
	m.sub = sub
	m.signalLoadedLocked()
	m.mu.Unlock()
}

func (m *Manager) signalLoadedLocked() {
	if m.loaded != nil {
		close(m.loaded)
		m.loaded = nil
	}
}

// append adds a live message in arrival order. The message becomes visible
// immediately; the per-message profile fetch runs as a side fill-in and
// never gates the append.
func (m *Manager) append(epoch uint64, message domain.Message) {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return
	}
	m.sequence = append(m.sequence, message)
	m.mu.Unlock()

	go m.fillSender(epoch, message.ID.String(), message.SenderID)
}

// fillSender resolves one sender profile after the fact. Failure leaves the
// enrichment absent; the message itself already shipped.
func (m *Manager) fillSender(epoch uint64, messageID, senderID string) {
	profile, err := m.profiles.GetProfile(senderID)
	if err != nil {
		m.log.Debug("Sender profile unresolved", "sender", senderID, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return
	}
	for i := range m.sequence {
		if m.sequence[i].ID.String() == messageID {
			m.sequence[i].Sender = &profile
			return
		}
	}
}

// Messages returns a snapshot of the current sequence, oldest first.
func (m *Manager) Messages() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]domain.Message, len(m.sequence))
	copy(snapshot, m.sequence)
	return snapshot
}

func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Manager) ChannelID() domain.ChannelID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel
}

// WaitLoaded blocks until the load started by the most recent Open settles,
// successfully or not, including the live feed attachment. Mostly a
// convenience for callers that want history rendered before interacting.
func (m *Manager) WaitLoaded(ctx context.Context) error {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if loaded == nil {
		return nil
	}
	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// streamSink receives the transport feed of one attachment generation.
type streamSink struct {
	manager *Manager
	epoch   uint64
}

func (s *streamSink) Consume(_ context.Context, e event.ChannelEvent) error {
	if inserted, ok := e.(event.MessageInserted); ok {
		s.manager.append(s.epoch, inserted.Message)
	}
	return nil
}
