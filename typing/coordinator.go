// Package typing tracks who is actively composing in a conversation and
// announces the local user's own composition with automatic expiry.
package typing

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"betstream/repositories"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultExpiry bounds how long a typing row outlives the last keystroke.
const DefaultExpiry = 3 * time.Second

// Coordinator has two jobs: observe others' typing rows through the
// transport, and announce the local user's typing with a debounced expiry.
//
// The expiry is a single-slot scheduled task: every SetTyping(true) replaces
// the pending timer rather than stacking a new one, so exactly one deletion
// fires, timed from the last keystroke signal.
type Coordinator struct {
	log       *slog.Logger
	transport contract.Transport
	statuses  repositories.ITypingRepository
	profiles  repositories.IProfileRepository
	component string
	expiry    time.Duration
	now       func() time.Time

	mu       sync.Mutex
	epoch    uint64
	channel  domain.ChannelID
	selfID   string
	sub      contract.Subscription
	timer    *time.Timer
	timerGen uint64
	active   map[string]domain.TypingUser
}

func NewCoordinator(log *slog.Logger, transport contract.Transport,
	statuses repositories.ITypingRepository, profiles repositories.IProfileRepository,
	expiry time.Duration) *Coordinator {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Coordinator{
		log:       log,
		transport: transport,
		statuses:  statuses,
		profiles:  profiles,
		component: "typing/" + uuid.NewString(),
		expiry:    expiry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Attach observes typing rows of a channel under the given identity.
// A previous attachment is released first.
func (c *Coordinator) Attach(channel domain.ChannelID, selfID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detachLocked()
	if channel == "" {
		return nil
	}

	epoch := c.epoch
	sub, err := c.transport.Subscribe(channel, c.component, &typingSink{coordinator: c, epoch: epoch})
	if err != nil {
		return err
	}

	c.channel = channel
	c.selfID = selfID
	c.sub = sub
	c.active = make(map[string]domain.TypingUser)
	return nil
}

// Detach releases the subscription and the pending local timer. It does not
// delete the store-side row: final cleanup belongs to the expiry window or
// to an explicit SetTyping(false).
func (c *Coordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

func (c *Coordinator) detachLocked() {
	c.epoch++
	c.cancelTimerLocked()
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
	c.channel = ""
	c.selfID = ""
	c.active = nil
}

func (c *Coordinator) cancelTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// SetTyping announces or retracts the local user's composition.
//
// true upserts the (channel, self) row with a fresh timestamp and re-arms
// the expiry timer; false deletes the row immediately and cancels the timer.
// Store failures are logged and swallowed: typing is best-effort and must
// never block the rest of the UI.
func (c *Coordinator) SetTyping(ctx context.Context, isTyping bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == "" {
		return
	}

	if !isTyping {
		c.cancelTimerLocked()
		c.deleteOwnRowLocked(ctx)
		return
	}

	status := domain.TypingStatus{
		ChannelID: c.channel,
		UserID:    c.selfID,
		IsTyping:  true,
		UpdatedAt: c.now(),
	}
	if err := c.statuses.UpsertTyping(status); err != nil {
		c.log.Warn("Typing upsert failed", "channel", c.channel, "error", err)
	} else if err = c.transport.Publish(ctx, event.TypingUpserted{Status: status}); err != nil {
		c.log.Warn("Typing announce failed", "channel", c.channel, "error", err)
	}

	// Replace, never stack: only the latest keystroke's timer governs expiry
	c.cancelTimerLocked()
	gen := c.timerGen
	c.timer = time.AfterFunc(c.expiry, func() { c.expire(gen) })
}

// expire deletes the own row exactly once per armed slot. A slot replaced or
// cancelled before firing is a no-op even if its callback was already
// scheduled.
func (c *Coordinator) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.timerGen || c.channel == "" {
		return
	}
	c.timer = nil
	c.deleteOwnRowLocked(context.Background())
}

func (c *Coordinator) deleteOwnRowLocked(ctx context.Context) {
	if err := c.statuses.DeleteTyping(c.channel, c.selfID); err != nil {
		c.log.Warn("Typing delete failed", "channel", c.channel, "error", err)
		return
	}
	if err := c.transport.Publish(ctx, event.TypingDeleted{ChannelID: c.channel, UserID: c.selfID}); err != nil {
		c.log.Warn("Typing retract announce failed", "channel", c.channel, "error", err)
	}
}

func (c *Coordinator) handle(epoch uint64, e event.ChannelEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}

	switch evt := e.(type) {
	case event.TypingUpserted:
		status := evt.Status
		if status.UserID == c.selfID {
			return
		}
		if !status.IsTyping {
			delete(c.active, status.UserID)
			return
		}
		if _, tracked := c.active[status.UserID]; tracked {
			// Repeat upsert for an already tracked user
			return
		}
		name := ""
		if profile, err := c.profiles.GetProfile(status.UserID); err == nil {
			name = profile.DisplayName
		} else {
			// Lookup failure never hides the typing actor; the name stays absent
			c.log.Debug("Typing actor profile unresolved", "user", status.UserID, "error", err)
		}
		c.active[status.UserID] = domain.TypingUser{UserID: status.UserID, DisplayName: name}
	case event.TypingDeleted:
		delete(c.active, evt.UserID)
	}
}

// Typing returns the currently composing users, excluding self.
func (c *Coordinator) Typing() []domain.TypingUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Values(c.active)
}

type typingSink struct {
	coordinator *Coordinator
	epoch       uint64
}

func (s *typingSink) Consume(_ context.Context, e event.ChannelEvent) error {
	s.coordinator.handle(s.epoch, e)
	return nil
}
