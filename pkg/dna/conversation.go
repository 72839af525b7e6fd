package dna

import (
	"sync"

	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/dnalab/dnachat/pkg/store"
)

// ConversationLog owns per-profile message histories. Lifecycle is
// independent from the registry except for cascade-delete on profile
// removal. Histories are created lazily on first append.
type ConversationLog struct {
	store *store.Store
	log   *logger.Logger

	mu        sync.RWMutex
	histories map[string][]Message
}

func NewConversationLog(st *store.Store, log *logger.Logger) *ConversationLog {
	return &ConversationLog{
		store:     st,
		log:       log,
		histories: map[string][]Message{},
	}
}

// Initialize loads the histories record. Absent or corrupt data starts
// empty.
func (c *ConversationLog) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	loaded := map[string][]Message{}
	c.store.LoadJSON(store.KeyHistories, &loaded)
	c.histories = loaded
}

// Append adds the message to the profile's history and persists the whole
// histories record.
func (c *ConversationLog) Append(profileID string, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.histories[profileID] = append(c.histories[profileID], msg)
	return c.persist()
}

// History returns a copy of the ordered messages for the profile; an empty
// slice when none are recorded.
func (c *ConversationLog) History(profileID string) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msgs := c.histories[profileID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Len reports the number of messages recorded for the profile.
func (c *ConversationLog) Len(profileID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.histories[profileID])
}

// Has reports whether any history entry exists for the profile.
func (c *ConversationLog) Has(profileID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.histories[profileID]
	return ok
}

// DeleteFor removes the profile's history entry and persists.
func (c *ConversationLog) DeleteFor(profileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.histories[profileID]; !ok {
		return nil
	}
	delete(c.histories, profileID)
	return c.persist()
}

// Reset drops all histories and removes the persisted record.
func (c *ConversationLog) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.histories = map[string][]Message{}
	return c.store.Remove(store.KeyHistories)
}

// persist assumes c.mu is held.
func (c *ConversationLog) persist() error {
	return c.store.SaveJSON(store.KeyHistories, c.histories)
}
