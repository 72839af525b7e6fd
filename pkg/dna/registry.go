package dna

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/dnalab/dnachat/pkg/store"
)

var (
	// ErrLastProfile rejects deletion of the only remaining profile.
	ErrLastProfile = errors.New("cannot delete the last remaining profile")
	// ErrUnknownProfile marks an id that is not present in the registry.
	ErrUnknownProfile = errors.New("unknown profile id")
)

// Registry owns the set of model profiles and the active-profile pointer.
// Invariants: at least one profile always exists, and the active pointer
// always references a profile present in the registry.
type Registry struct {
	store *store.Store
	conv  *ConversationLog
	log   *logger.Logger

	mu       sync.RWMutex
	profiles []ModelProfile
	activeID string
}

func NewRegistry(st *store.Store, conv *ConversationLog, log *logger.Logger) *Registry {
	return &Registry{store: st, conv: conv, log: log}
}

// Initialize loads profiles and the active pointer from the store. An absent
// or empty profile record installs the seed profile. A stale active pointer
// (crash between two saves can leave keys inconsistent) is revalidated
// against the loaded set and reassigned to the first profile.
func (r *Registry) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var loaded []ModelProfile
	if ok := r.store.LoadJSON(store.KeyProfiles, &loaded); !ok || len(loaded) == 0 {
		loaded = []ModelProfile{SeedProfile()}
	}
	for i := range loaded {
		loaded[i].Metrics.Normalize()
	}
	r.profiles = loaded

	var activeID string
	r.store.LoadJSON(store.KeyActiveProfileID, &activeID)
	if r.indexOf(activeID) < 0 {
		activeID = r.profiles[0].ID
	}
	r.activeID = activeID

	if err := r.persistProfiles(); err != nil {
		return err
	}
	return r.persistActive()
}

// Profiles returns an independent copy of the registry contents.
func (r *Registry) Profiles() []ModelProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Active returns the active profile. ok is false only before Initialize.
func (r *Registry) Active() (ModelProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(r.activeID); i >= 0 {
		return r.profiles[i].Clone(), true
	}
	return ModelProfile{}, false
}

func (r *Registry) Get(id string) (ModelProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.profiles[i].Clone(), true
	}
	return ModelProfile{}, false
}

// Add appends the profile and makes it active.
func (r *Registry) Add(p ModelProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.ID) >= 0 {
		return fmt.Errorf("profile id %q already registered", p.ID)
	}
	p.Metrics.Normalize()
	r.profiles = append(r.profiles, p)
	r.activeID = p.ID

	if err := r.persistProfiles(); err != nil {
		return err
	}
	return r.persistActive()
}

// Delete removes the profile and cascades to its conversation history.
// Deleting the last remaining profile is rejected and the registry is
// unchanged. When the active profile is deleted the pointer is reassigned
// to the first surviving profile.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("delete profile: %w", ErrUnknownProfile)
	}
	if len(r.profiles) == 1 {
		return ErrLastProfile
	}

	r.profiles = append(r.profiles[:idx], r.profiles[idx+1:]...)
	if r.activeID == id {
		r.activeID = r.profiles[0].ID
	}

	if err := r.conv.DeleteFor(id); err != nil {
		r.log.Warn("cascade history delete failed", "profile_id", id, "error", err)
	}

	if err := r.persistProfiles(); err != nil {
		return err
	}
	return r.persistActive()
}

// SetActive repoints the active profile. An unknown id is a no-op.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(id) < 0 {
		return nil
	}
	r.activeID = id
	return r.persistActive()
}

// Purge replaces the registry with a fresh seed profile, clears all
// histories, and removes the persisted profile, history, and settings
// records. The user profile record is deliberately left untouched.
func (r *Registry) Purge() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seed := SeedProfile()
	r.profiles = []ModelProfile{seed}
	r.activeID = seed.ID

	if err := r.conv.Reset(); err != nil {
		r.log.Warn("history reset failed during purge", "error", err)
	}

	for _, key := range []string{store.KeyProfiles, store.KeyActiveProfileID, store.KeySettings} {
		if err := r.store.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// indexOf assumes r.mu is held.
func (r *Registry) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range r.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) persistProfiles() error {
	return r.store.SaveJSON(store.KeyProfiles, r.profiles)
}

func (r *Registry) persistActive() error {
	return r.store.SaveJSON(store.KeyActiveProfileID, r.activeID)
}
