// Package session orchestrates the interactive surface: uploads, turns,
// destructive-action arming, settings, and credential rotation. All
// transient flags live here and reset to neutral at startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dnalab/dnachat/pkg/dna"
	"github.com/dnalab/dnachat/pkg/gemini"
	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/dnalab/dnachat/pkg/store"
)

var (
	// ErrTurnInFlight rejects a send while a turn for the same profile is
	// still SENDING.
	ErrTurnInFlight = errors.New("a turn is already in flight for this profile")
	// ErrAnalysisInFlight rejects an upload while another analysis runs.
	ErrAnalysisInFlight = errors.New("an analysis is already in flight")
	// ErrEmptyMessage rejects a blank outgoing message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyName rejects a profile creation without a display name.
	ErrEmptyName = errors.New("display name is required")
	// ErrEmptyPersona rejects a user persona save without persona text.
	ErrEmptyPersona = errors.New("persona text is required")
	// ErrNotArmed rejects a destructive confirm without a prior arm step.
	ErrNotArmed = errors.New("destructive action is not armed")
)

const degradedSummary = "AI-analyzed DNA profile"

// Gateway is the generation-backend surface the controller drives. Satisfied
// by *gemini.Client; faked in tests.
type Gateway interface {
	ExtractProfile(ctx context.Context, rawText string) (gemini.Extraction, error)
	Converse(ctx context.Context, profile dna.ModelProfile, history []dna.Message, settings dna.CustomizationSettings) (gemini.TurnReply, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
	SetAPIKey(key string)
	APIKeyConfigured() bool
}

// Controller wires the registry, conversation log, store, and gateway into
// the turn and confirmation state machines.
type Controller struct {
	registry *dna.Registry
	conv     *dna.ConversationLog
	store    *store.Store
	gateway  Gateway
	log      *logger.Logger

	mu          sync.Mutex
	settings    dna.CustomizationSettings
	userProfile *dna.UserProfile
	thinking    map[string]bool
	analyzing   bool

	// Confirmation state: idle, armed-for-delete(id), or armed-for-purge.
	armedDeleteID string
	armedPurge    bool
}

func NewController(reg *dna.Registry, conv *dna.ConversationLog, st *store.Store, gw Gateway, log *logger.Logger) *Controller {
	return &Controller{
		registry: reg,
		conv:     conv,
		store:    st,
		gateway:  gw,
		log:      log,
		settings: dna.DefaultSettings(),
		thinking: map[string]bool{},
	}
}

// Initialize loads all durable state and installs the persisted credential
// into the gateway. Transient flags start neutral.
func (c *Controller) Initialize() error {
	c.conv.Initialize()
	if err := c.registry.Initialize(); err != nil {
		return fmt.Errorf("initialize registry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	settings := dna.DefaultSettings()
	c.store.LoadJSON(store.KeySettings, &settings)
	c.settings = settings

	var user dna.UserProfile
	if ok := c.store.LoadJSON(store.KeyUserProfile, &user); ok {
		c.userProfile = &user
	}

	var key string
	if ok := c.store.LoadJSON(store.KeyAPICredential, &key); ok && key != "" {
		c.gateway.SetAPIKey(key)
	}

	c.thinking = map[string]bool{}
	c.analyzing = false
	c.armedDeleteID = ""
	c.armedPurge = false
	return nil
}

// SendMessage runs one conversational turn against the active profile. The
// user message is committed before the backend call; on failure the turn
// still completes with a visible error message appended, and the error is
// returned alongside it.
func (c *Controller) SendMessage(ctx context.Context, text string) (dna.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return dna.Message{}, ErrEmptyMessage
	}

	profile, ok := c.registry.Active()
	if !ok {
		return dna.Message{}, errors.New("no active profile")
	}

	c.mu.Lock()
	if c.thinking[profile.ID] {
		c.mu.Unlock()
		return dna.Message{}, ErrTurnInFlight
	}
	c.thinking[profile.ID] = true
	settings := c.settings
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.thinking, profile.ID)
		c.mu.Unlock()
	}()

	if err := c.conv.Append(profile.ID, dna.NewMessage(dna.RoleUser, text)); err != nil {
		return dna.Message{}, fmt.Errorf("record user message: %w", err)
	}

	reply, err := c.gateway.Converse(ctx, profile, c.conv.History(profile.ID), settings)
	if err != nil {
		c.log.Warn("turn failed", "profile_id", profile.ID, "error", err)
		errMsg := dna.NewMessage(dna.RoleModel, "ERROR: "+err.Error())
		if appendErr := c.conv.Append(profile.ID, errMsg); appendErr != nil {
			c.log.Error("record error message", "profile_id", profile.ID, "error", appendErr)
		}
		return errMsg, err
	}

	msg := dna.NewMessage(dna.RoleModel, reply.ResponseText)
	msg.DetectedFallacies = reply.Fallacies
	if err := c.conv.Append(profile.ID, msg); err != nil {
		return dna.Message{}, fmt.Errorf("record model message: %w", err)
	}
	return msg, nil
}

// History returns the ordered conversation for the profile.
func (c *Controller) History(profileID string) []dna.Message {
	return c.conv.History(profileID)
}

// Thinking reports whether a turn is in flight for the profile.
func (c *Controller) Thinking(profileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thinking[profileID]
}

// UploadAndAnalyze creates a profile from raw uploaded text. Extraction
// failure degrades to empty metrics and a generic summary; the profile is
// still created and activated.
func (c *Controller) UploadAndAnalyze(ctx context.Context, displayName, rawText string) (dna.ModelProfile, error) {
	displayName = dna.TrimDisplayName(displayName)
	if displayName == "" {
		return dna.ModelProfile{}, ErrEmptyName
	}

	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		return dna.ModelProfile{}, ErrAnalysisInFlight
	}
	c.analyzing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.analyzing = false
		c.mu.Unlock()
	}()

	profile := dna.ModelProfile{
		ID:   dna.NewProfileID(),
		Name: displayName,
	}

	extracted, err := c.gateway.ExtractProfile(ctx, rawText)
	if err != nil {
		c.log.Warn("profile extraction degraded", "name", displayName, "error", err)
		profile.Summary = degradedSummary
		profile.Metrics = dna.EmptyMetrics()
	} else {
		profile.Summary = extracted.Summary
		if profile.Summary == "" {
			profile.Summary = degradedSummary
		}
		profile.Metrics = extracted.Metrics
	}

	if err := c.registry.Add(profile); err != nil {
		return dna.ModelProfile{}, err
	}
	return profile, nil
}

// Analyzing reports whether an upload analysis is in flight.
func (c *Controller) Analyzing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyzing
}

// SelectProfile repoints the active profile.
func (c *Controller) SelectProfile(id string) error {
	return c.registry.SetActive(id)
}

// ArmDelete enters the armed-for-delete state for the profile. Arming
// replaces any previously armed action.
func (c *Controller) ArmDelete(id string) error {
	if _, ok := c.registry.Get(id); !ok {
		return fmt.Errorf("arm delete: %w", dna.ErrUnknownProfile)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armedDeleteID = id
	c.armedPurge = false
	return nil
}

// ConfirmDelete executes the armed deletion. The armed state clears whether
// or not the deletion succeeds.
func (c *Controller) ConfirmDelete() error {
	c.mu.Lock()
	id := c.armedDeleteID
	c.armedDeleteID = ""
	c.mu.Unlock()

	if id == "" {
		return ErrNotArmed
	}
	return c.registry.Delete(id)
}

// ArmPurge enters the armed-for-purge state.
func (c *Controller) ArmPurge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armedPurge = true
	c.armedDeleteID = ""
}

// ConfirmPurge executes the armed purge: seed-only registry, cleared
// histories, settings back to defaults. The user profile survives.
func (c *Controller) ConfirmPurge() error {
	c.mu.Lock()
	armed := c.armedPurge
	c.armedPurge = false
	c.mu.Unlock()

	if !armed {
		return ErrNotArmed
	}
	if err := c.registry.Purge(); err != nil {
		return err
	}

	c.mu.Lock()
	c.settings = dna.DefaultSettings()
	c.mu.Unlock()
	return nil
}

// Cancel resets any armed destructive action back to idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armedDeleteID = ""
	c.armedPurge = false
}

// ArmedDeleteID returns the armed deletion target, empty when none.
func (c *Controller) ArmedDeleteID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armedDeleteID
}

// PurgeArmed reports whether a purge is armed.
func (c *Controller) PurgeArmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armedPurge
}

// Settings returns the current global settings.
func (c *Controller) Settings() dna.CustomizationSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings merges the patch into the global settings and persists
// immediately. No confirmation step.
func (c *Controller) UpdateSettings(patch dna.SettingsPatch) (dna.CustomizationSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated := c.settings
	updated.Apply(patch)
	if err := c.store.SaveJSON(store.KeySettings, updated); err != nil {
		return c.settings, fmt.Errorf("persist settings: %w", err)
	}
	c.settings = updated
	return updated, nil
}

// UserProfile returns a copy of the stored user persona, if any.
func (c *Controller) UserProfile() (dna.UserProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userProfile == nil {
		return dna.UserProfile{}, false
	}
	out := *c.userProfile
	if c.userProfile.DNAMetrics != nil {
		m := *c.userProfile.DNAMetrics
		out.DNAMetrics = &m
	}
	return out, true
}

// SaveUserPersona stores the user's own persona. When analyze is set the
// persona text runs through extraction to fill metrics and summary; an
// extraction failure keeps the save, just without metrics. Identity and
// creation time survive re-saves.
func (c *Controller) SaveUserPersona(ctx context.Context, name, persona string, analyze bool) (dna.UserProfile, error) {
	name = dna.TrimDisplayName(name)
	if name == "" {
		return dna.UserProfile{}, ErrEmptyName
	}
	persona = strings.TrimSpace(persona)
	if persona == "" {
		return dna.UserProfile{}, ErrEmptyPersona
	}

	c.mu.Lock()
	prev := c.userProfile
	c.mu.Unlock()

	profile := dna.UserProfile{
		ID:        "user-" + uuid.NewString(),
		Name:      name,
		Persona:   persona,
		CreatedAt: time.Now().UnixMilli(),
	}
	if prev != nil {
		profile.ID = prev.ID
		profile.CreatedAt = prev.CreatedAt
		profile.DNAMetrics = prev.DNAMetrics
		profile.Summary = prev.Summary
	}

	if analyze {
		if extracted, err := c.gateway.ExtractProfile(ctx, persona); err != nil {
			c.log.Warn("user persona analysis failed", "error", err)
		} else {
			metrics := extracted.Metrics
			profile.DNAMetrics = &metrics
			profile.Summary = extracted.Summary
		}
	}

	if err := c.store.SaveJSON(store.KeyUserProfile, profile); err != nil {
		return dna.UserProfile{}, fmt.Errorf("persist user profile: %w", err)
	}

	c.mu.Lock()
	c.userProfile = &profile
	c.mu.Unlock()
	return profile, nil
}

// SetCredential persists a new API key and rotates it into the gateway
// without restarting anything.
func (c *Controller) SetCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key is empty")
	}
	if err := c.store.SaveJSON(store.KeyAPICredential, key); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	c.gateway.SetAPIKey(key)
	return nil
}

// CredentialConfigured reports whether the gateway holds a usable key.
func (c *Controller) CredentialConfigured() bool {
	return c.gateway.APIKeyConfigured()
}

// Speak synthesizes audio for the text when TTS is enabled. Returns nil
// audio with no error when the toggle is off.
func (c *Controller) Speak(ctx context.Context, text string) ([]byte, error) {
	if !c.Settings().TTSEnabled {
		return nil, nil
	}
	return c.gateway.SynthesizeSpeech(ctx, text)
}
