package dna

import (
	"path/filepath"
	"testing"

	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/dnalab/dnachat/pkg/store"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *ConversationLog, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "records.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	conv := NewConversationLog(st, logger.Nop())
	conv.Initialize()
	reg := NewRegistry(st, conv, logger.Nop())
	require.NoError(t, reg.Initialize())
	return reg, conv, st
}

func testProfile(name string) ModelProfile {
	return ModelProfile{
		ID:      NewProfileID(),
		Name:    name,
		Summary: "test profile",
		Metrics: EmptyMetrics(),
	}
}

func TestInitializeInstallsSeed(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	profiles := reg.Profiles()
	require.Len(t, profiles, 1)
	require.Equal(t, SeedProfileID, profiles[0].ID)
	require.Equal(t, SeedProfileID, reg.ActiveID())
}

func TestInitializeRevalidatesStaleActivePointer(t *testing.T) {
	_, _, st := newTestRegistry(t)

	// Simulate a crash between two saves: profiles updated, pointer stale.
	require.NoError(t, st.SaveJSON(store.KeyActiveProfileID, "dna-ghost"))

	conv := NewConversationLog(st, logger.Nop())
	conv.Initialize()
	reg := NewRegistry(st, conv, logger.Nop())
	require.NoError(t, reg.Initialize())

	require.Equal(t, SeedProfileID, reg.ActiveID())
}

func TestAddActivatesNewProfile(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	p := testProfile("Hume.txt")
	require.NoError(t, reg.Add(p))

	require.Equal(t, 2, reg.Count())
	require.Equal(t, p.ID, reg.ActiveID())

	active, ok := reg.Active()
	require.True(t, ok)
	require.Equal(t, "Hume.txt", active.Name)
}

func TestAddRejectsDuplicateID(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	p := testProfile("dup")
	require.NoError(t, reg.Add(p))
	require.Error(t, reg.Add(p))
	require.Equal(t, 2, reg.Count())
}

func TestDeleteLastProfileRejected(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	err := reg.Delete(SeedProfileID)
	require.ErrorIs(t, err, ErrLastProfile)
	require.Equal(t, 1, reg.Count())
	require.Equal(t, SeedProfileID, reg.ActiveID())
}

func TestDeleteUnknownProfile(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	require.NoError(t, reg.Add(testProfile("b")))

	require.ErrorIs(t, reg.Delete("dna-missing"), ErrUnknownProfile)
	require.Equal(t, 2, reg.Count())
}

func TestDeleteCascadesAndReassignsActive(t *testing.T) {
	reg, conv, _ := newTestRegistry(t)

	b := testProfile("B")
	require.NoError(t, reg.Add(b))
	require.Equal(t, b.ID, reg.ActiveID())
	require.NoError(t, conv.Append(b.ID, NewMessage(RoleUser, "m1")))

	require.NoError(t, reg.Delete(b.ID))

	require.Equal(t, 1, reg.Count())
	require.Equal(t, SeedProfileID, reg.ActiveID())
	require.False(t, conv.Has(b.ID))
}

func TestDeleteNonActiveKeepsPointer(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	b := testProfile("B")
	c := testProfile("C")
	require.NoError(t, reg.Add(b))
	require.NoError(t, reg.Add(c))
	require.Equal(t, c.ID, reg.ActiveID())

	require.NoError(t, reg.Delete(b.ID))
	require.Equal(t, c.ID, reg.ActiveID())
}

func TestSetActiveUnknownIsNoOp(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	require.NoError(t, reg.SetActive("dna-missing"))
	require.Equal(t, SeedProfileID, reg.ActiveID())
}

func TestSetActivePersists(t *testing.T) {
	reg, _, st := newTestRegistry(t)

	b := testProfile("B")
	require.NoError(t, reg.Add(b))
	require.NoError(t, reg.SetActive(SeedProfileID))
	require.Equal(t, SeedProfileID, reg.ActiveID())

	var persisted string
	require.True(t, st.LoadJSON(store.KeyActiveProfileID, &persisted))
	require.Equal(t, SeedProfileID, persisted)
}

func TestPurgeRestoresSeedOnly(t *testing.T) {
	reg, conv, st := newTestRegistry(t)

	b := testProfile("B")
	c := testProfile("C")
	require.NoError(t, reg.Add(b))
	require.NoError(t, reg.Add(c))
	require.NoError(t, conv.Append(b.ID, NewMessage(RoleUser, "hello")))
	require.NoError(t, st.SaveJSON(store.KeySettings, DefaultSettings()))
	require.NoError(t, st.SaveJSON(store.KeyUserProfile, UserProfile{ID: "user-1", Name: "me", Persona: "curious"}))

	require.NoError(t, reg.Purge())

	profiles := reg.Profiles()
	require.Len(t, profiles, 1)
	require.Equal(t, SeedProfileID, profiles[0].ID)
	require.Equal(t, SeedProfileID, reg.ActiveID())
	require.Empty(t, conv.History(b.ID))

	var raw []ModelProfile
	require.False(t, st.LoadJSON(store.KeyProfiles, &raw))
	var settings CustomizationSettings
	require.False(t, st.LoadJSON(store.KeySettings, &settings))

	// User profile record is preserved across purge.
	var user UserProfile
	require.True(t, st.LoadJSON(store.KeyUserProfile, &user))
	require.Equal(t, "me", user.Name)
}

func TestRegistryReloadRoundTrip(t *testing.T) {
	reg, _, st := newTestRegistry(t)

	b := testProfile("B")
	require.NoError(t, reg.Add(b))

	conv2 := NewConversationLog(st, logger.Nop())
	conv2.Initialize()
	reg2 := NewRegistry(st, conv2, logger.Nop())
	require.NoError(t, reg2.Initialize())

	require.Equal(t, 2, reg2.Count())
	require.Equal(t, b.ID, reg2.ActiveID())
}

func TestProfilesReturnsCopies(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	got := reg.Profiles()
	got[0].Name = "mutated"
	got[0].Metrics.ValueHierarchy[0] = "Chaos"

	again := reg.Profiles()
	require.Equal(t, "T-JUMPS.rtf", again[0].Name)
	require.Equal(t, "Logic", again[0].Metrics.ValueHierarchy[0])
}
