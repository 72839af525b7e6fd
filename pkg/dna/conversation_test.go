package dna

import (
	"path/filepath"
	"testing"

	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/dnalab/dnachat/pkg/store"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) (*ConversationLog, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "records.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	conv := NewConversationLog(st, logger.Nop())
	conv.Initialize()
	return conv, st
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	conv, _ := newTestLog(t)

	require.NoError(t, conv.Append("dna-a", NewMessage(RoleUser, "first")))
	require.NoError(t, conv.Append("dna-a", NewMessage(RoleModel, "second")))
	require.NoError(t, conv.Append("dna-a", NewMessage(RoleUser, "third")))

	got := conv.History("dna-a")
	require.Len(t, got, 3)
	require.Equal(t, "first", got[0].Content)
	require.Equal(t, "second", got[1].Content)
	require.Equal(t, "third", got[2].Content)
}

func TestHistoryAbsentProfileIsEmpty(t *testing.T) {
	conv, _ := newTestLog(t)
	require.Empty(t, conv.History("dna-unknown"))
}

func TestHistoriesAreIndependentPerProfile(t *testing.T) {
	conv, _ := newTestLog(t)

	require.NoError(t, conv.Append("dna-a", NewMessage(RoleUser, "for a")))
	require.NoError(t, conv.Append("dna-b", NewMessage(RoleUser, "for b")))

	require.Len(t, conv.History("dna-a"), 1)
	require.Len(t, conv.History("dna-b"), 1)
	require.Equal(t, "for a", conv.History("dna-a")[0].Content)
}

func TestDeleteForRemovesEntry(t *testing.T) {
	conv, st := newTestLog(t)

	require.NoError(t, conv.Append("dna-a", NewMessage(RoleUser, "m1")))
	require.NoError(t, conv.DeleteFor("dna-a"))

	require.False(t, conv.Has("dna-a"))

	var persisted map[string][]Message
	require.True(t, st.LoadJSON(store.KeyHistories, &persisted))
	_, ok := persisted["dna-a"]
	require.False(t, ok)
}

func TestHistorySurvivesReload(t *testing.T) {
	conv, st := newTestLog(t)

	msg := NewMessage(RoleModel, "hello")
	msg.DetectedFallacies = []DetectedFallacy{{
		Name:               "Straw Man",
		Description:        "Misrepresenting the argument.",
		ExampleFromContext: "you said all spending is waste",
	}}
	require.NoError(t, conv.Append("dna-a", msg))

	conv2 := NewConversationLog(st, logger.Nop())
	conv2.Initialize()

	got := conv2.History("dna-a")
	require.Len(t, got, 1)
	require.Equal(t, "hello", got[0].Content)
	require.Len(t, got[0].DetectedFallacies, 1)
	require.Equal(t, "Straw Man", got[0].DetectedFallacies[0].Name)
}

func TestHistoryReturnsCopy(t *testing.T) {
	conv, _ := newTestLog(t)

	require.NoError(t, conv.Append("dna-a", NewMessage(RoleUser, "original")))
	got := conv.History("dna-a")
	got[0].Content = "mutated"

	require.Equal(t, "original", conv.History("dna-a")[0].Content)
}
