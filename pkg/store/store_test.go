package store

import (
	"path/filepath"
	"testing"

	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)

	type settings struct {
		Aggressiveness int  `json:"aggressiveness"`
		TTSEnabled     bool `json:"ttsEnabled"`
	}
	in := settings{Aggressiveness: 80, TTSEnabled: true}
	require.NoError(t, s.SaveJSON(KeySettings, in))

	var out settings
	require.True(t, s.LoadJSON(KeySettings, &out))
	require.Equal(t, in, out)
}

func TestLoadAbsentKey(t *testing.T) {
	s := openTestStore(t)

	var out map[string]string
	require.False(t, s.LoadJSON("never_written", &out))
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO records(record_key, value_json, updated_at_ms) VALUES(?, ?, 0)`,
		KeyProfiles, `{"not valid json`,
	)
	require.NoError(t, err)

	var out []map[string]string
	require.False(t, s.LoadJSON(KeyProfiles, &out))
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveJSON(KeyActiveProfileID, "dna-x"))
	require.NoError(t, s.Remove(KeyActiveProfileID))

	var id string
	require.False(t, s.LoadJSON(KeyActiveProfileID, &id))

	// Removing an absent key is a no-op.
	require.NoError(t, s.Remove(KeyActiveProfileID))
}

func TestOverwrite(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveJSON(KeyActiveProfileID, "dna-a"))
	require.NoError(t, s.SaveJSON(KeyActiveProfileID, "dna-b"))

	var id string
	require.True(t, s.LoadJSON(KeyActiveProfileID, &id))
	require.Equal(t, "dna-b", id)
}
