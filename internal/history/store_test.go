package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clilm/internal/lm"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleEntry(guid string, created time.Time) lm.HistoryEntry {
	return lm.HistoryEntry{
		GUID:     guid,
		Provider: "claude",
		Model:    "sonnet",
		Prompt:   "USER:\nwhat is 2+2?",
		Response: &lm.Response{
			ID:       "resp-" + guid,
			Provider: "claude",
			Model:    "sonnet",
			Created:  created.Unix(),
			Choices: []lm.Choice{
				{Index: 0, FinishReason: "stop", Message: lm.Message{Role: "assistant", Content: "4"}},
			},
		},
		Duration: 1200 * time.Millisecond,
		Created:  created,
	}
}

func TestNewDB_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "history.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestNewDB_BacksUpExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// No backup on first open, the file did not exist yet.
	_, err = os.Stat(path + ".bak")
	require.True(t, os.IsNotExist(err))

	db, err = NewDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(path + ".bak")
	require.NoError(t, err)
}

func TestStore_RecordAndFindByGUID(t *testing.T) {
	store := openTestDB(t).Store()

	entry := sampleEntry("guid-1", time.Now())
	require.NoError(t, store.Record(entry))

	got, err := store.FindByGUID("guid-1")
	require.NoError(t, err)

	assert.Equal(t, "guid-1", got.GUID)
	assert.Equal(t, "claude", got.Provider)
	assert.Equal(t, "sonnet", got.Model)
	assert.Equal(t, entry.Prompt, got.Prompt)
	assert.Equal(t, 1200*time.Millisecond, got.Duration)
	require.NotNil(t, got.Response)
	require.Len(t, got.Response.Choices, 1)
	assert.Equal(t, "4", got.Response.Choices[0].Message.Content)
}

func TestStore_FindByGUID_NotFound(t *testing.T) {
	store := openTestDB(t).Store()

	_, err := store.FindByGUID("missing")
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.GUID)
}

func TestStore_FailedInvocationHasNoResponse(t *testing.T) {
	store := openTestDB(t).Store()

	require.NoError(t, store.Record(lm.HistoryEntry{
		GUID:     "guid-err",
		Provider: "codex",
		Prompt:   "USER:\nhi",
		Err:      "codex CLI failed with exit code 1",
		Created:  time.Now(),
	}))

	got, err := store.FindByGUID("guid-err")
	require.NoError(t, err)
	assert.Nil(t, got.Response)
	assert.Equal(t, "codex CLI failed with exit code 1", got.Err)
}

func TestStore_List_NewestFirst(t *testing.T) {
	store := openTestDB(t).Store()

	base := time.Now().Add(-time.Hour)
	for i, guid := range []string{"old", "middle", "new"} {
		require.NoError(t, store.Record(sampleEntry(guid, base.Add(time.Duration(i)*time.Minute))))
	}

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "new", entries[0].GUID)
	assert.Equal(t, "middle", entries[1].GUID)
	assert.Equal(t, "old", entries[2].GUID)
}

func TestStore_List_Limit(t *testing.T) {
	store := openTestDB(t).Store()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(sampleEntry(
			string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))))
	}

	entries, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e", entries[0].GUID)
	assert.Equal(t, "d", entries[1].GUID)
}

func TestStore_List_TiesBrokenByInsertionOrder(t *testing.T) {
	store := openTestDB(t).Store()

	created := time.Now()
	require.NoError(t, store.Record(sampleEntry("first", created)))
	require.NoError(t, store.Record(sampleEntry("second", created)))

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].GUID)
	assert.Equal(t, "first", entries[1].GUID)
}

func TestStore_Clear(t *testing.T) {
	store := openTestDB(t).Store()

	require.NoError(t, store.Record(sampleEntry("guid-1", time.Now())))
	require.NoError(t, store.Clear())

	entries, err := store.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_DuplicateGUIDRejected(t *testing.T) {
	store := openTestDB(t).Store()

	entry := sampleEntry("guid-dup", time.Now())
	require.NoError(t, store.Record(entry))
	require.Error(t, store.Record(entry))
}

func TestNewDB_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Store().Record(sampleEntry("guid-1", time.Now())))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := db.Store().FindByGUID("guid-1")
	require.NoError(t, err)
	assert.Equal(t, "guid-1", got.GUID)
}
