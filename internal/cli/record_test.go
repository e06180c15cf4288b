package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/store"
)

// recordScenario records content into db and returns the new session ID.
func recordScenario(t *testing.T, db, content string) string {
	t.Helper()

	path := writeFile(t, t.TempDir(), "scenario.yaml", content)
	out, err := execute(t, "--format", "json", "record", "--db", db, path)
	require.NoError(t, err, out)

	data := decodeData(t, out)
	id, ok := data["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func openStore(t *testing.T, db string) *store.Store {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRecordScenario(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")
	id := recordScenario(t, db, tapScenario)

	ctx := context.Background()
	st := openStore(t, db)

	sess, err := st.ReadSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tap", sess.Name)
	assert.Equal(t, 100, sess.PollHz)
	assert.Equal(t, "scenario", sess.Meta["source"])
	assert.NotEmpty(t, sess.ProfileHash)

	raw, err := st.CountFrames(ctx, id, engine.StageRaw)
	require.NoError(t, err)
	assert.Equal(t, 6, raw)

	out, err := st.CountFrames(ctx, id, engine.StageOutput)
	require.NoError(t, err)
	assert.Equal(t, 6, out)

	events, err := st.ReadSequenceEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, store.EventStarted, events[0].Kind)
	assert.Equal(t, "tap", events[0].Macro)
	assert.Equal(t, int64(2), events[0].Tick)
	assert.Equal(t, store.EventFinished, events[1].Kind)
}

func TestRecordText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")
	path := writeFile(t, t.TempDir(), "tap.yaml", tapScenario)

	out, err := execute(t, "record", "--db", db, "--name", "warmup", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Recorded session")
	assert.Contains(t, out, "(warmup)")
	assert.Contains(t, out, "Ticks:   6")
	assert.Contains(t, out, "Written: 14 records")
}

func TestRecordDatabaseFromEnvironment(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")
	t.Setenv("PADFX_DB", db)
	path := writeFile(t, t.TempDir(), "tap.yaml", tapScenario)

	_, err := execute(t, "record", path)
	require.NoError(t, err)

	sessions, err := openStore(t, db).ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestRecordDefaultPollRateFromEnvironment(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")
	t.Setenv("PADFX_POLL_HZ", "50")
	id := recordScenario(t, db, burstScenario)

	ctx := context.Background()
	st := openStore(t, db)

	sess, err := st.ReadSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 50, sess.PollHz)

	frames, err := st.ReadFrames(ctx, id, engine.StageRaw)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(20000), frames[1].OffsetMicros)
}

func TestRecordFailingScenarioStillRecords(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")
	path := writeFile(t, t.TempDir(), "never.yaml", failingScenario)

	out, err := execute(t, "record", "--db", db, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Recorded session")

	sessions, err := openStore(t, db).ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "never_pressed", sessions[0].Name)
}

func TestRecordWithProfile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")
	id := recordScenario(t, db, fmt.Sprintf(bToXScenario, profilePath(t, "rocket")))

	ctx := context.Background()
	st := openStore(t, db)

	sess, err := st.ReadSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "rocket", sess.Meta["profile"])

	frames, err := st.ReadFrames(ctx, id, engine.StageOutput)
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.Equal(t, int64(20000), frames[2].OffsetMicros)
	assert.True(t, frames[2].State.Gamepad.Buttons != 0)
}

func TestRecordMissingScenario(t *testing.T) {
	db := filepath.Join(t.TempDir(), "padfx.db")

	_, err := execute(t, "record", "--db", db, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
