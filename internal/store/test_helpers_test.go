package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession inserts a session with minimal required fields.
func createTestSession(t *testing.T, s *Store, id string) Session {
	t.Helper()
	sess, err := s.CreateSession(context.Background(), Session{
		ID:          id,
		Name:        "test-" + id,
		ProfileHash: "test-hash",
		PollHz:      125,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

// createTestFrame creates an output frame with the given buttons.
func createTestFrame(session string, tick, offsetUS int64, buttons pad.Button) Frame {
	return Frame{
		SessionID:    session,
		Tick:         tick,
		Stage:        engine.StageOutput,
		OffsetMicros: offsetUS,
		State: pad.State{
			PacketNumber: uint32(tick),
			Gamepad:      pad.Gamepad{Buttons: uint16(buttons)},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
