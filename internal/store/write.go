package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
)

// CreateSession inserts a session and returns it with ID and CreatedSeq
// filled in. An empty ID is replaced with a fresh xid.
//
// CreatedSeq is one past the largest existing value, assigned inside the
// insert transaction so concurrent creators never share a value.
func (s *Store) CreateSession(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		sess.ID = xid.New().String()
	}

	metaJSON, err := marshalMeta(sess.Meta)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("create session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(created_seq), 0) + 1 FROM sessions`,
	).Scan(&sess.CreatedSeq); err != nil {
		return Session{}, fmt.Errorf("create session: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, name, profile_hash, poll_hz, meta, created_seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.Name,
		sess.ProfileHash,
		sess.PollHz,
		metaJSON,
		sess.CreatedSeq,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("create session: commit: %w", err)
	}
	return sess, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertFrameSQL = `
	INSERT INTO frames
	(session_id, tick, stage, offset_us, packet, buttons, left_trigger, right_trigger,
	 thumb_lx, thumb_ly, thumb_rx, thumb_ry)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, tick, stage) DO NOTHING
`

func insertFrame(ctx context.Context, db execer, f Frame) error {
	g := f.State.Gamepad
	_, err := db.ExecContext(ctx, insertFrameSQL,
		f.SessionID,
		f.Tick,
		string(f.Stage),
		f.OffsetMicros,
		int64(f.State.PacketNumber),
		int64(g.Buttons),
		int64(g.LeftTrigger),
		int64(g.RightTrigger),
		int64(g.ThumbLX),
		int64(g.ThumbLY),
		int64(g.ThumbRX),
		int64(g.ThumbRY),
	)
	return err
}

// WriteFrame inserts a frame record.
// Uses ON CONFLICT DO NOTHING for idempotency - a second write for the same
// (session, tick, stage) is silently ignored.
//
// Note: The session referenced by SessionID must exist (foreign key constraint).
func (s *Store) WriteFrame(ctx context.Context, f Frame) error {
	if err := insertFrame(ctx, s.db, f); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteFrames inserts frames in a single transaction. Either every frame is
// written or none are.
func (s *Store) WriteFrames(ctx context.Context, frames []Frame) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write frames: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for i, f := range frames {
		if err := insertFrame(ctx, tx, f); err != nil {
			return fmt.Errorf("write frames: frame %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write frames: commit: %w", err)
	}
	return nil
}

// WriteSequenceEvent inserts a sequence event record.
// Uses ON CONFLICT DO NOTHING for idempotency - a sequence can start and
// finish only once per session.
func (s *Store) WriteSequenceEvent(ctx context.Context, ev SequenceEvent) error {
	if ev.Kind != EventStarted && ev.Kind != EventFinished {
		return fmt.Errorf("write sequence event: invalid kind %q", ev.Kind)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sequence_events
		(session_id, tick, sequence_id, macro, kind)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		ev.SessionID,
		ev.Tick,
		ev.SequenceID,
		ev.Macro,
		string(ev.Kind),
	)
	if err != nil {
		return fmt.Errorf("write sequence event: %w", err)
	}
	return nil
}

// DeleteSession removes a session and everything recorded under it.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, q := range []string{
		`DELETE FROM frames WHERE session_id = ?`,
		`DELETE FROM sequence_events WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete session: commit: %w", err)
	}
	return nil
}
