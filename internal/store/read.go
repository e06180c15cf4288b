package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// ErrSessionNotFound is returned by ReadSession for an unknown ID.
var ErrSessionNotFound = errors.New("session not found")

// ListSessions returns every session ordered by CreatedSeq.
//
// Returns an empty slice (not nil) if the store has no sessions.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, profile_hash, poll_hz, meta, created_seq
		FROM sessions
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session. Returns ErrSessionNotFound if the ID is
// unknown.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, profile_hash, poll_hz, meta, created_seq
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ReadFrames returns the frames of a session at one stage, ordered by tick.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadFrames(ctx context.Context, sessionID string, stage engine.Stage) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, tick, stage, offset_us, packet, buttons, left_trigger, right_trigger,
		       thumb_lx, thumb_ly, thumb_rx, thumb_ry
		FROM frames
		WHERE session_id = ? AND stage = ?
		ORDER BY tick ASC, stage COLLATE BINARY ASC
	`, sessionID, string(stage))
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	frames := []Frame{}
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}

// ReadSequenceEvents returns the sequence events of a session ordered by
// tick. Within a tick, starts come before finishes, then by sequence ID.
func (s *Store) ReadSequenceEvents(ctx context.Context, sessionID string) ([]SequenceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, tick, sequence_id, macro, kind
		FROM sequence_events
		WHERE session_id = ?
		ORDER BY tick ASC, kind COLLATE BINARY DESC, sequence_id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query sequence events: %w", err)
	}
	defer rows.Close()

	events := []SequenceEvent{}
	for rows.Next() {
		var (
			ev   SequenceEvent
			kind string
		)
		if err := rows.Scan(&ev.SessionID, &ev.Tick, &ev.SequenceID, &ev.Macro, &kind); err != nil {
			return nil, fmt.Errorf("scan sequence event: %w", err)
		}
		ev.Kind = EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sequence events: %w", err)
	}
	return events, nil
}

// CountFrames returns how many frames a session has at one stage.
func (s *Store) CountFrames(ctx context.Context, sessionID string, stage engine.Stage) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM frames WHERE session_id = ? AND stage = ?`,
		sessionID, string(stage),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess     Session
		metaJSON string
	)
	if err := row.Scan(&sess.ID, &sess.Name, &sess.ProfileHash, &sess.PollHz, &metaJSON, &sess.CreatedSeq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	meta, err := unmarshalMeta(metaJSON)
	if err != nil {
		return Session{}, fmt.Errorf("scan session %s: %w", sess.ID, err)
	}
	sess.Meta = meta
	return sess, nil
}

func scanFrame(row scanner) (Frame, error) {
	var (
		f               Frame
		stage           string
		packet, buttons int64
		lt, rt          int64
		lx, ly, rx, ry  int64
	)
	if err := row.Scan(&f.SessionID, &f.Tick, &stage, &f.OffsetMicros, &packet, &buttons,
		&lt, &rt, &lx, &ly, &rx, &ry); err != nil {
		return Frame{}, fmt.Errorf("scan frame: %w", err)
	}
	f.Stage = engine.Stage(stage)
	f.State = pad.State{
		PacketNumber: uint32(packet),
		Gamepad: pad.Gamepad{
			Buttons:      uint16(buttons),
			LeftTrigger:  uint8(lt),
			RightTrigger: uint8(rt),
			ThumbLX:      int16(lx),
			ThumbLY:      int16(ly),
			ThumbRX:      int16(rx),
			ThumbRY:      int16(ry),
		},
	}
	return f, nil
}
