package journal

import (
	"context"
	"fmt"

	"github.com/arborkit/arbor/internal/trace"
)

// WriteEvent appends one trace event under the given token.
// Uses ON CONFLICT DO NOTHING so re-journaling a recorded run is
// idempotent; a (token, seq) pair is only ever written with one payload.
func (j *Journal) WriteEvent(ctx context.Context, token string, e trace.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events
		(token, seq, kind, node, value_type, provider, source, from_state, to_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token, seq) DO NOTHING
	`,
		token,
		e.Seq,
		string(e.Kind),
		e.Node,
		e.ValueType,
		e.Provider,
		e.Source,
		e.From,
		e.To,
	)
	if err != nil {
		return fmt.Errorf("write event %d: %w", e.Seq, err)
	}
	return nil
}

// WriteTrace appends every event of a recorder's trace under its token.
func (j *Journal) WriteTrace(ctx context.Context, rec *trace.Recorder) error {
	for _, e := range rec.Events() {
		if err := j.WriteEvent(ctx, rec.Token(), e); err != nil {
			return err
		}
	}
	return nil
}
