package journal

import (
	"context"
	"fmt"

	"github.com/arborkit/arbor/internal/trace"
)

// ReadTrace returns the events recorded under token, in sequence order.
// An unknown token yields an empty slice, not an error.
func (j *Journal) ReadTrace(ctx context.Context, token string) ([]trace.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, node, value_type, provider, source, from_state, to_state
		FROM events
		WHERE token = ?
		ORDER BY seq
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", token, err)
	}
	defer rows.Close()

	var events []trace.Event
	for rows.Next() {
		var e trace.Event
		var kind string
		if err := rows.Scan(&e.Seq, &kind, &e.Node, &e.ValueType, &e.Provider, &e.Source, &e.From, &e.To); err != nil {
			return nil, fmt.Errorf("read trace %s: %w", token, err)
		}
		e.Kind = trace.Kind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace %s: %w", token, err)
	}
	return events, nil
}

// Tokens lists every token present in the journal, ordered by token.
// UUIDv7 tokens therefore come back in creation order.
func (j *Journal) Tokens(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT DISTINCT token FROM events ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("list tokens: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}
