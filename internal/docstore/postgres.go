package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// notifyChannel matches the channel the documents table trigger notifies on
// (see db/migrations).
const notifyChannel = "docstore_changes"

// PostgresStore persists documents in a single jsonb table. Change events
// are raised by an AFTER trigger through NOTIFY so that subscribers observe
// writes made by any process, not just this one.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres_docstore").Logger(),
	}
}

func (s *PostgresStore) Get(ctx context.Context, path string) (Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM documents WHERE path = $1`, path).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `SELECT path, body FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var path string
		var body []byte
		if err := rows.Scan(&path, &body); err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		var doc Document
		if err := json.Unmarshal(body, &doc); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping undecodable document")
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) Set(ctx context.Context, path string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (path, collection, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		path, Parent(path), body)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, path string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal patch %s: %w", path, err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET body = body || $2::jsonb, updated_at = now() WHERE path = $1`,
		path, patch)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", path, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Subscribe holds one pooled connection on LISTEN for the lifetime of the
// subscription and filters trigger notifications down to one collection.
func (s *PostgresStore) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &postgresSubscription{
		cancel: cancel,
		events: make(chan Event, 16),
	}
	go func() {
		defer close(sub.events)
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					s.logger.Warn().Err(err).Str("collection", collection).Msg("notification wait failed")
				}
				return
			}
			var evt struct {
				Op         string `json:"op"`
				Path       string `json:"path"`
				Collection string `json:"collection"`
			}
			if err := json.Unmarshal([]byte(notification.Payload), &evt); err != nil {
				s.logger.Warn().Err(err).Msg("failed to decode notification payload")
				continue
			}
			if evt.Collection != collection {
				continue
			}
			kind := EventPut
			if evt.Op == "DELETE" {
				kind = EventDelete
			}
			select {
			case sub.events <- Event{Kind: kind, Path: evt.Path}:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return sub, nil
}

type postgresSubscription struct {
	cancel context.CancelFunc
	events chan Event
}

func (s *postgresSubscription) Events() <-chan Event { return s.events }

func (s *postgresSubscription) Close() error {
	s.cancel()
	return nil
}
