package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps one JSON value per document plus a membership set per
// collection, and pushes change events over Pub/Sub so subscribers see
// writes from any console instance.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "redis_docstore").Logger(),
	}
}

func docKey(path string) string           { return "doc:" + path }
func colKey(collection string) string     { return "col:" + collection }
func colChannel(collection string) string { return "docstore:" + collection }

func (s *RedisStore) Get(ctx context.Context, path string) (Document, error) {
	data, err := s.client.Get(ctx, docKey(path)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	paths, err := s.client.SMembers(ctx, colKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	if len(paths) == 0 {
		return nil, nil
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = docKey(p)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// membership set can briefly lead deleted documents
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.logger.Warn().Err(err).Str("path", paths[i]).Msg("skipping undecodable document")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(path), data, 0)
	pipe.SAdd(ctx, colKey(Parent(path)), path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	s.notify(ctx, Event{Kind: EventPut, Path: path})
	return nil
}

func (s *RedisStore) Update(ctx context.Context, path string, fields map[string]any) error {
	doc, err := s.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	merged := doc.Clone()
	for k, v := range fields {
		merged[k] = v
	}
	return s.Set(ctx, path, merged)
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, docKey(path))
	pipe.SRem(ctx, colKey(Parent(path)), path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.notify(ctx, Event{Kind: EventDelete, Path: path})
	return nil
}

func (s *RedisStore) notify(ctx context.Context, evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, colChannel(Parent(evt.Path)), payload).Err(); err != nil {
		s.logger.Warn().Err(err).Str("path", evt.Path).Msg("failed to publish change event")
	}
}

// Subscribe listens on the collection's Pub/Sub channel and translates
// messages into Events until ctx is cancelled or Close is called.
func (s *RedisStore) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, colChannel(collection))
	// force the SUBSCRIBE round-trip so a broken connection fails here
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
	}
	go func() {
		defer close(sub.events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					s.logger.Warn().Err(err).Msg("failed to decode change event payload")
					continue
				}
				select {
				case sub.events <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *redisSubscription) Events() <-chan Event { return s.events }
func (s *redisSubscription) Close() error         { return s.pubsub.Close() }
