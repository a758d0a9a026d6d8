// Package redis keeps sessions in Redis: one hash for metadata and one list
// of JSON encoded messages per session. Both keys expire together at the
// session expiry.
package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	goredis "github.com/redis/go-redis/v9"
	"go-toolchat/internal/store"
	"go-toolchat/pkg/models"
)

const keyPrefix = "toolchat:session:"

type Config struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	client goredis.UniversalClient
}

// Connect dials Redis and checks the connection with PING.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to ping redis", goerr.V("addr", cfg.Addr))
	}
	return New(client), nil
}

func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func metaKey(id string) string     { return keyPrefix + id }
func messagesKey(id string) string { return keyPrefix + id + ":messages" }

func (s *Store) Load(ctx context.Context, id string) (*models.Session, error) {
	meta, err := s.client.HGetAll(ctx, metaKey(id)).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session", goerr.V("session", id))
	}
	if len(meta) == 0 {
		return nil, goerr.Wrap(store.ErrNotFound, "load", goerr.V("session", id))
	}

	raw, err := s.client.LRange(ctx, messagesKey(id), 0, -1).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read messages", goerr.V("session", id))
	}

	session := &models.Session{
		ID:        id,
		Model:     meta["model"],
		CreatedAt: parseInt(meta["createdAt"]),
		ExpiresAt: parseInt(meta["expiresAt"]),
		Messages:  make([]models.Message, 0, len(raw)),
	}
	for _, r := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			return nil, goerr.Wrap(err, "corrupt message", goerr.V("session", id))
		}
		session.Messages = append(session.Messages, msg)
	}
	return session, nil
}

func (s *Store) Reset(ctx context.Context, session *models.Session) error {
	id := session.ID
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, metaKey(id), messagesKey(id))
		p.HSet(ctx, metaKey(id),
			"model", session.Model,
			"createdAt", session.CreatedAt,
			"expiresAt", session.ExpiresAt,
		)
		p.ExpireAt(ctx, metaKey(id), time.UnixMilli(session.ExpiresAt))
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to reset session", goerr.V("session", id))
	}
	return nil
}

func (s *Store) Append(ctx context.Context, id string, msg models.Message, expiresAt int64) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return goerr.Wrap(err, "failed to encode message", goerr.V("session", id))
	}
	n, err := s.client.Exists(ctx, metaKey(id)).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to check session", goerr.V("session", id))
	}
	if n == 0 {
		return goerr.Wrap(store.ErrNotFound, "append", goerr.V("session", id))
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, messagesKey(id), raw)
		s.touch(ctx, p, id, expiresAt)
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to append message", goerr.V("session", id))
	}
	return nil
}

func (s *Store) SetModel(ctx context.Context, id, model string, expiresAt int64) error {
	n, err := s.client.Exists(ctx, metaKey(id)).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to check session", goerr.V("session", id))
	}
	if n == 0 {
		return goerr.Wrap(store.ErrNotFound, "set model", goerr.V("session", id))
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, metaKey(id), "model", model)
		s.touch(ctx, p, id, expiresAt)
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to set model", goerr.V("session", id))
	}
	return nil
}

func (s *Store) touch(ctx context.Context, p goredis.Pipeliner, id string, expiresAt int64) {
	at := time.UnixMilli(expiresAt)
	p.HSet(ctx, metaKey(id), "expiresAt", expiresAt)
	p.ExpireAt(ctx, metaKey(id), at)
	p.ExpireAt(ctx, messagesKey(id), at)
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
