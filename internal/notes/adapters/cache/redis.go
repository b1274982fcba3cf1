// Package cache кэширует карточки заметок в Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nicenote/internal/notes/domain/entities"
	"nicenote/internal/notes/ports/cache"
	"nicenote/pkg/logger"
)

// Константы для логирования.
const (
	ErrorFailedToGet    = "failed to get note from redis"
	ErrorFailedToSet    = "failed to set note in redis"
	ErrorFailedToDelete = "failed to delete note from redis"
	ErrorFailedToDecode = "failed to decode cached note"
	ErrorFailedToEncode = "failed to encode note"
)

// KeyPrefix - префикс ключей карточек.
const KeyPrefix = "nicenote:note:"

// DefaultTTL используется, если TTL не задан.
const DefaultTTL = 15 * time.Minute

// cachedNote - формат записи в Redis.
type cachedNote struct {
	ID        string    `cbor:"1,keyasint"`
	Title     string    `cbor:"2,keyasint"`
	Content   *string   `cbor:"3,keyasint"`
	Summary   *string   `cbor:"4,keyasint"`
	CreatedAt time.Time `cbor:"5,keyasint"`
	UpdatedAt time.Time `cbor:"6,keyasint"`
}

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// RedisCache реализует cache.NoteCache.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ cache.NoteCache = (*RedisCache)(nil)

// NewRedisCache создает кэш поверх готового клиента.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func key(id string) string {
	return KeyPrefix + id
}

// Get получает заметку по id.
func (c *RedisCache) Get(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "RedisCache.Get"), zap.String("noteID", id))

	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		log.Error(ctx, ErrorFailedToGet, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}

	var cn cachedNote
	if err := decMode.Unmarshal(raw, &cn); err != nil {
		log.Warn(ctx, ErrorFailedToDecode, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToDecode, err)
	}

	return &entities.Note{
		ID:        cn.ID,
		Title:     cn.Title,
		Content:   cn.Content,
		Summary:   cn.Summary,
		CreatedAt: cn.CreatedAt.UTC(),
		UpdatedAt: cn.UpdatedAt.UTC(),
	}, nil
}

// Set сохраняет заметку.
func (c *RedisCache) Set(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "RedisCache.Set"), zap.String("noteID", note.ID))

	raw, err := encMode.Marshal(cachedNote{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Summary:   note.Summary,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToEncode, err)
	}

	if err := c.client.Set(ctx, key(note.ID), raw, c.ttl).Err(); err != nil {
		log.Error(ctx, ErrorFailedToSet, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}
	return nil
}

// Delete удаляет заметку из кэша.
func (c *RedisCache) Delete(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", "RedisCache.Delete"), zap.String("noteID", id))

	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		log.Error(ctx, ErrorFailedToDelete, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDelete, err)
	}
	return nil
}
