package files

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Cache хранит ответы getFile по file_id. Промах возвращает nil, nil.
type Cache interface {
	Get(ctx context.Context, fileID string) (*tgbotapi.File, error)
	Set(ctx context.Context, file tgbotapi.File) error
	Delete(ctx context.Context, fileID string) error
}

type RedisFileCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisFileCache(redisURL, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisFileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis успешно установлено")

	return &RedisFileCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func fileKey(fileID string) string {
	return fmt.Sprintf("file:%s", fileID)
}

func (c *RedisFileCache) Get(ctx context.Context, fileID string) (*tgbotapi.File, error) {
	data, err := c.client.Get(ctx, fileKey(fileID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			c.logger.Debug("Файл не найден в кэше",
				"file_id", fileID,
			)

			return nil, nil
		}

		c.logger.Error("Ошибка при получении данных из Redis",
			"error", err,
			"file_id", fileID,
		)

		return nil, fmt.Errorf("ошибка при получении данных из Redis: %w", err)
	}

	var file tgbotapi.File
	if err := json.Unmarshal(data, &file); err != nil {
		c.logger.Error("Ошибка при десериализации данных из Redis",
			"error", err,
			"file_id", fileID,
		)

		return nil, fmt.Errorf("ошибка при десериализации данных из Redis: %w", err)
	}

	return &file, nil
}

func (c *RedisFileCache) Set(ctx context.Context, file tgbotapi.File) error {
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации данных для Redis: %w", err)
	}

	if err := c.client.Set(ctx, fileKey(file.FileID), data, c.ttl).Err(); err != nil {
		c.logger.Error("Ошибка при сохранении данных в Redis",
			"error", err,
			"file_id", file.FileID,
		)

		return fmt.Errorf("ошибка при сохранении данных в Redis: %w", err)
	}

	c.logger.Debug("Файл сохранен в кэш",
		"file_id", file.FileID,
		"ttl", c.ttl,
	)

	return nil
}

func (c *RedisFileCache) Delete(ctx context.Context, fileID string) error {
	if err := c.client.Del(ctx, fileKey(fileID)).Err(); err != nil {
		c.logger.Error("Ошибка при удалении данных из Redis",
			"error", err,
			"file_id", fileID,
		)

		return fmt.Errorf("ошибка при удалении данных из Redis: %w", err)
	}

	return nil
}

func (c *RedisFileCache) Close() error {
	return c.client.Close()
}

type memoryEntry struct {
	file      tgbotapi.File
	expiresAt time.Time
}

// MemoryFileCache используется, когда REDIS_URL не задан.
type MemoryFileCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryFileCache(ttl time.Duration) *MemoryFileCache {
	return &MemoryFileCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryFileCache) Get(_ context.Context, fileID string) (*tgbotapi.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fileID]
	if !ok {
		return nil, nil
	}

	if c.ttl > 0 && !c.now().Before(entry.expiresAt) {
		delete(c.entries, fileID)
		return nil, nil
	}

	file := entry.file

	return &file, nil
}

func (c *MemoryFileCache) Set(_ context.Context, file tgbotapi.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[file.FileID] = memoryEntry{
		file:      file,
		expiresAt: c.now().Add(c.ttl),
	}

	return nil
}

func (c *MemoryFileCache) Delete(_ context.Context, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, fileID)

	return nil
}
