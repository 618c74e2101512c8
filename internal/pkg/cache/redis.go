package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to addr. It returns nil when addr is empty or
// the server does not answer, which disables caching.
func NewRedisClient(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		slog.Warn("REDIS_ADDR is not set, settings cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		slog.Error("Failed to connect to Redis, settings cache disabled", "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("Connected to Redis", "addr", addr)
	return client
}

// SettingsCache keeps the payroll settings snapshot of each company in
// Redis. A nil client turns every call into a miss.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSettingsCache(client *redis.Client, ttl time.Duration) *SettingsCache {
	return &SettingsCache{client: client, ttl: ttl}
}

func settingsKey(companyID string) string {
	return "payroll:settings:" + companyID
}

func (c *SettingsCache) Get(ctx context.Context, companyID string) (payroll.Settings, bool) {
	if c == nil || c.client == nil {
		return payroll.Settings{}, false
	}

	raw, err := c.client.Get(ctx, settingsKey(companyID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("Redis GET command failed", "error", err, "company_id", companyID)
		}
		return payroll.Settings{}, false
	}

	settings, err := decodeSettings(raw)
	if err != nil {
		slog.Warn("Discarding unreadable cached settings", "error", err, "company_id", companyID)
		return payroll.Settings{}, false
	}
	return settings, true
}

func (c *SettingsCache) Set(ctx context.Context, settings payroll.Settings) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := encodeSettings(settings)
	if err != nil {
		slog.Error("Failed to encode settings for cache", "error", err, "company_id", settings.CompanyID)
		return
	}
	if err := c.client.Set(ctx, settingsKey(settings.CompanyID), raw, c.ttl).Err(); err != nil {
		slog.Error("Redis SET command failed", "error", err, "company_id", settings.CompanyID)
	}
}

func (c *SettingsCache) Invalidate(ctx context.Context, companyID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, settingsKey(companyID)).Err(); err != nil {
		slog.Error("Redis DEL command failed", "error", err, "company_id", companyID)
	}
}

func encodeSettings(settings payroll.Settings) ([]byte, error) {
	return json.Marshal(settings)
}

func decodeSettings(raw []byte) (payroll.Settings, error) {
	var settings payroll.Settings
	err := json.Unmarshal(raw, &settings)
	return settings, err
}
