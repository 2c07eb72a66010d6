package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/leadpulse-id/outreach-service/environments"
	"github.com/leadpulse-id/outreach-service/internal/domain"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	settingsKey    = "app_settings"
	settingsTTL    = 1 * time.Minute
	sentStepPrefix = "nurture_sent:"
	sentStepTTL    = 72 * time.Hour
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// CacheSettings stores the settings snapshot with a short TTL so every tick
// does not hit the database for the global kill-switch.
func (c *Client) CacheSettings(ctx context.Context, settings *domain.Settings) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	err = c.client.Do(ctx, c.client.B().Set().Key(settingsKey).Value(string(data)).Ex(settingsTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache settings: %w", err)
	}

	return nil
}

func (c *Client) GetCachedSettings(ctx context.Context) (*domain.Settings, error) {
	if c == nil {
		return nil, nil
	}

	result := c.client.Do(ctx, c.client.B().Get().Key(settingsKey).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached settings: %w", result.Error())
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached settings: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached settings: %w", err)
	}

	return &settings, nil
}

// CacheSentStep records the dedup key of a completed nurture send. Because the
// gateway is at-least-once, downstream consumers use this (and the dedup_key
// column) to detect a retried send for the same lead and step.
func (c *Client) CacheSentStep(ctx context.Context, dedupKey, externalMessageID string) error {
	if c == nil {
		return nil
	}

	key := sentStepPrefix + dedupKey

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value(externalMessageID).Ex(sentStepTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache sent step: %w", err)
	}

	logger.Debugf("Cached sent step %s -> %s", dedupKey, externalMessageID)

	return nil
}

func (c *Client) GetSentStep(ctx context.Context, dedupKey string) (string, error) {
	if c == nil {
		return "", nil
	}

	key := sentStepPrefix + dedupKey

	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get sent step: %w", result.Error())
	}

	value, err := result.ToString()
	if err != nil {
		return "", fmt.Errorf("failed to read sent step: %w", err)
	}

	return value, nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
