package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/cache"
	"github.com/codshopapp/codshop/internal/crypto"
)

// Settings keys read by the core. Values are written by the admin surface.
const (
	SettingPurchaseEvent     = "purchase_event"
	SettingMetaPixelID       = "meta_pixel_id"
	SettingMetaAccessToken   = "meta_access_token"
	SettingTikTokPixelCode   = "tiktok_pixel_code"
	SettingTikTokAccessToken = "tiktok_access_token"
)

const (
	PurchaseEventConfirmed = "confirmed"
	PurchaseEventDelivered = "delivered"
)

const settingsCacheTTL = 30 * time.Second

// SettingsStore reads the storefront settings table through a short-TTL cache.
// Access tokens are stored encrypted and decrypted on read.
type SettingsStore struct {
	pool      *pgxpool.Pool
	cache     cache.Provider
	encryptor crypto.Encryptor
}

func NewSettingsStore(pool *pgxpool.Pool, cacheProvider cache.Provider, encryptor crypto.Encryptor) (*SettingsStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("settings store: pool is required")
	}
	if cacheProvider == nil {
		return nil, fmt.Errorf("settings store: cache provider is required")
	}
	if encryptor == nil {
		return nil, fmt.Errorf("settings store: encryptor is required")
	}
	return &SettingsStore{pool: pool, cache: cacheProvider, encryptor: encryptor}, nil
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	cacheKey := cache.SettingKey(key)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		return cached, nil
	}

	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	_ = s.cache.Set(ctx, cacheKey, value, settingsCacheTTL)
	return value, nil
}

// PurchaseEventMode returns the configured purchase trigger. Missing or
// unknown values fall back to the confirmed default.
func (s *SettingsStore) PurchaseEventMode(ctx context.Context) string {
	value, err := s.Get(ctx, SettingPurchaseEvent)
	if err != nil {
		return PurchaseEventConfirmed
	}
	if value == PurchaseEventDelivered {
		return PurchaseEventDelivered
	}
	return PurchaseEventConfirmed
}

// Credential returns a decrypted access token, or ErrNotFound when the
// platform is not configured.
func (s *SettingsStore) Credential(ctx context.Context, key string) (string, error) {
	ciphertext, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	plaintext, err := s.encryptor.Decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt setting %s: %w", key, err)
	}
	return plaintext, nil
}
