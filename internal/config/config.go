package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string

	// StorageRoot holds one directory per gallery, each with an
	// original/ and a thumbs/ subdirectory.
	StorageRoot string

	// UnlockSecret keys the HMAC for visitor unlock tokens.
	UnlockSecret string
	UnlockTTL    time.Duration

	// Admin API credentials. AdminPasswordHash is a PHC-encoded Argon2id hash.
	AdminUser         string
	AdminPasswordHash string
	JWTSecret         string
	JWTExpiry         time.Duration

	ThumbMaxWidth int
	WatermarkText string

	// Optional URL to redirect non-image clients to when a private
	// thumbnail is requested without access.
	PrivateNoticeURL string
}

func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		DatabaseDSN:       getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/gallerygate?parseTime=true"),
		StorageRoot:       getEnv("STORAGE_ROOT", "./galleries"),
		UnlockSecret:      getEnv("UNLOCK_SECRET", "dev-secret-change-in-production"),
		UnlockTTL:         24 * time.Hour,
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry:         24 * time.Hour,
		ThumbMaxWidth:     getEnvInt("THUMB_MAX_WIDTH", 1080),
		WatermarkText:     getEnv("WATERMARK_TEXT", "Parfocal Media"),
		PrivateNoticeURL:  getEnv("PRIVATE_NOTICE_URL", ""),
	}

	if cfg.Env == "production" {
		if cfg.UnlockSecret == "dev-secret-change-in-production" {
			slog.Error("UNLOCK_SECRET must be set in production environment")
			os.Exit(1)
		}
		if cfg.JWTSecret == "dev-secret-change-in-production" {
			slog.Error("JWT_SECRET must be set in production environment")
			os.Exit(1)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid integer env value, using fallback", "key", key, "value", v)
	}
	return fallback
}
