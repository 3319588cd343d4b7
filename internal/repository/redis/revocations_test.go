package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRevocationCache_MarkAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewRevocationCache(client, "sessions:revoked")

	ctx := context.Background()
	ttl := 2 * time.Minute

	if err := cache.MarkRevoked(ctx, "jti-123", "user_logout", ttl); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	revoked, reason, err := cache.IsRevoked(ctx, "jti-123")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatalf("expected jti to be marked revoked")
	}
	if reason != "user_logout" {
		t.Fatalf("expected reason user_logout, got %s", reason)
	}

	remaining := server.TTL("sessions:revoked:jti-123")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestRevocationCache_EntryExpiresWithToken(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewRevocationCache(client, "sessions:revoked")

	ctx := context.Background()

	if err := cache.MarkRevoked(ctx, "jti-123", "user_logout", time.Minute); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	revoked, _, err := cache.IsRevoked(ctx, "jti-123")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected cache entry to expire with the token")
	}
}

func TestRevocationCache_IsRevokedMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRevocationCache(client, "sessions:revoked")

	revoked, reason, err := cache.IsRevoked(context.Background(), "missing")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected revoked to be false")
	}
	if reason != "" {
		t.Fatalf("expected empty reason, got %s", reason)
	}
}

func TestRevocationCache_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRevocationCache(client, "sessions:revoked")

	ctx := context.Background()

	if err := cache.MarkRevoked(ctx, "", "user_logout", time.Minute); err == nil {
		t.Fatalf("expected error for empty jti")
	}
	if err := cache.MarkRevoked(ctx, "jti-123", "user_logout", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if _, _, err := cache.IsRevoked(ctx, "   "); err == nil {
		t.Fatalf("expected error for blank jti")
	}
}

func TestRevocationCache_DefaultPrefix(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewRevocationCache(client, "  ")

	if err := cache.MarkRevoked(context.Background(), "jti-1", "user_logout", time.Minute); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	if !server.Exists("sessions:revoked:jti-1") {
		t.Fatalf("expected key under the default prefix")
	}
}
