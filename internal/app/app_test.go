package app

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/config"
	"storefront/internal/service"

	"go.uber.org/zap"
)

func TestNewRequiresJWTSecret(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Host: "db.invalid", Port: "5432"},
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	if !errors.Is(err, service.ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
	if a != nil {
		t.Errorf("no app may be built without a secret")
	}
}
