package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/slabtrack/cardstock/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewHTTPServer_MemoryBackend(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:     ":0",
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	srv, err := NewHTTPServer(cfg, testLogger())
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	if srv.Handler == nil {
		t.Fatalf("expected router to be set")
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("unexpected read timeout: %s", srv.ReadTimeout)
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := config.Config{CacheTTL: time.Minute}

	if _, err := NewHTTPServer(cfg, testLogger()); err == nil {
		t.Fatalf("expected error for empty http addr")
	}
}

func TestBuildImportPublisher_DisabledReturnsNil(t *testing.T) {
	publisher := buildImportPublisher(config.Config{QStashEnabled: false}, testLogger())
	if publisher != nil {
		t.Fatalf("expected nil publisher when qstash is disabled")
	}
}

func TestBuildCatalogProvider_DisabledUsesSeededProvider(t *testing.T) {
	provider := buildCatalogProvider(config.Config{CatalogEnabled: false})
	if provider == nil {
		t.Fatalf("expected seeded in-memory provider")
	}
}
