package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"koerperwerte/internal/adapter/memory"
	"koerperwerte/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), &config.Config{StoreDriver: config.DriverMemory}, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	if _, ok := b.Locker.(*memory.Locker); !ok {
		t.Errorf("expected in-process locker, got %T", b.Locker)
	}
	if b.Redis != nil {
		t.Error("expected no redis pinger")
	}
	if err := b.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "k.db")}
	b, err := Open(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := b.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), &config.Config{StoreDriver: "mysql"}, discardLogger()); err == nil {
		t.Fatal("expected error")
	}
}
