package container

import (
	"testing"

	"tickerfeed/internal/infrastructure/config"
)

func TestContainerLazySingletons(t *testing.T) {
	c := New(config.Default())
	defer c.Close()

	if c.RefStore() != c.RefStore() {
		t.Error("RefStore not a singleton")
	}
	if c.RefCache() != c.RefCache() {
		t.Error("RefCache not a singleton")
	}
	if c.Manager() != c.Manager() {
		t.Error("Manager not a singleton")
	}
	if c.Monitor() != c.Monitor() {
		t.Error("Monitor not a singleton")
	}
}

func TestContainerFallsBackWithoutRedis(t *testing.T) {
	cfg := config.Default()
	// 不可达地址不能阻止启动
	cfg.Redis.Addr = "127.0.0.1:1"
	c := New(cfg)
	defer c.Close()

	if c.RefStore() == nil {
		t.Fatal("no refprice store after redis fallback")
	}
	if c.redisClient != nil {
		t.Error("unreachable redis kept a client around")
	}
}

func TestContainerCloseIdempotent(t *testing.T) {
	c := New(config.Default())
	c.Manager()
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
