//go:build integration

package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

func TestRedisLockKeepsForeignHolder(t *testing.T) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker недоступен: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	client, err := Connect(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "")
	if err != nil {
		t.Fatalf("подключение: %v", err)
	}
	defer client.Close()

	c := NewRedis(client)
	err = c.Lock(ctx, "lock:briefing", 200*time.Millisecond, func() error {
		time.Sleep(400 * time.Millisecond)
		if err := c.Lock(ctx, "lock:briefing", time.Minute, func() error { return nil }); err != nil {
			return fmt.Errorf("истёкшая блокировка не перехвачена: %w", err)
		}
		if ok, err := client.SetNX(ctx, "lock:briefing", "other", time.Minute).Result(); err != nil || !ok {
			return fmt.Errorf("чужая блокировка не поставлена: %v %v", ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("блокировка: %v", err)
	}
	if v, err := client.Get(ctx, "lock:briefing").Result(); err != nil || v != "other" {
		t.Fatalf("снята чужая блокировка: %q %v", v, err)
	}
	if err := c.Lock(ctx, "lock:briefing", time.Minute, func() error { return nil }); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("ожидали ErrLocked, получили %v", err)
	}
}
