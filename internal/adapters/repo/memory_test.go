package repo

import (
	"testing"
	"time"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemory(time.UTC))
}

func TestWindow(t *testing.T) {
	taipei := time.FixedZone("Asia/Taipei", 8*3600)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	from, to := Window(7, now, taipei)
	if from != "2025-03-04" || to != "2025-03-11" {
		t.Fatalf("неверное окно: %s..%s", from, to)
	}
}
