package domain

import "testing"

func TestDailySummaryIsZero(t *testing.T) {
	if !(DailySummary{}).IsZero() {
		t.Fatalf("пустой вывод должен быть нулевым")
	}
	if (DailySummary{Takeaways: "три главных сдвига недели"}).IsZero() {
		t.Fatalf("вывод только с выводами не должен быть нулевым")
	}
	if (DailySummary{Title: "ИИ и чипы"}).IsZero() {
		t.Fatalf("вывод только с заголовком не должен быть нулевым")
	}
}
