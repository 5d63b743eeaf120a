package portfolio

import (
	"math"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "positions.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddAndGet(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("aapl", 150, 10, "starter"); err != nil {
		t.Fatal(err)
	}

	pos, ok := s.Get("AAPL")
	if !ok {
		t.Fatal("position not found after Add")
	}
	if pos.AvgEntryPrice != 150 || pos.Quantity != 10 {
		t.Errorf("position = %+v", pos)
	}
}

func TestAddAveragesIn(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("MSFT", 100, 10, ""); err != nil {
		t.Fatal(err)
	}
	pos, err := s.Add("MSFT", 200, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pos.AvgEntryPrice-150) > 1e-9 {
		t.Errorf("averaged entry = %.2f, want 150", pos.AvgEntryPrice)
	}
	if pos.Quantity != 20 {
		t.Errorf("quantity = %.0f, want 20", pos.Quantity)
	}
}

func TestAddValidation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("AAPL", 0, 10, ""); err == nil {
		t.Error("expected error for zero price")
	}
	if _, err := s.Add("AAPL", 100, -1, ""); err == nil {
		t.Error("expected error for negative quantity")
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	s.Add("NVDA", 500, 2, "")

	removed, err := s.Remove("nvda")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if _, ok := s.Get("NVDA"); ok {
		t.Error("position still present after Remove")
	}
	removed, err = s.Remove("NVDA")
	if err != nil || removed {
		t.Errorf("second Remove = %v, %v, want false, nil", removed, err)
	}
}

func TestListSorted(t *testing.T) {
	s := newTestStore(t)
	s.Add("MSFT", 100, 1, "")
	s.Add("AAPL", 100, 1, "")
	s.Add("NVDA", 100, 1, "")

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	for i, want := range []string{"AAPL", "MSFT", "NVDA"} {
		if list[i].Ticker != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Ticker, want)
		}
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Add("AAPL", 150, 10, "keep me")

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	pos, ok := reloaded.Get("AAPL")
	if !ok {
		t.Fatal("position lost across reload")
	}
	if pos.Notes != "keep me" {
		t.Errorf("notes = %q", pos.Notes)
	}
}
