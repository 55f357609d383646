package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/salestracker/internal/domain/models"
)

func sale(id int64, date string) models.SaleRecord {
	return models.SaleRecord{ID: id, Date: date, ItemName: "Bag", CashPrice: 10, Capital: 4, Quantity: 3}
}

func ids(rows []models.RawSale) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID.String())
	}
	return out
}

func TestLedger_AppendAndList(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(nil)

	if err := l.Append(ctx, sale(1, "2024-01-01")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rows, err := l.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CashPrice != "10" || rows[0].Quantity != "3" || rows[0].Date != "2024-01-01" {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestLedger_DuplicateID(t *testing.T) {
	ctx := context.Background()
	l := NewLedger([]models.SaleRecord{sale(1, "2024-01-01")})

	if err := l.Append(ctx, sale(1, "2024-01-02")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestLedger_InvalidID(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(nil)

	if err := l.Append(ctx, sale(0, "2024-01-01")); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if err := l.Remove(ctx, -1); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestLedger_RemoveThenListExcludesID(t *testing.T) {
	ctx := context.Background()
	l := NewLedger([]models.SaleRecord{sale(1, "2024-01-01"), sale(2, "2024-01-01"), sale(3, "2024-01-02")})

	if err := l.Remove(ctx, 2); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	// Unknown ids are a no-op.
	if err := l.Remove(ctx, 99); err != nil {
		t.Fatalf("Remove unknown failed: %v", err)
	}

	rows, _ := l.ListAll(ctx)
	got := ids(rows)
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("unexpected ids after remove: %v", got)
	}
}

func TestLedger_WriteLag(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLedger(nil, WithWriteLag(5*time.Second), WithClock(func() time.Time { return now }))

	if err := l.Append(ctx, sale(1, "2024-01-01")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rows, _ := l.ListAll(ctx)
	if len(rows) != 0 {
		t.Fatalf("write visible before lag elapsed: %v", ids(rows))
	}

	now = now.Add(5 * time.Second)
	rows, _ = l.ListAll(ctx)
	if len(rows) != 1 {
		t.Fatalf("write not visible after lag: %v", ids(rows))
	}

	if err := l.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	rows, _ = l.ListAll(ctx)
	if len(rows) != 1 {
		t.Fatalf("remove applied before lag elapsed")
	}

	now = now.Add(time.Minute)
	rows, _ = l.ListAll(ctx)
	if len(rows) != 0 {
		t.Fatalf("remove not applied after lag: %v", ids(rows))
	}
}
