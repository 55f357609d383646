package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/mamadbah2/salestracker/internal/domain/models"
)

// Ledger errors.
var (
	// ErrDuplicateID is returned when a sale with the same id already exists.
	ErrDuplicateID = errors.New("duplicate sale id")

	// ErrInvalidID is returned for non-positive sale ids.
	ErrInvalidID = errors.New("invalid sale id")
)

type pendingWrite struct {
	applyAt  time.Time
	add      *models.SaleRecord
	removeID int64
}

// Ledger is an in-memory sale ledger. An optional write lag makes writes
// become visible only after the lag elapses, like a slow remote sheet.
type Ledger struct {
	mu      sync.Mutex
	rows    []models.SaleRecord
	pending []pendingWrite
	lag     time.Duration
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithWriteLag delays the visibility of every write.
func WithWriteLag(lag time.Duration) Option {
	return func(l *Ledger) { l.lag = lag }
}

// WithClock overrides the time source used to apply lagged writes.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates an in-memory ledger seeded with records.
func NewLedger(seed []models.SaleRecord, opts ...Option) *Ledger {
	l := &Ledger{
		rows: append([]models.SaleRecord(nil), seed...),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListAll returns every visible row in insertion order.
func (l *Ledger) ListAll(_ context.Context) ([]models.RawSale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.applyDue()

	out := make([]models.RawSale, 0, len(l.rows))
	for _, row := range l.rows {
		out = append(out, toRaw(row))
	}
	return out, nil
}

// Append stores a new sale. Returns ErrDuplicateID if the id is already visible.
func (l *Ledger) Append(_ context.Context, record models.SaleRecord) error {
	if record.ID <= 0 {
		return ErrInvalidID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.applyDue()
	if l.indexOf(record.ID) >= 0 {
		return ErrDuplicateID
	}

	recordCopy := record
	l.pending = append(l.pending, pendingWrite{applyAt: l.now().Add(l.lag), add: &recordCopy})
	l.applyDue()
	return nil
}

// Remove deletes the sale with the given id. Unknown ids are ignored.
func (l *Ledger) Remove(_ context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, pendingWrite{applyAt: l.now().Add(l.lag), removeID: id})
	l.applyDue()
	return nil
}

// applyDue must be called with mu held.
func (l *Ledger) applyDue() {
	now := l.now()
	kept := l.pending[:0]
	for _, w := range l.pending {
		if w.applyAt.After(now) {
			kept = append(kept, w)
			continue
		}
		if w.add != nil {
			l.rows = append(l.rows, *w.add)
			continue
		}
		if idx := l.indexOf(w.removeID); idx >= 0 {
			l.rows = append(l.rows[:idx:idx], l.rows[idx+1:]...)
		}
	}
	l.pending = kept
}

func (l *Ledger) indexOf(id int64) int {
	for i, row := range l.rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func toRaw(r models.SaleRecord) models.RawSale {
	return models.RawSale{
		ID:          models.Cell(strconv.FormatInt(r.ID, 10)),
		Date:        models.Cell(r.Date),
		ItemName:    models.Cell(r.ItemName),
		CashPrice:   models.Cell(strconv.FormatFloat(r.CashPrice, 'f', -1, 64)),
		OnlinePrice: models.Cell(strconv.FormatFloat(r.OnlinePrice, 'f', -1, 64)),
		Capital:     models.Cell(strconv.FormatFloat(r.Capital, 'f', -1, 64)),
		Quantity:    models.Cell(strconv.Itoa(r.Quantity)),
	}
}
