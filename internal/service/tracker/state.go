package tracker

import (
	"time"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/aggregation"
)

// OpKind identifies an unacknowledged ledger write.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpDelete OpKind = "delete"
)

// Pending is a write that has been sent but not yet observed by a reload.
type Pending struct {
	Op       OpKind    `json:"op"`
	ID       int64     `json:"id"`
	IssuedAt time.Time `json:"issuedAt"`
	SettleAt time.Time `json:"settleAt"`
}

// State is an immutable snapshot of the tracker. Transitions return a new
// State and never modify the slices of the one they were given.
type State struct {
	Sales        []models.DerivedSale `json:"sales"`
	SelectedDate string               `json:"selectedDate"`
	Refreshing   bool                 `json:"refreshing"`
	Message      string               `json:"message,omitempty"`
	Err          string               `json:"error,omitempty"`
	LoadedAt     time.Time            `json:"loadedAt"`
	Pending      []Pending            `json:"pending,omitempty"`
}

// Loading reports whether any refresh or write is in flight. Front ends
// disable their inputs while it is true.
func (s State) Loading() bool {
	return s.Refreshing || len(s.Pending) > 0
}

// Totals rolls up every cached sale.
func (s State) Totals() models.Totals {
	return aggregation.Aggregate(s.Sales)
}

// DailyTotals rolls up the cached sales of the selected date.
func (s State) DailyTotals() models.Totals {
	return aggregation.AggregateByDate(s.Sales, s.SelectedDate)
}

// StartLoading marks a full reload as started.
func StartLoading(s State) State {
	s.Refreshing = true
	s.Message = "Loading data..."
	return s
}

// Loaded replaces the cached sales wholesale with a fresh reload.
func Loaded(s State, sales []models.DerivedSale, at time.Time) State {
	s.Sales = sales
	s.Refreshing = false
	s.LoadedAt = at
	s.Err = ""
	s.Message = "Data loaded successfully!"
	return s
}

// LoadFailed records a failed reload. The previous sales are kept.
func LoadFailed(s State, err error) State {
	s.Refreshing = false
	s.Err = err.Error()
	s.Message = "Error loading data: " + err.Error()
	return s
}

// Rejected records a validation failure. Nothing was sent.
func Rejected(s State, err error) State {
	s.Message = err.Error()
	return s
}

// Submitted records a write that has just been sent.
func Submitted(s State, p Pending) State {
	s.Pending = append(append([]Pending(nil), s.Pending...), p)
	s.Err = ""
	switch p.Op {
	case OpAdd:
		s.Message = "Adding sale..."
	case OpDelete:
		s.Message = "Deleting sale..."
	}
	return s
}

// WriteFailed records a write that could not be sent at all.
func WriteFailed(s State, p Pending, err error) State {
	s = dropPending(s, p)
	s.Err = err.Error()
	switch p.Op {
	case OpAdd:
		s.Message = "Error adding sale: " + err.Error()
	case OpDelete:
		s.Message = "Error deleting sale: " + err.Error()
	}
	return s
}

// Settled clears a pending write once the reload after its settle delay is done.
func Settled(s State, p Pending) State {
	s = dropPending(s, p)
	switch p.Op {
	case OpAdd:
		s.Message = "Sale added successfully!"
	case OpDelete:
		s.Message = "Sale deleted successfully!"
	}
	return s
}

// SelectDate changes the date used for daily totals.
func SelectDate(s State, date string) State {
	s.SelectedDate = date
	return s
}

// ClearMessage removes the user-facing status line.
func ClearMessage(s State) State {
	s.Message = ""
	return s
}

func dropPending(s State, p Pending) State {
	kept := make([]Pending, 0, len(s.Pending))
	for _, q := range s.Pending {
		if q.Op == p.Op && q.ID == p.ID && q.IssuedAt.Equal(p.IssuedAt) {
			continue
		}
		kept = append(kept, q)
	}
	s.Pending = kept
	return s
}
