// Package tracker holds the sales page state and drives the ledger through
// unacknowledged writes followed by a delayed full reload.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/aggregation"
)

// Ledger is the record store the tracker reads from and writes to.
type Ledger interface {
	ListAll(ctx context.Context) ([]models.RawSale, error)
	Append(ctx context.Context, record models.SaleRecord) error
	Remove(ctx context.Context, id int64) error
}

// ErrInvalidID indicates a delete request without a usable sale id.
var ErrInvalidID = errors.New("invalid sale id")

// Service owns the current State and replaces it atomically on each transition.
type Service struct {
	ledger      Ledger
	settleDelay time.Duration
	location    *time.Location
	logger      *zap.Logger
	now         func() time.Time
	state       atomic.Pointer[State]
	lastID      atomic.Int64
}

// NewService wires a tracker over ledger. Dates default to today in location.
func NewService(ledger Ledger, settleDelay time.Duration, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}

	s := &Service{
		ledger:      ledger,
		settleDelay: settleDelay,
		location:    location,
		logger:      logger,
		now:         time.Now,
	}
	s.state.Store(&State{SelectedDate: s.today()})
	return s
}

// Snapshot returns the current state.
func (s *Service) Snapshot() State {
	return *s.state.Load()
}

// SelectDate changes the date used for daily totals. An empty date selects today.
func (s *Service) SelectDate(date string) State {
	if date == "" {
		date = s.today()
	}
	return s.apply(func(st State) State { return SelectDate(st, date) })
}

// ClearMessage drops the status line.
func (s *Service) ClearMessage() State {
	return s.apply(ClearMessage)
}

// Refresh reloads every record from the ledger and replaces the cached sales.
// On failure the previous sales stay in place.
func (s *Service) Refresh(ctx context.Context) (State, error) {
	s.apply(StartLoading)

	sales, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("ledger reload failed", zap.Error(err))
		return s.apply(func(st State) State { return LoadFailed(st, err) }), err
	}

	loadedAt := s.now()
	st := s.apply(func(st State) State { return Loaded(st, sales, loadedAt) })
	s.logger.Debug("ledger reloaded", zap.Int("sales", len(sales)))
	return st, nil
}

// AddSale validates form, sends the new record and returns the pending write.
// A *models.ValidationError means nothing was sent.
func (s *Service) AddSale(ctx context.Context, form models.SaleForm) (Pending, error) {
	issuedAt := s.now()
	record, err := buildSaleRecord(form, s.nextID(issuedAt), s.Snapshot().SelectedDate)
	if err != nil {
		s.apply(func(st State) State { return Rejected(st, err) })
		return Pending{}, err
	}

	p := s.pending(OpAdd, record.ID, issuedAt)
	s.apply(func(st State) State { return Submitted(st, p) })

	if err := s.ledger.Append(ctx, record); err != nil {
		s.logger.Error("failed sending sale", zap.Int64("id", record.ID), zap.Error(err))
		s.apply(func(st State) State { return WriteFailed(st, p, err) })
		return Pending{}, fmt.Errorf("add sale: %w", err)
	}

	s.logger.Info("sale submitted",
		zap.Int64("id", record.ID),
		zap.String("date", record.Date),
		zap.String("item", record.ItemName))
	return p, nil
}

// DeleteSale sends a deletion for id and returns the pending write.
func (s *Service) DeleteSale(ctx context.Context, id int64) (Pending, error) {
	if id <= 0 {
		return Pending{}, ErrInvalidID
	}

	p := s.pending(OpDelete, id, s.now())
	s.apply(func(st State) State { return Submitted(st, p) })

	if err := s.ledger.Remove(ctx, id); err != nil {
		s.logger.Error("failed sending delete", zap.Int64("id", id), zap.Error(err))
		s.apply(func(st State) State { return WriteFailed(st, p, err) })
		return Pending{}, fmt.Errorf("delete sale: %w", err)
	}

	s.logger.Info("sale delete submitted", zap.Int64("id", id))
	return p, nil
}

// Settle waits until the settle time of p, reloads the ledger and clears p.
// The reload reflects whatever the ledger holds at that moment; a write that
// lands later only shows up on a subsequent refresh.
func (s *Service) Settle(ctx context.Context, p Pending) (State, error) {
	if wait := p.SettleAt.Sub(s.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			st := s.apply(func(st State) State { return dropPending(st, p) })
			return st, ctx.Err()
		case <-timer.C:
		}
	}

	s.apply(StartLoading)
	sales, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("reload after write failed", zap.String("op", string(p.Op)), zap.Int64("id", p.ID), zap.Error(err))
		st := s.apply(func(st State) State { return LoadFailed(dropPending(st, p), err) })
		return st, err
	}

	loadedAt := s.now()
	return s.apply(func(st State) State {
		return Settled(Loaded(st, sales, loadedAt), p)
	}), nil
}

func (s *Service) load(ctx context.Context) ([]models.DerivedSale, error) {
	rows, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return aggregation.Decorate(rows), nil
}

func (s *Service) pending(op OpKind, id int64, issuedAt time.Time) Pending {
	return Pending{Op: op, ID: id, IssuedAt: issuedAt, SettleAt: issuedAt.Add(s.settleDelay)}
}

func (s *Service) apply(fn func(State) State) State {
	for {
		current := s.state.Load()
		next := fn(*current)
		if s.state.CompareAndSwap(current, &next) {
			return next
		}
	}
}

// nextID returns the creation time of a new sale in milliseconds, bumped past
// the previous id when two sales share a millisecond.
func (s *Service) nextID(at time.Time) int64 {
	for {
		last := s.lastID.Load()
		id := max(at.UnixMilli(), last+1)
		if s.lastID.CompareAndSwap(last, id) {
			return id
		}
	}
}

func (s *Service) today() string {
	return s.now().In(s.location).Format(models.DateLayout)
}

func buildSaleRecord(form models.SaleForm, id int64, defaultDate string) (models.SaleRecord, error) {
	if form.ItemName.Empty() || form.Capital.Empty() {
		field := "itemName"
		if !form.ItemName.Empty() {
			field = "capital"
		}
		return models.SaleRecord{}, &models.ValidationError{Field: field, Message: "Please fill in item name and capital"}
	}

	capital := aggregation.ParseAmount(form.Capital.String())
	if math.IsNaN(capital) {
		return models.SaleRecord{}, &models.ValidationError{Field: "capital", Message: "Capital must be a number"}
	}

	cash := aggregation.AmountOrZero(form.CashPrice.String())
	online := aggregation.AmountOrZero(form.OnlinePrice.String())
	if cash == 0 && online == 0 {
		return models.SaleRecord{}, &models.ValidationError{Field: "cashPrice", Message: "Please enter at least one price (cash or online)"}
	}

	quantity := 1
	if q := aggregation.ParseQuantity(form.Quantity.String()); !math.IsNaN(q) && q >= 1 {
		quantity = int(q)
	}

	date := form.Date.String()
	if date == "" {
		date = defaultDate
	}

	return models.SaleRecord{
		ID:          id,
		Date:        date,
		ItemName:    form.ItemName.String(),
		CashPrice:   cash,
		OnlinePrice: online,
		Capital:     capital,
		Quantity:    quantity,
	}, nil
}
