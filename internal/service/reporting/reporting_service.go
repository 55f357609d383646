package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/aggregation"
)

// Lister is the read side of a sales ledger.
type Lister interface {
	ListAll(ctx context.Context) ([]models.RawSale, error)
}

// Service builds end-of-day sales summaries.
type Service struct {
	ledger   Lister
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(ledger Lister, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{ledger: ledger, location: location, logger: logger, now: time.Now}
}

// BuildDailyReport loads the full ledger and rolls it up for date and overall.
// An empty date means today in the service location.
func (s *Service) BuildDailyReport(ctx context.Context, date string) (models.DailyReport, error) {
	date, sales, err := s.load(ctx, date)
	if err != nil {
		return models.DailyReport{}, err
	}

	daily := aggregation.FilterByDate(sales, date)
	report := models.DailyReport{
		Date:       date,
		SalesCount: len(daily),
		Daily:      aggregation.Aggregate(daily),
		Cumulative: aggregation.Aggregate(sales),
		CreatedAt:  s.now().UTC(),
	}

	s.logger.Debug("daily report built",
		zap.String("date", date),
		zap.Int("sales", report.SalesCount),
		zap.Int("records", len(sales)))
	return report, nil
}

// SalesOn returns the resolved date and the sales recorded on it.
func (s *Service) SalesOn(ctx context.Context, date string) (string, []models.DerivedSale, error) {
	date, sales, err := s.load(ctx, date)
	if err != nil {
		return "", nil, err
	}
	return date, aggregation.FilterByDate(sales, date), nil
}

func (s *Service) load(ctx context.Context, date string) (string, []models.DerivedSale, error) {
	if date == "" {
		date = s.now().In(s.location).Format(models.DateLayout)
	}

	rows, err := s.ledger.ListAll(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load sales: %w", err)
	}
	return date, aggregation.Decorate(rows), nil
}

// FormatSummary renders report as a plain text message.
func FormatSummary(report models.DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sales report %s\n", report.Date)
	if report.SalesCount == 0 {
		b.WriteString("No sales recorded.\n")
	} else {
		fmt.Fprintf(&b, "Sales recorded: %d\n", report.SalesCount)
		writeTotals(&b, "Today", report.Daily)
	}
	writeTotals(&b, "All time", report.Cumulative)

	return strings.TrimRight(b.String(), "\n")
}

func writeTotals(b *strings.Builder, label string, t models.Totals) {
	fmt.Fprintf(b, "%s: sales %s, capital %s, profit %s\n",
		label,
		models.FormatAmount(t.TotalSales),
		models.FormatAmount(t.TotalCapital),
		models.FormatAmount(t.TotalProfit))
	fmt.Fprintf(b, "  cash %s, online %s\n",
		models.FormatAmount(t.TotalCash),
		models.FormatAmount(t.TotalOnline))
}

// FormatSales renders one line per sale of date.
func FormatSales(date string, sales []models.DerivedSale) string {
	if len(sales) == 0 {
		return fmt.Sprintf("No sales recorded on %s.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sales on %s\n", date)
	for _, sale := range sales {
		fmt.Fprintf(&b, "- %s x%v: %s (profit %s)\n",
			sale.ItemName,
			sale.Quantity,
			models.FormatAmount(sale.TotalSales),
			models.FormatAmount(sale.Profit))
	}
	return strings.TrimRight(b.String(), "\n")
}
