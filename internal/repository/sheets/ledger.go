package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/domain/models"
)

// Column order of the sales sheet.
const (
	colID = iota
	colDate
	colItemName
	colCashPrice
	colOnlinePrice
	colCapital
	colQuantity
	columnCount
)

// Ledger stores sales directly in a spreadsheet range, one row per sale.
// The first row may be a header whose id cell reads "id".
type Ledger struct {
	repo       Repository
	sheetRange string
	sheetTitle string
	firstRow   int64
	logger     *zap.Logger
}

// NewLedger builds a sales ledger on top of repo. sheetRange is an A1 range
// such as "Sales!A:G".
func NewLedger(repo Repository, sheetRange string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if repo == nil {
		return nil, fmt.Errorf("sheets repository is required")
	}
	if sheetRange == "" {
		return nil, fmt.Errorf("sheet range must not be empty")
	}

	return &Ledger{
		repo:       repo,
		sheetRange: sheetRange,
		sheetTitle: sheetTitle(sheetRange),
		firstRow:   firstRowIndex(sheetRange),
		logger:     logger,
	}, nil
}

// ListAll returns every data row of the range.
func (l *Ledger) ListAll(ctx context.Context) ([]models.RawSale, error) {
	rows, err := l.repo.ReadRange(ctx, l.sheetRange)
	if err != nil {
		return nil, &models.TransportError{Op: "list", Err: err}
	}

	sales := make([]models.RawSale, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) || isHeader(row) {
			continue
		}
		sales = append(sales, models.RawSale{
			ID:          cellAt(row, colID),
			Date:        cellAt(row, colDate),
			ItemName:    cellAt(row, colItemName),
			CashPrice:   cellAt(row, colCashPrice),
			OnlinePrice: cellAt(row, colOnlinePrice),
			Capital:     cellAt(row, colCapital),
			Quantity:    cellAt(row, colQuantity),
		})
	}
	return sales, nil
}

// Append writes record as a new row.
func (l *Ledger) Append(ctx context.Context, record models.SaleRecord) error {
	values := []interface{}{
		record.ID,
		record.Date,
		record.ItemName,
		record.CashPrice,
		record.OnlinePrice,
		record.Capital,
		record.Quantity,
	}
	if err := l.repo.WriteRow(ctx, l.sheetRange, values); err != nil {
		return fmt.Errorf("append sale %d: %w", record.ID, err)
	}
	return nil
}

// Remove deletes the row holding id. A missing id is not an error. Row
// positions are read relative to the start of the range and shifted to
// sheet positions before deleting.
func (l *Ledger) Remove(ctx context.Context, id int64) error {
	rows, err := l.repo.ReadRange(ctx, l.sheetRange)
	if err != nil {
		return fmt.Errorf("locate sale %d: %w", id, err)
	}

	want := fmt.Sprint(id)
	for i, row := range rows {
		if cellAt(row, colID).String() != want {
			continue
		}
		if err := l.repo.DeleteRow(ctx, l.sheetTitle, l.firstRow+int64(i)); err != nil {
			return fmt.Errorf("delete sale %d: %w", id, err)
		}
		return nil
	}

	l.logger.Debug("sale to delete not found", zap.Int64("id", id))
	return nil
}

func cellAt(row []interface{}, idx int) models.Cell {
	if idx >= len(row) {
		return ""
	}
	return models.CellOf(row[idx])
}

func isBlank(row []interface{}) bool {
	for i := 0; i < len(row) && i < columnCount; i++ {
		if !cellAt(row, i).Empty() {
			return false
		}
	}
	return true
}

func isHeader(row []interface{}) bool {
	return strings.EqualFold(cellAt(row, colID).String(), "id")
}

func sheetTitle(sheetRange string) string {
	title := sheetRange
	if idx := strings.LastIndex(sheetRange, "!"); idx >= 0 {
		title = sheetRange[:idx]
	}
	return strings.Trim(title, "'")
}

// firstRowIndex returns the zero-based sheet row where sheetRange starts:
// 1 for "Sales!A2:G", 0 for "Sales!A:G" or a bare sheet title.
func firstRowIndex(sheetRange string) int64 {
	idx := strings.LastIndex(sheetRange, "!")
	if idx < 0 {
		return 0
	}
	start, _, _ := strings.Cut(sheetRange[idx+1:], ":")
	digits := strings.TrimLeftFunc(start, unicode.IsLetter)
	row, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || row < 1 {
		return 0
	}
	return row - 1
}
