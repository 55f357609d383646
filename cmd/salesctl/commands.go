package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/aggregation"
	"github.com/mamadbah2/salestracker/internal/service/tracker"
)

var version = "1.0.0"

// app holds what every subcommand needs. The ledger is opened on first use
// so --help works without configuration.
type app struct {
	openLedger  func(ctx context.Context) (tracker.Ledger, error)
	settleDelay time.Duration
	location    *time.Location
	logger      *zap.Logger
	tracker     *tracker.Service
}

func (a *app) service(ctx context.Context) (*tracker.Service, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}
	ledger, err := a.openLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	a.tracker = tracker.NewService(ledger, a.settleDelay, a.location, a.logger.Named("svc.tracker"))
	return a.tracker, nil
}

func (a *app) load(ctx context.Context) (*tracker.Service, tracker.State, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return nil, tracker.State{}, err
	}
	st, err := svc.Refresh(ctx)
	if err != nil {
		return nil, tracker.State{}, err
	}
	return svc, st, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "salesctl",
		Short: "Record and inspect sales in the sales ledger",
		Long: `salesctl reads and writes the same sales ledger as the web tracker.

The ledger backend is chosen with LEDGER_BACKEND (script, sheets or memory)
and configured from the environment or a .env file.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(newListCmd(a), newAddCmd(a), newDeleteCmd(a), newTotalsCmd(a))
	return root
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sales",
		Example: `  salesctl list
  salesctl list --date 2024-01-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")

			_, st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			sales := st.Sales
			if date != "" {
				sales = aggregation.FilterByDate(sales, date)
			}
			printSales(cmd.OutOrStdout(), sales)
			return nil
		},
	}
	cmd.Flags().String("date", "", "Only list sales of this day (YYYY-MM-DD)")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new sale",
		Example: `  salesctl add --item "Leather bag" --cash 10 --capital 4 --qty 3
  salesctl add --item Hat --online 25 --capital 10 --date 2024-01-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			item, _ := flags.GetString("item")
			cash, _ := flags.GetString("cash")
			online, _ := flags.GetString("online")
			capital, _ := flags.GetString("capital")
			qty, _ := flags.GetString("qty")
			date, _ := flags.GetString("date")

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			p, err := svc.AddSale(cmd.Context(), models.SaleForm{
				Date:        models.Cell(date),
				ItemName:    models.Cell(item),
				CashPrice:   models.Cell(cash),
				OnlinePrice: models.Cell(online),
				Capital:     models.Cell(capital),
				Quantity:    models.Cell(qty),
			})
			if err != nil {
				return err
			}

			st, err := svc.Settle(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", st.Message, p.ID)
			return nil
		},
	}

	cmd.Flags().String("item", "", "Item name")
	cmd.Flags().String("cash", "", "Cash price per unit")
	cmd.Flags().String("online", "", "Online price per unit")
	cmd.Flags().String("capital", "", "Capital (cost) per unit")
	cmd.Flags().String("qty", "1", "Quantity sold")
	cmd.Flags().String("date", "", "Sale date (YYYY-MM-DD, default: today)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a sale by id",
		Example: `  salesctl delete 1704067200000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %q", tracker.ErrInvalidID, args[0])
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			p, err := svc.DeleteSale(cmd.Context(), id)
			if err != nil {
				return err
			}

			st, err := svc.Settle(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Message)
			return nil
		},
	}
}

func newTotalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show overall totals and the totals of one day",
		Example: `  salesctl totals
  salesctl totals --date 2024-01-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")

			svc, st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if date != "" {
				st = svc.SelectDate(date)
			}

			out := cmd.OutOrStdout()
			printTotals(out, "Total", st.Totals())
			printTotals(out, "Today ("+st.SelectedDate+")", st.DailyTotals())
			return nil
		},
	}
	cmd.Flags().String("date", "", "Day for the daily totals (YYYY-MM-DD, default: today)")
	return cmd
}

func printSales(out io.Writer, sales []models.DerivedSale) {
	if len(sales) == 0 {
		fmt.Fprintln(out, "No sales recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tDATE\tITEM\tQTY\tCASH\tONLINE\tCAPITAL\tSALES\tPROFIT\t")
	for _, s := range sales {
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%s\t%s\t%s\t%s\t%s\t\n",
			s.ID, s.Date, s.ItemName, s.Quantity,
			models.FormatAmount(s.CashPrice),
			models.FormatAmount(s.OnlinePrice),
			models.FormatAmount(s.Capital),
			models.FormatAmount(s.TotalSales),
			models.FormatAmount(s.Profit))
	}
	_ = w.Flush()
}

func printTotals(out io.Writer, label string, t models.Totals) {
	fmt.Fprintf(out, "%s\n", label)
	fmt.Fprintf(out, "  Sales:   %s\n", models.FormatAmount(t.TotalSales))
	fmt.Fprintf(out, "  Capital: %s\n", models.FormatAmount(t.TotalCapital))
	fmt.Fprintf(out, "  Profit:  %s\n", models.FormatAmount(t.TotalProfit))
	fmt.Fprintf(out, "  Cash:    %s\n", models.FormatAmount(t.TotalCash))
	fmt.Fprintf(out, "  Online:  %s\n", models.FormatAmount(t.TotalOnline))
}
