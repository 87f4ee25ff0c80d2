package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// openLedger opens the local database for read-only reports. No events are
// published from the CLI.
func openLedger(cfg *config.Config) (*service.LedgerService, func(), error) {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	svc := service.NewLedgerService(store, events.NopPublisher{}, metrics.New(), newLogger(cfg))
	return svc, func() { store.Close() }, nil
}

func newBalancesCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "balances <group-id>",
		Short: "Show each member's net balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			svc, closeFn, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			balances, err := svc.GetBalances(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(balances) == 0 {
				fmt.Fprintln(out, "All settled up")
			}
			for _, b := range balances {
				fmt.Fprintf(out, "%-20s %12s\n", b.Name, b.Amount.StringFixed(2))
			}
			return nil
		},
	}
}

func newDebtsCommand(g *globals) *cobra.Command {
	var simplified bool

	cmd := &cobra.Command{
		Use:   "debts <group-id>",
		Short: "Show who owes whom",
		Long: "Without flags, debts are attributed to the expenses they come from.\n" +
			"With --simplified, the minimal set of transfers is shown instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			svc, closeFn, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			if simplified {
				debts, err := svc.GetSimplifiedDebts(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(debts) == 0 {
					fmt.Fprintln(out, "All settled up")
				}
				for _, d := range debts {
					fmt.Fprintf(out, "%s owes %s %s\n", d.FromName, d.ToName, d.Amount.StringFixed(2))
				}
				return nil
			}

			debts, err := svc.GetDebtsWithDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(debts) == 0 {
				fmt.Fprintln(out, "All settled up")
			}
			for _, d := range debts {
				fmt.Fprintf(out, "%s owes %s %s\n", d.FromName, d.ToName, d.Amount.StringFixed(2))
				for _, e := range d.Expenses {
					fmt.Fprintf(out, "  %s  %-24s %10s  (%s owes %s)\n",
						e.Date.Format(models.DateLayout), e.Description,
						e.Amount.StringFixed(2), e.FromName, e.ToName)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&simplified, "simplified", false, "show the minimal transfer list")

	return cmd
}

func newHistoryCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "history <expense-id>",
		Short: "Show the change history of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			svc, closeFn, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			changes, err := svc.ExpenseHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), changes)
			return nil
		},
	}
}

func printHistory(out io.Writer, changes []models.ExpenseChange) {
	if len(changes) == 0 {
		fmt.Fprintln(out, "No changes")
		return
	}
	for _, c := range changes {
		when := time.Unix(c.ChangedAt, 0).UTC().Format(time.DateTime)
		who := c.ChangedByName
		if who == "" {
			who = c.ChangedBy
		}
		switch ch := c.Change.(type) {
		case models.FieldChange:
			fmt.Fprintf(out, "%s  %s changed %s: %q -> %q\n", when, who, ch.Field, ch.OldValue, ch.NewValue)
		case models.PaymentEvent:
			fmt.Fprintf(out, "%s  %s\n", when, ch.Description)
		}
	}
}
