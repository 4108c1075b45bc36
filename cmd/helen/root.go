package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angas/helen-go/config"
	"github.com/angas/helen-go/helen"
	"github.com/angas/helen-go/hours"
	"github.com/angas/helen-go/logging"
	"github.com/angas/helen-go/types"
	"github.com/spf13/cobra"
)

// calculator is the part of *helen.Client the commands use.
type calculator interface {
	types.ReportSource
	Login(ctx context.Context, username, password string) error
	Close()
	LatestActiveDeliverySiteID(ctx context.Context) (int, error)
	Contracts(ctx context.Context) ([]helen.Contract, error)
	TotalConsumption(ctx context.Context, start, end time.Time, siteID int) (float64, error)
	TotalCostBySpotPrices(ctx context.Context, start, end time.Time, siteID int) (float64, error)
	ImpactOfUsage(ctx context.Context, start, end time.Time, siteID int) (float64, error)
	TransferFees(ctx context.Context, start, end time.Time, siteID int) (float64, error)
}

var newClient = func(cnfg *config.AppConfig) calculator {
	return helen.NewClient(cnfg.Helen.ClientConfig())
}

var (
	cfgPath string
	siteID  int
	start   string
	end     string
	now     = time.Now
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "helen",
		Short:         "Oma Helen electricity figures from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file")
	root.PersistentFlags().IntVarP(&siteID, "site", "s", 0, "delivery site id, 0 for the latest active contract")
	root.PersistentFlags().StringVar(&start, "start", "", "first day (YYYY-MM-DD), default first day of this month")
	root.PersistentFlags().StringVar(&end, "end", "", "last day (YYYY-MM-DD), default today")

	root.AddCommand(
		figureCmd("consumption", "Total consumption in kWh", "%.3f kWh\n", calculator.TotalConsumption),
		figureCmd("spot-cost", "Spot price cost in euros, margin and tax included", "%.2f EUR\n", calculator.TotalCostBySpotPrices),
		figureCmd("impact", "Impact of usage timing on the average price in c/kWh", "%+.3f c/kWh\n", calculator.ImpactOfUsage),
		figureCmd("transfer-fees", "Electricity transfer fees in euros", "%.2f EUR\n", calculator.TransferFees),
		contractCmd(),
		reportCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

// dateRange reads --start and --end, defaulting to month to date.
func dateRange() (time.Time, time.Time, error) {
	first, today := hours.MonthToDate(now())
	s, err := parseDate(start, first)
	if err != nil {
		return s, s, fmt.Errorf("invalid --start: %w", err)
	}
	e, err := parseDate(end, today)
	if err != nil {
		return s, e, fmt.Errorf("invalid --end: %w", err)
	}
	if e.Before(s) {
		return s, e, fmt.Errorf("--end %s is before --start %s", e.Format(time.DateOnly), s.Format(time.DateOnly))
	}
	return s, e, nil
}

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse(time.DateOnly, value)
}

// withClient loads the configuration, logs in and runs fn.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c calculator) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cnfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(logging.NewConsoleHandler(cmd.ErrOrStderr(), cnfg.Logging.GetConsoleLevel())))

	c := newClient(cnfg)
	defer c.Close()

	if err := c.Login(ctx, cnfg.Helen.Username, cnfg.Helen.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return fn(ctx, c)
}

func figureCmd(
	use, short, format string,
	figure func(c calculator, ctx context.Context, start, end time.Time, siteID int) (float64, error)) *cobra.Command {

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := dateRange()
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c calculator) error {
				v, err := figure(c, ctx, s, e, siteID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), format, v)
				return err
			})
		},
	}
}
