package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/angas/helen-go/helen"
	"github.com/spf13/cobra"
)

func contractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contract",
		Short: "List the contracts with their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c calculator) error {
				contracts, err := c.Contracts(ctx)
				if err != nil {
					return err
				}
				// no active contract is not an error here
				latest, _ := c.LatestActiveDeliverySiteID(ctx)
				return printContracts(cmd, contracts, latest, now())
			})
		},
	}
}

func printContracts(cmd *cobra.Command, contracts []helen.Contract, latest int, at time.Time) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SITE\tDOMAIN\tSTART\tEND\tACTIVE\tPRODUCT\tCOMPONENT\tPRICE")
	for _, contract := range contracts {
		site := fmt.Sprint(contract.DeliverySite.ID)
		if contract.DeliverySite.ID == latest {
			site += "*"
		}
		endDate := "-"
		if contract.EndDate != nil {
			endDate = dateOf(*contract.EndDate)
		}
		active := "no"
		if contract.Active(at) {
			active = "yes"
		}

		prefix := strings.Join([]string{site, contract.Domain, dateOf(contract.StartDate), endDate, active}, "\t")
		rows := 0
		for _, p := range contract.Products {
			for _, comp := range p.Components {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.4g\n", prefix, p.ProductType, comp.Name, comp.Price)
				rows++
			}
		}
		if rows == 0 {
			fmt.Fprintf(w, "%s\t\t\t\n", prefix)
		}
	}
	return w.Flush()
}

func dateOf(contractDate string) string {
	date, _, _ := strings.Cut(contractDate, "T")
	return date
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "All cost figures as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := dateRange()
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c calculator) error {
				r, err := c.Report(ctx, s, e, siteID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			})
		},
	}
}
