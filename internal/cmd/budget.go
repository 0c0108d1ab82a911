package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/spf13/cobra"
)

var budgetJSON bool

// budgetCmd represents the budget command.
var budgetCmd = &cobra.Command{
	Use:   "budget <product-id>...",
	Short: "Print the power budget of a set of catalog products",
	Long: `Analyse the pedals and supplies given by catalog id: total draw against
supply capacity, the port each pedal is assigned to, daisy chain
suggestions and audit findings.

Ids may be separated by spaces or commas. Repeat an id to add several
units of the same product.

Example:
  openpedalcore budget 12 40,40 41
  openpedalcore budget --json 12 40`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := catalog.ParseIDs(strings.Join(args, ","))
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no product ids given")
		}

		idx, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()

		rows, missing, err := catalog.Rows(cmd.Context(), idx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("unknown product ids: %v (run 'openpedalcore index' first?)", missing)
		}

		analysis := power.Analyze(rows)
		if budgetJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		}
		return renderBudget(cmd.OutOrStdout(), analysis)
	},
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.Flags().BoolVar(&budgetJSON, "json", false, "print the full analysis as JSON")
}

func renderBudget(w io.Writer, a power.Analysis) error {
	b := a.Budget
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Status:\t%s\n", b.Status)
	fmt.Fprintf(tw, "Total draw:\t%s\n", power.FormatMA(b.TotalDraw))
	fmt.Fprintf(tw, "Capacity:\t%s\n", power.FormatMA(b.TotalCapacity))
	if b.Status != power.StatusNoSupply {
		fmt.Fprintf(tw, "Headroom:\t%s (%d%%)\n", power.FormatMA(b.Headroom), b.HeadroomPct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(a.Insight) > 0 {
		fmt.Fprintln(w)
		for _, line := range a.Insight {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if len(a.Assignment.Assignments) > 0 {
		fmt.Fprintln(w, "\nAssignments:")
		for _, pa := range a.Assignment.Assignments {
			fmt.Fprintf(tw, "  %s\t%s\t%s port %d", pa.Consumer.DisplayName(), drawOf(pa.Consumer), pa.Jack.SupplyName, pa.Jack.PortIndex)
			if len(pa.Notes) > 0 {
				fmt.Fprintf(tw, "\t%s", strings.Join(pa.Notes, "; "))
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(a.Assignment.Unassigned) > 0 {
		fmt.Fprintln(w, "\nUnassigned:")
		for _, c := range a.Assignment.Unassigned {
			fmt.Fprintf(w, "  %s (%s)\n", c.DisplayName(), drawOf(c))
		}
	}

	if len(a.DaisyChains) > 0 {
		fmt.Fprintln(w, "\nDaisy chain groups:")
		for i, g := range a.DaisyChains {
			names := make([]string, 0, len(g.Consumers))
			for _, c := range g.Consumers {
				names = append(names, c.DisplayName())
			}
			fmt.Fprintf(w, "  %d. %s, %s: %s (%s of %s)\n", i+1, g.Voltage, g.Polarity,
				strings.Join(names, ", "), power.FormatMA(g.CombinedMA), power.FormatMA(g.MaxOutputMA))
		}
	}

	for _, section := range []struct {
		title  string
		issues []power.Issue
	}{
		{"Errors", a.Report.Errors},
		{"Warnings", a.Report.Warnings},
	} {
		if len(section.issues) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", section.title)
		for _, is := range section.issues {
			fmt.Fprintf(w, "  [%s] %s\n", is.Code, is.Message)
			if is.Hint != "" {
				fmt.Fprintf(w, "         %s\n", is.Hint)
			}
		}
	}

	if a.SupplyLink != "" {
		fmt.Fprintf(w, "\nFind a supply: %s\n", a.SupplyLink)
	}
	return nil
}

func drawOf(c power.PowerConsumer) string {
	if c.CurrentMA == nil {
		return "unknown draw"
	}
	return power.FormatMA(*c.CurrentMA)
}
