package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
)

// bindArgs decodes the tool arguments into dst.
func bindArgs(request mcp.CallToolRequest, dst any) error {
	argsJSON, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(argsJSON, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// deviceSet resolves a comma separated id list into rows.
func (s *Server) deviceSet(ctx context.Context, raw string) ([]types.DeviceRow, error) {
	ids, err := catalog.ParseIDs(raw)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New("no product ids given")
	}

	rows, missing, err := catalog.Rows(ctx, s.catalog, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown product ids: %v", missing)
	}
	return rows, nil
}

type productIDsArgs struct {
	ProductIDs string `json:"product_ids"`
}

func (s *Server) rowsFromRequest(ctx context.Context, request mcp.CallToolRequest) ([]types.DeviceRow, *mcp.CallToolResult) {
	var args productIDsArgs
	if err := bindArgs(request, &args); err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	rows, err := s.deviceSet(ctx, args.ProductIDs)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return rows, nil
}

func (s *Server) handlePowerBudget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, failed := s.rowsFromRequest(ctx, request)
	if failed != nil {
		return failed, nil
	}
	a := power.Analyze(rows)
	b := a.Budget

	var sb strings.Builder
	sb.WriteString("# Power Budget\n\n")
	fmt.Fprintf(&sb, "**Status:** %s\n", b.Status)
	fmt.Fprintf(&sb, "**Total draw:** %s\n", power.FormatMA(b.TotalDraw))
	fmt.Fprintf(&sb, "**Capacity:** %s\n", power.FormatMA(b.TotalCapacity))
	if b.Status != power.StatusNoSupply {
		fmt.Fprintf(&sb, "**Headroom:** %s (%d%%)\n", power.FormatMA(b.Headroom), b.HeadroomPct)
	}
	sb.WriteString("\n")

	if len(a.Insight) > 0 {
		for _, line := range a.Insight {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
		sb.WriteString("\n")
	}

	writeIssues(&sb, "Errors", a.Report.Errors)
	writeIssues(&sb, "Warnings", a.Report.Warnings)
	return mcp.NewToolResultText(sb.String()), nil
}

func writeIssues(sb *strings.Builder, title string, issues []power.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, is := range issues {
		fmt.Fprintf(sb, "- **%s** %s", is.Code, is.Message)
		if is.Hint != "" {
			fmt.Fprintf(sb, " _(%s)_", is.Hint)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func drawText(ma *int) string {
	if ma == nil {
		return "unknown"
	}
	return power.FormatMA(*ma)
}

func (s *Server) handleAssignPorts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, failed := s.rowsFromRequest(ctx, request)
	if failed != nil {
		return failed, nil
	}
	data := power.ExtractPowerData(rows)
	result := power.AssignPedalsToOutputs(data.Consumers, data.Supplies)

	var sb strings.Builder
	sb.WriteString("# Port Assignments\n\n")
	if len(result.Assignments) > 0 {
		sb.WriteString("| Device | Draw | Supply | Port | Notes |\n")
		sb.WriteString("|--------|------|--------|------|-------|\n")
		for _, pa := range result.Assignments {
			notes := "-"
			if len(pa.Notes) > 0 {
				notes = strings.Join(pa.Notes, "; ")
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
				pa.Consumer.DisplayName(), drawText(pa.Consumer.CurrentMA), pa.Jack.SupplyName, pa.Jack.PortIndex, notes)
		}
		sb.WriteString("\n")
	}

	if len(result.Unassigned) > 0 {
		sb.WriteString("## Unassigned\n\n")
		for _, c := range result.Unassigned {
			fmt.Fprintf(&sb, "- %s (%s)\n", c.DisplayName(), drawText(c.CurrentMA))
		}
	}
	if len(result.Assignments) == 0 && len(result.Unassigned) == 0 {
		sb.WriteString("No powered devices in this set.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleDaisyChains(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, failed := s.rowsFromRequest(ctx, request)
	if failed != nil {
		return failed, nil
	}
	data := power.ExtractPowerData(rows)
	groups := power.ComputeDaisyChainGroups(data.Consumers, data.AllOutputJacks)

	if len(groups) == 0 {
		return mcp.NewToolResultText("No daisy chain groups: no two devices share a compatible output."), nil
	}

	var sb strings.Builder
	sb.WriteString("# Daisy Chain Groups\n\n")
	for i, g := range groups {
		fmt.Fprintf(&sb, "## Group %d: %s, %s, %s\n\n", i+1, g.Voltage, g.Polarity, g.ConnectorType)
		fmt.Fprintf(&sb, "Combined draw %s on an output rated %s.\n\n",
			power.FormatMA(g.CombinedMA), power.FormatMA(g.MaxOutputMA))
		for _, c := range g.Consumers {
			fmt.Fprintf(&sb, "- %s (%s)\n", c.DisplayName(), drawText(c.CurrentMA))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleValidateConnection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SupplyID     int  `json:"supply_id"`
		OutputJackID int  `json:"output_jack_id"`
		PedalID      int  `json:"pedal_id"`
		CumulativeMA *int `json:"cumulative_ma,omitempty"`
	}
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	supply, err := s.catalog.Get(ctx, args.SupplyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("supply %d: %v", args.SupplyID, err)), nil
	}
	output, ok := supply.Row("").FindJack(args.OutputJackID)
	if !ok || !output.IsPowerOutput() {
		return mcp.NewToolResultError(fmt.Sprintf("%s has no power output jack %d", supply.DisplayName(), args.OutputJackID)), nil
	}

	pedal, err := s.catalog.Get(ctx, args.PedalID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device %d: %v", args.PedalID, err)), nil
	}
	input, ok := power.PowerInputJack(pedal.Jacks)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s has no power input", pedal.DisplayName())), nil
	}

	check := power.ValidateConnection(output, input, args.CumulativeMA)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s → %s\n\n", supply.DisplayName(), pedal.DisplayName())
	fmt.Fprintf(&sb, "**Result:** %s\n", check.Status)
	for _, w := range check.Warnings {
		fmt.Fprintf(&sb, "- %s\n", w)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleFindSupplies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		PedalIDs string `json:"pedal_ids"`
	}
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pedals, err := s.deviceSet(ctx, args.PedalIDs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	supplies, err := s.catalog.List(ctx, catalog.Filter{ProductType: types.ProductTypePowerSupply})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list supplies: %v", err)), nil
	}

	required := power.RequiredDraw(pedals)
	matches := power.MatchSupplies(required, supplies)
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No catalog supply provides %s.", power.FormatMA(required))), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Supplies for %s\n\n", power.FormatMA(required))
	sb.WriteString("| ID | Supply | Capacity | Headroom | MSRP |\n")
	sb.WriteString("|----|--------|----------|----------|------|\n")
	for _, m := range matches {
		msrp := "-"
		if m.MSRPDisplay != nil {
			msrp = *m.MSRPDisplay
		}
		fmt.Fprintf(&sb, "| %d | %s %s | %s | %s | %s |\n",
			m.ID, m.Manufacturer, m.Model, power.FormatMA(m.TotalCapacityMA), power.FormatMA(m.HeadroomMA), msrp)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSupplyLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, failed := s.rowsFromRequest(ctx, request)
	if failed != nil {
		return failed, nil
	}
	return mcp.NewToolResultText(power.SupplyLinkFor(power.ExtractPowerData(rows))), nil
}

func (s *Server) handleGetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProductID int `json:"product_id"`
	}
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := s.catalog.Get(ctx, args.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("product %d not found", args.ProductID)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.DisplayName())
	fmt.Fprintf(&sb, "**ID:** %d\n", p.ID)
	fmt.Fprintf(&sb, "**Type:** %s\n", p.ProductType)
	if msrp := power.FormatMSRP(p.MSRPCents); msrp != nil {
		fmt.Fprintf(&sb, "**MSRP:** %s\n", *msrp)
	}
	sb.WriteString("\n")

	var jacks []types.Jack
	for _, j := range p.Jacks {
		if j.Category == types.JackCategoryPower {
			jacks = append(jacks, j)
		}
	}
	if len(jacks) == 0 {
		sb.WriteString("No power jacks.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	sb.WriteString("| Jack | Direction | Voltage | Current | Polarity | Connector |\n")
	sb.WriteString("|------|-----------|---------|---------|----------|-----------|\n")
	for _, j := range jacks {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
			j.ID, j.Direction, orDash(j.Voltage), drawText(j.CurrentMA), orDash(j.Polarity), orDash(j.ConnectorType))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
