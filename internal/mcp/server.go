// Package mcp exposes the power engine to AI assistants over the Model
// Context Protocol.
package mcp

import (
	"context"

	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Catalog is the product lookup the tools read from.
type Catalog interface {
	Get(ctx context.Context, id int) (types.Product, error)
	List(ctx context.Context, f catalog.Filter) ([]types.Product, error)
	GetMany(ctx context.Context, ids []int) ([]types.Product, error)
}

// Server wraps the MCP server with the product catalog.
type Server struct {
	mcp     *server.MCPServer
	catalog Catalog
	logger  *zap.Logger
}

func NewServer(products Catalog, version string, logger *zap.Logger) *Server {
	s := &Server{
		catalog: products,
		logger:  logger,
	}

	s.mcp = server.NewMCPServer(
		"openpedalcore",
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	productIDs := mcp.WithString("product_ids",
		mcp.Description("Comma separated catalog product ids, e.g. '12,40,41'. Repeat an id to add several units."),
		mcp.Required(),
	)

	s.mcp.AddTool(mcp.NewTool("power_budget",
		mcp.WithDescription("Compute the power budget of a set of pedals and power supplies: total draw, capacity, headroom, status and audit findings."),
		productIDs,
	), s.handlePowerBudget)

	s.mcp.AddTool(mcp.NewTool("assign_ports",
		mcp.WithDescription("Assign each pedal to the best compatible power supply output. Lists unassigned pedals and any adapter notes."),
		productIDs,
	), s.handleAssignPorts)

	s.mcp.AddTool(mcp.NewTool("daisy_chains",
		mcp.WithDescription("Suggest groups of pedals that can share one supply output through a daisy chain cable."),
		productIDs,
	), s.handleDaisyChains)

	s.mcp.AddTool(mcp.NewTool("validate_connection",
		mcp.WithDescription("Check whether a supply output can power a pedal's power input: voltage, current, polarity and connector."),
		mcp.WithNumber("supply_id", mcp.Description("Catalog id of the power supply"), mcp.Required()),
		mcp.WithNumber("output_jack_id", mcp.Description("Jack id of the supply output"), mcp.Required()),
		mcp.WithNumber("pedal_id", mcp.Description("Catalog id of the powered device"), mcp.Required()),
		mcp.WithNumber("cumulative_ma", mcp.Description("Total draw on the output when it feeds several devices")),
	), s.handleValidateConnection)

	s.mcp.AddTool(mcp.NewTool("find_supplies",
		mcp.WithDescription("List catalog power supplies rated for the combined draw of the given pedals, tightest fit first."),
		mcp.WithString("pedal_ids",
			mcp.Description("Comma separated catalog ids of the pedals to power"),
			mcp.Required(),
		),
	), s.handleFindSupplies)

	s.mcp.AddTool(mcp.NewTool("supply_link",
		mcp.WithDescription("Build the supply search link prefilled with the draw, output count and voltages of a device set."),
		productIDs,
	), s.handleSupplyLink)

	s.mcp.AddTool(mcp.NewTool("get_product",
		mcp.WithDescription("Show one catalog product with its power jacks."),
		mcp.WithNumber("product_id", mcp.Description("Catalog product id"), mcp.Required()),
	), s.handleGetProduct)
}

// Serve starts the MCP server with stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Starting MCP server with stdio transport")
	return server.ServeStdio(s.mcp)
}
