package api

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/touchstone-postal/pkg/kit"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the postal MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, p *postal.Postal, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	kit.RegisterMCPTool(srv, mcp.NewTool("parse_address",
		mcp.WithDescription("Parse a free-form postal address into labelled components (house_number, road, city, postcode...). Returns every plausible parse, their canonical views and the parse of the raw input."),
		mcp.WithString("address", mcp.Required(), mcp.Description("The address to parse")),
	), wrap(parseEndpoint(p), "parse", logger), decodeAddress)

	kit.RegisterMCPTool(srv, mcp.NewTool("expand_address",
		mcp.WithDescription("Expand abbreviations and normalize an address into its likely surface forms (\"St\" -> street, saint)."),
		mcp.WithString("address", mcp.Required(), mcp.Description("The address to expand")),
	), wrap(expandEndpoint(p), "expand", logger), decodeAddress)

	kit.RegisterMCPTool(srv, mcp.NewTool("normalize_postcode",
		mcp.WithDescription("Canonicalize a postal code: uppercase, punctuation to spaces, collapsed spacing; country-specific layout when a country is given."),
		mcp.WithString("code", mcp.Required(), mcp.Description("The raw postal code")),
		mcp.WithString("country", mcp.Description("ISO 3166-1 alpha-2 country code (e.g. GB, NL)")),
	), wrap(postcodeEndpoint(p), "postcode", logger), func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		code, _ := args["code"].(string)
		country, _ := args["country"].(string)
		return &postcodeReq{Code: code, Country: country}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("address_hierarchy",
		mcp.WithDescription("Build general-to-specific hierarchy paths (country ... house) from an address, or from parses given as a JSON array of label maps."),
		mcp.WithString("address", mcp.Description("The address to parse and arrange")),
		mcp.WithString("parses", mcp.Description("JSON array of label maps, e.g. [{\"city\":[\"Paris\"]}]")),
	), wrap(hierarchyEndpoint(p), "hierarchy", logger), func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		r := &hierarchyReq{}
		r.Address, _ = args["address"].(string)
		if raw, _ := args["parses"].(string); raw != "" {
			if err := json.Unmarshal([]byte(raw), &r.Parses); err != nil {
				return nil, fmt.Errorf("parses: %w", err)
			}
		}
		return r, nil
	})
}

func decodeAddress(req mcp.CallToolRequest) (any, error) {
	address, _ := req.GetArguments()["address"].(string)
	if address == "" {
		return nil, fmt.Errorf("missing address")
	}
	return &addressReq{Address: address}, nil
}
