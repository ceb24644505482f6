package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/kit"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

// Shared request/response types used by both HTTP and MCP transports.

const maxBatch = 100

type addressReq struct {
	Address string
}

type postcodeReq struct {
	Code    string
	Country string
}

type hierarchyReq struct {
	Address string
	Parses  []postal.LabelMap
}

type batchReq struct {
	Addresses []string
}

type parseResponse struct {
	Address         string                 `json:"address"`
	Parses          []postal.LabelMap      `json:"parses"`
	Canonical       []postal.CanonicalView `json:"canonical"`
	NoNormalization postal.LabelMap        `json:"nonormalization"`
	Fallback        bool                   `json:"fallback"`
}

type expandResponse struct {
	Address    string   `json:"address"`
	Expansions []string `json:"expansions"`
}

type postcodeResponse struct {
	Input      string `json:"input"`
	Country    string `json:"country,omitempty"`
	Normalized string `json:"normalized"`
}

type hierarchyResponse struct {
	Paths    postal.Hierarchy `json:"paths"`
	Postcode string           `json:"postcode"`
}

type batchResponse struct {
	Results []parseResponse `json:"results"`
}

type reloadResponse struct {
	Status string `json:"status"`
	Loaded bool   `json:"loaded"`
}

// errBadRequest marks caller errors on top of postal.ErrParse.
var errBadRequest = errors.New("bad request")

func parseEndpoint(p *postal.Postal) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*addressReq)
		return parseOne(p, req.Address)
	}
}

func parseOne(p *postal.Postal, address string) (*parseResponse, error) {
	out, err := p.ParseDetailed(address)
	if err != nil {
		return nil, err
	}
	views := make([]postal.CanonicalView, len(out.Parsed))
	for i, m := range out.Parsed {
		views[i] = postal.NewCanonicalView(m)
	}
	return &parseResponse{
		Address:         address,
		Parses:          out.Parsed,
		Canonical:       views,
		NoNormalization: out.NoNormalization,
		Fallback:        out.Primitive,
	}, nil
}

func expandEndpoint(p *postal.Postal) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*addressReq)
		if req.Address == "" {
			return nil, fmt.Errorf("%w: missing address", errBadRequest)
		}
		forms, err := p.Expand(req.Address)
		if err != nil {
			return nil, err
		}
		return &expandResponse{Address: req.Address, Expansions: forms}, nil
	}
}

func postcodeEndpoint(p *postal.Postal) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*postcodeReq)
		resp := &postcodeResponse{Input: req.Code, Country: strings.ToUpper(req.Country)}
		if req.Country != "" {
			resp.Normalized = postal.NormalizePostalCodeFor(req.Country, req.Code)
		} else {
			resp.Normalized = p.NormalizePostalCode(req.Code)
		}
		return resp, nil
	}
}

func hierarchyEndpoint(p *postal.Postal) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*hierarchyReq)
		parses := req.Parses
		if len(parses) == 0 {
			if req.Address == "" {
				return nil, fmt.Errorf("%w: address or parses required", errBadRequest)
			}
			var err error
			if parses, _, err = p.Parse(req.Address); err != nil {
				return nil, err
			}
		}
		paths, code := postal.ResultToHierarchy(parses)
		if paths == nil {
			paths = postal.Hierarchy{}
		}
		if code != "" {
			code = p.NormalizePostalCode(code)
		}
		return &hierarchyResponse{Paths: paths, Postcode: code}, nil
	}
}

func batchParseEndpoint(p *postal.Postal) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*batchReq)
		if len(req.Addresses) == 0 {
			return nil, fmt.Errorf("%w: addresses array is empty", errBadRequest)
		}
		if len(req.Addresses) > maxBatch {
			return nil, fmt.Errorf("%w: too many addresses (max %d, got %d)", errBadRequest, maxBatch, len(req.Addresses))
		}
		results := make([]parseResponse, len(req.Addresses))
		for i, a := range req.Addresses {
			r, err := parseOne(p, a)
			if err != nil {
				return nil, fmt.Errorf("address %d: %w", i, err)
			}
			results[i] = *r
		}
		return &batchResponse{Results: results}, nil
	}
}

func reloadEndpoint(p *postal.Postal) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		if err := p.Reload(); err != nil {
			return nil, err
		}
		return &reloadResponse{Status: "reloaded", Loaded: p.Loaded()}, nil
	}
}

// wrap adds request IDs and logging to an endpoint.
func wrap(ep kit.Endpoint, name string, logger *slog.Logger) kit.Endpoint {
	return kit.Chain(kit.RequestID(), kit.Logging(logger, name))(ep)
}
