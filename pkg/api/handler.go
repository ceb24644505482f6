package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/touchstone-postal/pkg/kit"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

// NewRouter returns an http.Handler with all postal API routes.
func NewRouter(p *postal.Postal, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{
		parse:     wrap(parseEndpoint(p), "parse", logger),
		expand:    wrap(expandEndpoint(p), "expand", logger),
		postcode:  wrap(postcodeEndpoint(p), "postcode", logger),
		hierarchy: wrap(hierarchyEndpoint(p), "hierarchy", logger),
		batch:     wrap(batchParseEndpoint(p), "parse_batch", logger),
		reload:    wrap(reloadEndpoint(p), "reload", logger),
		p:         p,
	}

	mux.HandleFunc("GET /v1/parse/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/parse/batch", h.handleParseBatch)
	mux.HandleFunc("GET /v1/parse", h.handleParse)
	mux.HandleFunc("GET /v1/expand", h.handleExpand)
	mux.HandleFunc("GET /v1/postcode", h.handlePostcode)
	mux.HandleFunc("POST /v1/hierarchy", h.handleHierarchy)
	mux.HandleFunc("POST /v1/engine/reload", h.handleReload)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(kit.HTTPRequestID(mux))
}

type handler struct {
	parse     kit.Endpoint
	expand    kit.Endpoint
	postcode  kit.Endpoint
	hierarchy kit.Endpoint
	batch     kit.Endpoint
	reload    kit.Endpoint
	p         *postal.Postal
}

// --- parse single address ---

func (h *handler) handleParse(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing address")
		return
	}
	resp, err := h.parse(r.Context(), &addressReq{Address: address})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- expand ---

func (h *handler) handleExpand(w http.ResponseWriter, r *http.Request) {
	resp, err := h.expand(r.Context(), &addressReq{Address: r.URL.Query().Get("address")})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- postcode ---

func (h *handler) handlePostcode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.postcode(r.Context(), &postcodeReq{Code: q.Get("code"), Country: q.Get("country")})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- hierarchy ---

type httpHierarchyRequest struct {
	Address string            `json:"address,omitempty"`
	Parses  []postal.LabelMap `json:"parses,omitempty"`
}

func (h *handler) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpHierarchyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.hierarchy(r.Context(), &hierarchyReq{Address: req.Address, Parses: req.Parses})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- parse batch ---

type httpBatchRequest struct {
	Addresses []string `json:"addresses"`
}

func (h *handler) handleParseBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256*1024) // 256 KiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.batch(r.Context(), &batchReq{Addresses: req.Addresses})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- engine reload ---

func (h *handler) handleReload(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reload(r.Context(), nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status          string   `json:"status"`
	EngineLoaded    bool     `json:"engine_loaded"`
	EngineEnabled   bool     `json:"engine_enabled"`
	FallbackEnabled bool     `json:"fallback_enabled"`
	ReloadPerCall   bool     `json:"reload_per_call"`
	Languages       []string `json:"languages"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := h.p.Config()
	status := "ok"
	if !h.p.Loaded() && !cfg.FallbackEnabled {
		status = "degraded"
	}
	langs := cfg.Languages
	if langs == nil {
		langs = []string{}
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          status,
		EngineLoaded:    h.p.Loaded(),
		EngineEnabled:   cfg.EngineEnabled,
		FallbackEnabled: cfg.FallbackEnabled,
		ReloadPerCall:   cfg.ReloadPerCall,
		Languages:       langs,
	})
}

// --- helpers ---

// statusFor maps endpoint errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, postal.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, postal.ErrLoad), errors.Is(err, postal.ErrEngineDisabled), errors.Is(err, postal.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+kit.RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", kit.RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
