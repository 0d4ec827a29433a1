package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"

	"github.com/hazyhaar/himnario/pkg/catalog"
	"github.com/hazyhaar/himnario/pkg/hymn"
	"github.com/hazyhaar/himnario/pkg/kit"
	"github.com/hazyhaar/himnario/pkg/source"
)

// NewRouter returns an http.Handler with all hymn API routes. checker may
// be nil when no periodic check runs.
func NewRouter(eps Endpoints, checker *source.Checker, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps, checker: checker}

	mux.HandleFunc("GET /v1/hymns", h.handleSearch)
	mux.HandleFunc("GET /v1/hymns/{id}", h.handleGetHymn)
	mux.HandleFunc("GET /v1/suggest", h.handleSuggest)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	var root http.Handler = mux
	root = kit.AccessLog(logger)(root)
	root = kit.RequestID(root)
	root = handlers.CompressHandler(root)
	root = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", kit.RequestIDHeader}),
	)(root)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(root)
}

type handler struct {
	eps     Endpoints
	checker *source.Checker
}

// --- list / search ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.eps.Search(r.Context(), &searchReq{
		Query: q.Get("q"),
		Rank:  q.Get("rank") == "score",
		Limit: limit,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- single hymn ---

func (h *handler) handleGetHymn(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Get(r.Context(), &getHymnReq{ID: r.PathValue("id")})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- suggestions ---

func (h *handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.eps.Suggest(r.Context(), &suggestReq{Query: q.Get("q"), Limit: limit})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status    string         `json:"status"`
	Source    string         `json:"source,omitempty"`
	LastCheck *source.Status `json:"last_check,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.checker != nil {
		resp.Source = h.checker.Name()
		resp.LastCheck = h.checker.Last()
		if resp.LastCheck != nil && !resp.LastCheck.OK {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		notFound *hymn.NotFoundError
		expired  *hymn.SessionExpiredError
		invalid  *hymn.ValidationError
		upstream *hymn.DataSourceError
	)
	switch {
	case errors.Is(err, catalog.ErrInvalidID):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &expired):
		return http.StatusUnauthorized
	case errors.As(err, &invalid), errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// recoveryLogger routes recovered panics to slog.
type recoveryLogger struct{ logger *slog.Logger }

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("panic recovered", "panic", fmt.Sprint(v...))
}
