package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/steelhub/parts-matcher/internal/core/domain"
	"github.com/steelhub/parts-matcher/internal/core/ports"
	"github.com/steelhub/parts-matcher/internal/infrastructure/orders/excel"
)

// Router exposes the matching engine: synchronous batch matching, order
// uploads that enqueue async match jobs, and result retrieval.
type Router struct {
	matcher ports.PartsMatcher
	orders  ports.OrderRepository
	results ports.MatchResultRepository
	queue   ports.MessageQueue
	metrics http.Handler

	metricsMiddleware func(http.Handler) http.Handler
}

func NewRouter(
	matcher ports.PartsMatcher,
	orders ports.OrderRepository,
	results ports.MatchResultRepository,
	queue ports.MessageQueue,
	metricsHandler http.Handler,
	metricsMiddleware func(http.Handler) http.Handler,
) *Router {
	return &Router{
		matcher:           matcher,
		orders:            orders,
		results:           results,
		queue:             queue,
		metrics:           metricsHandler,
		metricsMiddleware: metricsMiddleware,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/match", rt.matchBatch)
	mux.HandleFunc("/v1/orders", rt.uploadOrder)
	mux.HandleFunc("/v1/orders/", rt.orderSubresource)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics)
	}

	var handler http.Handler = mux
	if rt.metricsMiddleware != nil {
		handler = rt.metricsMiddleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type matchRequest struct {
	LineItems []domain.LineItem `json:"line_items"`
}

func (rt *Router) matchBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.LineItems) == 0 {
		writeError(w, http.StatusBadRequest, "line_items is required")
		return
	}
	for i := range req.LineItems {
		if req.LineItems[i].ID == "" {
			req.LineItems[i].ID = uuid.NewString()
		}
	}

	result, err := rt.matcher.FindMatches(r.Context(), req.LineItems)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) uploadOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	items, err := excel.ReadLineItems(file)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		Customer:  r.FormValue("customer"),
		Source:    "upload",
		Status:    domain.OrderStatusPending,
		LineItems: items,
	}
	if err := rt.orders.CreateOrder(r.Context(), order); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if err := rt.queue.PublishMatchRequested(r.Context(), order.ID); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"order_id":   order.ID,
		"line_items": len(items),
	})
}

func (rt *Router) orderSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "order id is required")
		return
	}

	if id, found := strings.CutSuffix(rest, "/matches"); found {
		result, err := rt.results.GetBatchResult(r.Context(), strings.TrimSuffix(id, "/"))
		if err != nil {
			writeError(w, mapErrorToHTTPStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	order, err := rt.orders.GetOrder(r.Context(), rest)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
