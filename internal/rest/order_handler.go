package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"catering-be/internal/idempotency"
	"catering-be/internal/logger"
	"catering-be/internal/order"
	"catering-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	maxBodyBytes = 1 << 20
)

type checkoutResponse struct {
	Message string             `json:"message"`
	Order   *order.PlacedOrder `json:"order"`
}

type OrderHandler struct {
	OrderSvc order.Service
	Idem     idempotency.Store
}

// NewOrderHandler builds the order routes. A nil idem disables
// Idempotency-Key handling.
func NewOrderHandler(svc order.Service, idem idempotency.Store) *OrderHandler {
	return &OrderHandler{OrderSvc: svc, Idem: idem}
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "handler"),
		zap.String("method", "PlaceOrder"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		utils.WriteJSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	var req order.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.WriteJSONError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	key := ""
	if h.Idem != nil {
		key = strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	}
	if key != "" {
		cached, err := h.Idem.Begin(ctx, userID, key)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			utils.WriteJSONError(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			// the database stays the source of truth; proceed without replay
			log.Warn("idempotency store unavailable", zap.Error(err))
			key = ""
		case cached != nil:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(ReplayedHeader, "true")
			w.WriteHeader(cached.StatusCode)
			_, _ = w.Write(cached.Body)
			return
		}
	}

	placed, err := h.OrderSvc.PlaceOrder(ctx, userID, req)
	if err != nil {
		if key != "" {
			if relErr := h.Idem.Release(ctx, userID, key); relErr != nil {
				log.Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		code, msg := checkoutErrorStatus(err)
		utils.WriteJSONError(w, msg, code)
		return
	}

	resp := checkoutResponse{Message: "order placed", Order: placed}

	if key != "" {
		body, err := json.Marshal(resp)
		if err == nil {
			err = h.Idem.Complete(ctx, userID, key, idempotency.Response{
				StatusCode: http.StatusCreated,
				Body:       body,
			})
		}
		if err != nil {
			log.Warn("failed to store idempotent response", zap.Error(err))
		}
	}

	utils.WriteJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := order.ListQuery{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  utils.QueryInt(r, "limit", 0),
		Page:   utils.QueryInt(r, "page", 1),
	}

	orders, err := h.OrderSvc.ListOrders(r.Context(), q)
	if err != nil {
		h.writeError(w, r, "ListOrders", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	o, err := h.OrderSvc.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "GetOrder", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var update order.StatusUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		utils.WriteJSONError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	o, err := h.OrderSvc.UpdateStatus(r.Context(), id, update)
	if err != nil {
		h.writeError(w, r, "UpdateStatus", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) writeError(w http.ResponseWriter, r *http.Request, method string, err error) {
	code, msg := orderErrorStatus(err)
	if code == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("method", method),
			zap.Error(err),
		)
	}
	utils.WriteJSONError(w, msg, code)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
