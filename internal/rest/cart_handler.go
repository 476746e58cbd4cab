package rest

import (
	"errors"
	"net/http"

	"catering-be/internal/cart"
	"catering-be/internal/logger"
	"catering-be/internal/utils"

	"go.uber.org/zap"
)

type CartHandler struct {
	CartSvc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{CartSvc: svc}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	items, err := h.CartSvc.GetCart(r.Context(), userID)
	if errors.Is(err, cart.ErrUserNotAuthenticated) {
		utils.WriteJSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to get cart",
			zap.String("layer", "handler"),
			zap.Error(err),
		)
		utils.WriteJSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
