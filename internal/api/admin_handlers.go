package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cozycakey/internal/entities"
	apperrors "cozycakey/internal/errors"
	"cozycakey/internal/service"
	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Service *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entities.OrderFilter{
		Date:      q.Get("date"),
		OrderType: q.Get("orderType"),
	}
	if s := q.Get("status"); s != "" {
		filter.Statuses = strings.Split(s, ",")
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		apperrors.WriteError(w, apperrors.ErrBadRequest("limit must be a number"))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		apperrors.WriteError(w, apperrors.ErrBadRequest("offset must be a number"))
		return
	}

	list, err := h.Service.ListOrders(r.Context(), filter)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.ErrBadRequest("Invalid request body"))
		return
	}
	if err := h.Service.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req.Status); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Order status updated"})
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteOrder(r.Context(), mux.Vars(r)["id"]); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Order deleted"})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
