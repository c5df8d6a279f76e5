package api

import (
	"encoding/json"
	"net/http"

	"cozycakey/internal/entities"
	apperrors "cozycakey/internal/errors"
	"cozycakey/internal/service"
)

type UserHandler struct {
	Availability *service.AvailabilityService
	Orders       *service.OrderService
}

func NewUserHandler(avail *service.AvailabilityService, orders *service.OrderService) *UserHandler {
	return &UserHandler{Availability: avail, Orders: orders}
}

// GetAvailability answers ?date= for one day or ?start=&end= for a range.
func (h *UserHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderType := q.Get("orderType")

	if date := q.Get("date"); date != "" {
		resp, err := h.Availability.Check(r.Context(), date, orderType)
		if err != nil {
			apperrors.WriteError(w, err)
			return
		}
		apperrors.WriteJSON(w, http.StatusOK, resp)
		return
	}

	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest("Provide either date or both start and end"))
		return
	}
	resp, err := h.Availability.CheckRange(r.Context(), start, end, orderType)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) BatchAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.ErrBadRequest("Invalid request body"))
		return
	}
	resp, err := h.Availability.CheckDates(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) CreateDesignOrder(w http.ResponseWriter, r *http.Request) {
	h.placeOrder(w, r, &entities.DesignOrderRequest{})
}

func (h *UserHandler) CreateCateringOrder(w http.ResponseWriter, r *http.Request) {
	h.placeOrder(w, r, &entities.CateringOrderRequest{})
}

func (h *UserHandler) placeOrder(w http.ResponseWriter, r *http.Request, req entities.OrderRequest) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		apperrors.WriteError(w, apperrors.ErrBadRequest("Invalid request body"))
		return
	}
	resp, err := h.Orders.Place(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusCreated, resp)
}
