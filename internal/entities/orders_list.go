package entities

import "cozycakey/internal/db"

type OrdersList struct {
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Orders []db.Order `json:"orders"`
}

type OrderFilter struct {
	Date      string
	Statuses  []string
	OrderType string
	Limit     int
	Offset    int
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type PlaceOrderResponse struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}
