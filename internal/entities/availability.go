package entities

import "cozycakey/internal/availability"

type AvailabilityResponse struct {
	Date          string `json:"date"`
	Available     bool   `json:"available"`
	Reason        string `json:"reason"`
	Code          string `json:"code"`
	CurrentOrders int    `json:"currentOrders"`
	MaxOrders     int    `json:"maxOrders"`
}

type UnavailableDate struct {
	Date          string `json:"date"`
	Reason        string `json:"reason"`
	Code          string `json:"code"`
	CurrentOrders int    `json:"currentOrders"`
}

type AvailabilityRangeResponse struct {
	UnavailableDates []UnavailableDate `json:"unavailableDates"`
}

type AvailabilityBatchRequest struct {
	Dates     []string `json:"dates"`
	OrderType string   `json:"orderType,omitempty"`
}

type AvailabilityBatchResponse struct {
	Availability []AvailabilityResponse `json:"availability"`
}

func NewAvailabilityResponse(v availability.Verdict) AvailabilityResponse {
	return AvailabilityResponse{
		Date:          v.Date.String(),
		Available:     v.Available,
		Reason:        v.Message,
		Code:          string(v.Reason),
		CurrentOrders: v.CurrentOrders,
		MaxOrders:     v.MaxOrders,
	}
}

func NewAvailabilityRangeResponse(verdicts []availability.Verdict) AvailabilityRangeResponse {
	resp := AvailabilityRangeResponse{UnavailableDates: make([]UnavailableDate, 0, len(verdicts))}
	for _, v := range verdicts {
		resp.UnavailableDates = append(resp.UnavailableDates, UnavailableDate{
			Date:          v.Date.String(),
			Reason:        v.Message,
			Code:          string(v.Reason),
			CurrentOrders: v.CurrentOrders,
		})
	}
	return resp
}
