package db

import (
	"encoding/json"
	"time"

	"cozycakey/internal/availability"
	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Statuses lists every status an admin may set.
var Statuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order is one row of the orders table. Details keeps the full submitted form.
type Order struct {
	ID                uuid.UUID         `json:"id"`
	OrderType         string            `json:"orderType"`
	CakeID            string            `json:"cakeId"`
	CakeName          string            `json:"cakeName"`
	Size              string            `json:"size"`
	Flavor            string            `json:"flavor"`
	DeliveryDate      availability.Date `json:"deliveryDate"`
	PickupTime        string            `json:"pickupTime"`
	CustomerName      string            `json:"customerName"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	CustomerType      string            `json:"customerType,omitempty"`
	DeliveryOption    string            `json:"deliveryOption"`
	Address           string            `json:"address,omitempty"`
	PaymentMethod     string            `json:"paymentMethod"`
	AllergyAgreement  bool              `json:"allergyAgreement"`
	QuestionsComments string            `json:"questionsComments,omitempty"`
	DiscountCode      string            `json:"discountCode,omitempty"`
	TotalPrice        float64           `json:"totalPrice"`
	Status            string            `json:"status"`
	Details           json.RawMessage   `json:"details,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}
