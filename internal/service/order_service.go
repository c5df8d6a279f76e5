package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"cozycakey/internal/entities"
	apperrors "cozycakey/internal/errors"
	"cozycakey/internal/repository"
	"github.com/go-playground/validator/v10"
)

const (
	// MinDeliveryTotal is the smallest order total accepted for delivery.
	MinDeliveryTotal = 50.0

	msgOrderPlaced = "Order placed successfully. We will contact you to confirm."
)

// OrderStore persists an order only while its date still has room.
type OrderStore interface {
	CreateOrderWithinCapacity(ctx context.Context, o *db.Order, maxPerDay int) error
}

// OrderNotifier is told about every stored order. Implementations must not block.
type OrderNotifier interface {
	OrderPlaced(o db.Order)
}

type OrderService struct {
	Store        OrderStore
	Availability *AvailabilityService
	Notifier     OrderNotifier
	validate     *validator.Validate
}

func NewOrderService(store OrderStore, avail *AvailabilityService, notifier OrderNotifier) *OrderService {
	return &OrderService{
		Store:        store,
		Availability: avail,
		Notifier:     notifier,
		validate:     NewValidator(),
	}
}

// Place validates req, re-checks the date and stores the order. The final
// capacity decision happens inside the store transaction.
func (s *OrderService) Place(ctx context.Context, req entities.OrderRequest) (*entities.PlaceOrderResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(http.StatusBadRequest, validationMessage(err), err)
	}
	if msg := formRuleViolation(req); msg != "" {
		return nil, apperrors.ErrBadRequest(msg)
	}

	d, err := parseDate(req.FulfillmentDate())
	if err != nil {
		return nil, err
	}
	order := req.ToOrder(d)
	if order.DeliveryOption == "delivery" && order.Address == "" {
		return nil, apperrors.ErrBadRequest("Delivery address is required")
	}
	if order.DeliveryOption == "delivery" && order.TotalPrice < MinDeliveryTotal {
		return nil, apperrors.ErrBadRequest(fmt.Sprintf("Delivery orders require a minimum of $%.0f", MinDeliveryTotal))
	}

	verdict, err := s.Availability.Evaluate(ctx, d, req.Type())
	if err != nil {
		return nil, err
	}
	if !verdict.Available {
		return nil, apperrors.ErrConflict(verdict.Message)
	}

	details, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding order details: %w", err)
	}
	order.Details = details

	limit := s.Availability.Policies.For(req.Type()).MaxOrdersPerDay
	storeCtx, cancel := s.Availability.countContext(ctx)
	defer cancel()
	if err := s.Store.CreateOrderWithinCapacity(storeCtx, &order, limit); err != nil {
		if errors.Is(err, repository.ErrDateFullyBooked) {
			return nil, apperrors.Wrap(http.StatusConflict, availability.FullyBookedMessage(limit), err)
		}
		return nil, fmt.Errorf("error storing order: %w", err)
	}
	slog.InfoContext(ctx, "order placed", "order_id", order.ID, "type", order.OrderType, "date", order.DeliveryDate.String())

	if s.Notifier != nil {
		s.Notifier.OrderPlaced(order)
	}
	return &entities.PlaceOrderResponse{OrderID: order.ID.String(), Message: msgOrderPlaced}, nil
}

// formRuleViolation covers the cross-field rules the struct tags cannot express.
func formRuleViolation(req entities.OrderRequest) string {
	c, ok := req.(*entities.CateringOrderRequest)
	if !ok {
		return ""
	}
	if c.TopperOption == entities.CustomTopper && strings.TrimSpace(c.CustomTopperText) == "" {
		return "customTopperText is required for a custom topper"
	}
	if strings.EqualFold(c.Size, "other") && c.CustomQuantity == 0 {
		return "customQuantity is required when size is other"
	}
	return ""
}
