package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"cozycakey/internal/entities"
	apperrors "cozycakey/internal/errors"
	"cozycakey/internal/repository"
	"cozycakey/internal/utils"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type AdminStore interface {
	ListOrders(ctx context.Context, f entities.OrderFilter) ([]db.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, maxPerDay int) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type OrderReader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*db.Order, error)
}

type AdminService struct {
	adminRepo       AdminStore
	orderRepo       OrderReader
	maxOrdersPerDay int
}

// NewAdminService takes the daily order ceiling so that reactivating a
// cancelled order cannot overbook its date.
func NewAdminService(adminRepo AdminStore, orderRepo OrderReader, maxOrdersPerDay int) *AdminService {
	return &AdminService{adminRepo: adminRepo, orderRepo: orderRepo, maxOrdersPerDay: maxOrdersPerDay}
}

func (s *AdminService) ListOrders(ctx context.Context, f entities.OrderFilter) (*entities.OrdersList, error) {
	if f.Date != "" {
		d, err := parseDate(f.Date)
		if err != nil {
			return nil, err
		}
		f.Date = d.String()
	}
	for i, st := range f.Statuses {
		st = strings.ToLower(strings.TrimSpace(st))
		if !db.ValidStatus(st) {
			return nil, apperrors.ErrBadRequest(fmt.Sprintf("unknown status %q", st))
		}
		f.Statuses[i] = st
	}
	if f.OrderType != "" {
		t, _, err := utils.ParseOrderType(f.OrderType)
		if err != nil {
			return nil, apperrors.Wrap(http.StatusBadRequest, err.Error(), err)
		}
		f.OrderType = string(t)
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	orders, total, err := s.adminRepo.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return &entities.OrdersList{Total: total, Limit: f.Limit, Offset: f.Offset, Orders: orders}, nil
}

func (s *AdminService) GetOrder(ctx context.Context, rawID string) (*db.Order, error) {
	id, err := parseOrderID(rawID)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *AdminService) UpdateOrderStatus(ctx context.Context, rawID, status string) error {
	id, err := parseOrderID(rawID)
	if err != nil {
		return err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !db.ValidStatus(status) {
		return apperrors.ErrBadRequest("status must be one of: " + strings.Join(db.Statuses, ", "))
	}
	err = s.adminRepo.UpdateOrderStatus(ctx, id, status, s.maxOrdersPerDay)
	if errors.Is(err, repository.ErrDateFullyBooked) {
		return apperrors.ErrConflict(availability.FullyBookedMessage(s.maxOrdersPerDay))
	}
	return notFound(err)
}

func (s *AdminService) DeleteOrder(ctx context.Context, rawID string) error {
	id, err := parseOrderID(rawID)
	if err != nil {
		return err
	}
	return notFound(s.adminRepo.DeleteOrder(ctx, id))
}

func parseOrderID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(http.StatusBadRequest, "Invalid order ID", err)
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrOrderNotFound) {
		return apperrors.ErrNotFound("Order not found")
	}
	return err
}
