package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tow-dispatch-api/geo"
	"tow-dispatch-api/metrics"
	"tow-dispatch-api/models"
	"tow-dispatch-api/notify"
	"tow-dispatch-api/pricing"
	"tow-dispatch-api/statemachine"
	"tow-dispatch-api/store"
)

type OrderService struct {
	store      *store.Store
	estimator  *geo.Estimator
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	log        *slog.Logger
	now        func() time.Time
}

func NewOrderService(st *store.Store, est *geo.Estimator, d *notify.Dispatcher, m *metrics.Metrics, log *slog.Logger) *OrderService {
	return &OrderService{store: st, estimator: est, dispatcher: d, metrics: m, log: log, now: time.Now}
}

// Create validates and stores a new order for the caller, then schedules
// the dispatcher notification. The response never waits on the notification.
func (s *OrderService) Create(ctx context.Context, id Identity, p OrderPayload) (*models.Order, error) {
	if id.UserID == 0 {
		return nil, newErr(ErrAuth, "Unauthorized")
	}
	if name := p.firstMissing(); name != "" {
		return nil, validationf("Missing field: %s", name)
	}
	vt, ok := models.ParseVehicleType(p.VehicleType.Text())
	if !ok {
		return nil, validationf("Invalid vehicleType: must be one of Car, Motorcycle, Bus, Truck")
	}

	distance := pricing.Coerce(p.DistanceKm.Text())
	if !pricing.InRange(distance) {
		return nil, validationf("Invalid distanceKm: must not exceed %d", pricing.MaxDistanceKm)
	}
	order := &models.Order{
		UserID:         id.UserID,
		CreatedAt:      s.now(),
		PickupAddress:  p.PickupAddress.Text(),
		DropoffAddress: p.DropoffAddress.Text(),
		IsRunning:      bool(p.IsRunning),
		HasDocs:        bool(p.HasDocs),
		CanWinch:       bool(p.CanWinch),
		VehicleType:    vt,
		VehicleBrand:   optional(p.VehicleBrand),
		Comment:        optional(p.Comment),
		DistanceKm:     distance,
		Price:          pricing.Price(distance),
		Status:         statemachine.Initial,
	}
	saved, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("order created", "order_id", saved.ID, "user_id", saved.UserID,
		"distance_km", saved.DistanceKm, "price", saved.Price)
	if s.metrics != nil {
		s.metrics.OrdersCreated.WithLabelValues(string(saved.VehicleType)).Inc()
	}
	s.dispatcher.Dispatch(*saved)
	return saved, nil
}

// ListMine returns the caller's own orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, id Identity) ([]models.Order, error) {
	if id.UserID == 0 {
		return nil, newErr(ErrAuth, "Unauthorized")
	}
	return s.store.ListOrdersByUser(ctx, id.UserID)
}

// ListAll returns every order with its owner email. Admin only.
func (s *OrderService) ListAll(ctx context.Context, id Identity) ([]models.Order, error) {
	if !id.IsAdmin {
		return nil, newErr(ErrForbidden, "Forbidden")
	}
	return s.store.ListOrders(ctx)
}

// SetStatus moves an order to any status. Admin only; repeating the same
// status is allowed and changes nothing else.
func (s *OrderService) SetStatus(ctx context.Context, id Identity, orderID uint, status string) (*models.Order, error) {
	if !id.IsAdmin {
		return nil, newErr(ErrForbidden, "Forbidden")
	}
	to, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, validationf("Invalid status")
	}
	cur, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(ErrNotFound, "Not found")
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if err := statemachine.CanTransition(cur.Status, to, statemachine.ActorAdmin); err != nil {
		return nil, validationf("%s", err.Error())
	}

	updated, err := s.store.UpdateOrderStatus(ctx, orderID, to, id.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(ErrNotFound, "Not found")
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.log.Info("order status changed", "order_id", orderID, "from", cur.Status, "to", to, "by", id.UserID)
	if s.metrics != nil {
		s.metrics.OrderStatusChanges.WithLabelValues(string(to)).Inc()
	}
	return updated, nil
}

// History lists the status changes of an order. Admin only.
func (s *OrderService) History(ctx context.Context, id Identity, orderID uint) ([]models.OrderStatusHistory, error) {
	if !id.IsAdmin {
		return nil, newErr(ErrForbidden, "Forbidden")
	}
	if _, err := s.store.OrderByID(ctx, orderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(ErrNotFound, "Not found")
		}
		return nil, err
	}
	return s.store.StatusHistory(ctx, orderID)
}

// Quote previews distance and price for a trip. The price is informational;
// Create always reprices from the submitted distance.
func (s *OrderService) Quote(ctx context.Context, from, to geo.Location) (geo.Estimate, error) {
	if s.estimator == nil {
		return geo.Estimate{}, errors.New("estimator not configured")
	}
	est, err := s.estimator.Estimate(ctx, from, to)
	if err != nil {
		var se *geo.StopError
		if errors.As(err, &se) && errors.Is(err, geo.ErrUnresolved) {
			return geo.Estimate{}, validationf("Could not locate %s address", se.Stop)
		}
		return geo.Estimate{}, err
	}
	if s.metrics != nil {
		s.metrics.QuotesTotal.WithLabelValues(est.Source).Inc()
	}
	return est, nil
}
