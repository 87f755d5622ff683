// Package notify tells the dispatcher about new orders. Delivery is best
// effort: at most once, never retried, never allowed to fail an order.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tow-dispatch-api/models"
)

// Notifier delivers one new-order notification.
type Notifier interface {
	Notify(ctx context.Context, o models.Order) error
}

// Subject is the email subject for new orders.
const Subject = "Новая заявка на эвакуатор"

// FormatMessage renders the plain-text body sent to the dispatcher.
func FormatMessage(o models.Order) string {
	var b strings.Builder
	b.WriteString("Новая заявка:\n")
	fmt.Fprintf(&b, "Время: %s\n", o.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Клиент: %s\n", o.UserEmail)
	fmt.Fprintf(&b, "Пикап: %s\n", o.PickupAddress)
	fmt.Fprintf(&b, "Доставка: %s\n", o.DropoffAddress)
	fmt.Fprintf(&b, "Тип ТС: %s\n", o.VehicleType)
	fmt.Fprintf(&b, "Марка: %s\n", orDash(o.VehicleBrand))
	fmt.Fprintf(&b, "Опции: на ходу=%s, документы=%s, лебедка=%s\n", yesNo(o.IsRunning), yesNo(o.HasDocs), yesNo(o.CanWinch))
	fmt.Fprintf(&b, "Расстояние: %g км\n", o.DistanceKm)
	fmt.Fprintf(&b, "Цена: %d ₽\n", o.Price)
	fmt.Fprintf(&b, "Комментарий: %s\n", orDash(o.Comment))
	fmt.Fprintf(&b, "Статус: %s\n", o.Status.Label())
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

func orDash(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}

// LogNotifier stands in when no mail transport is configured.
type LogNotifier struct {
	To  string
	Log *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, o models.Order) error {
	n.Log.Info("email transport not configured, would send",
		"to", n.To, "subject", Subject, "order_id", o.ID, "body", FormatMessage(o))
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, o models.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
