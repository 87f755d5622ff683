package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tow-dispatch-api/metrics"
	"tow-dispatch-api/models"
)

// Dispatcher runs a Notifier off the request path. Each call gets its own
// goroutine and timeout so a slow relay cannot hold up order creation.
type Dispatcher struct {
	n       Notifier
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{n: n, timeout: timeout, log: log, metrics: m}
}

// Dispatch schedules one notification and returns immediately.
func (d *Dispatcher) Dispatch(o models.Order) {
	if d == nil || d.n == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notifier panicked", "order_id", o.ID, "panic", r)
				d.count("error")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.n.Notify(ctx, o); err != nil {
			d.log.Error("new order notification failed", "order_id", o.ID, "error", err)
			d.count("error")
			return
		}
		d.log.Debug("new order notification sent", "order_id", o.ID)
		d.count("sent")
	}()
}

// Wait blocks until in-flight notifications finish. Called on shutdown.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) count(result string) {
	if d.metrics != nil {
		d.metrics.NotificationsTotal.WithLabelValues(result).Inc()
	}
}
