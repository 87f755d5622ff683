package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tow-dispatch-api/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RKOrderCreated is the routing key for new-order events.
const RKOrderCreated = "order.created"

// OrderCreated is the event body published to the broker.
type OrderCreated struct {
	OrderID     uint      `json:"orderId"`
	UserID      uint      `json:"userId"`
	UserEmail   string    `json:"userEmail"`
	CreatedAt   time.Time `json:"createdAt"`
	Pickup      string    `json:"pickupAddress"`
	Dropoff     string    `json:"dropoffAddress"`
	VehicleType string    `json:"vehicleType"`
	DistanceKm  float64   `json:"distanceKm"`
	Price       int       `json:"price"`
	Status      string    `json:"status"`
}

func NewOrderCreated(o models.Order) OrderCreated {
	return OrderCreated{
		OrderID:     o.ID,
		UserID:      o.UserID,
		UserEmail:   o.UserEmail,
		CreatedAt:   o.CreatedAt,
		Pickup:      o.PickupAddress,
		Dropoff:     o.DropoffAddress,
		VehicleType: string(o.VehicleType),
		DistanceKm:  o.DistanceKm,
		Price:       o.Price,
		Status:      string(o.Status),
	}
}

// Publisher is the subset of a broker channel the AMQP notifier needs.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPNotifier publishes order.created events for downstream consumers.
type AMQPNotifier struct {
	Pub Publisher
}

func (n *AMQPNotifier) Notify(ctx context.Context, o models.Order) error {
	return n.Pub.PublishJSON(ctx, RKOrderCreated, NewOrderCreated(o))
}

// RabbitPublisher owns one connection and channel to a topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
