// Package events carries catalog-change notifications between the seller
// portal and storefront instances over a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Entities.
const (
	Book    = "book"
	Author  = "author"
	Genre   = "genre"
	Deal    = "deal"
	Section = "section"
	Slide   = "slide"
)

// Actions.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// AllCatalog matches every catalog routing key.
const AllCatalog = "catalog.#"

func Key(entity, action string) string {
	return "catalog." + entity + "." + action
}

type Event struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Parse decodes a delivery. The routing key fills entity and action when
// the body omits them.
func Parse(routingKey string, body []byte) (Event, error) {
	var ev Event
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ev); err != nil {
			return ev, fmt.Errorf("decode %s: %w", routingKey, err)
		}
	}
	parts := strings.Split(routingKey, ".")
	if len(parts) != 3 || parts[0] != "catalog" {
		return ev, fmt.Errorf("unexpected routing key %q", routingKey)
	}
	if ev.Entity == "" {
		ev.Entity = parts[1]
	}
	if ev.Action == "" {
		ev.Action = parts[2]
	}
	return ev, nil
}

type Handler func(ctx context.Context, ev Event) error

// Rabbit is safe to use as a nil pointer: every method is then a no-op so
// the frontends run without a broker.
type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewRabbit dials url and declares the topic exchange. An empty url
// returns a nil *Rabbit and no error.
func NewRabbit(url, exchange string) (*Rabbit, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange}, nil
}

func (r *Rabbit) Close() {
	if r == nil {
		return
	}
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// Publish announces a catalog change.
func (r *Rabbit) Publish(ctx context.Context, entity, action, id string) error {
	if r == nil {
		return nil
	}
	ev := Event{Entity: entity, Action: action, ID: id, Timestamp: time.Now().UTC()}
	return r.PublishJSON(ctx, Key(entity, action), ev)
}

func (r *Rabbit) PublishJSON(ctx context.Context, routingKey string, v any) error {
	if r == nil {
		return nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	log.Debug().Str("rk", routingKey).Msg("event published")
	return nil
}

// ConsumeTopic binds a queue to the exchange and hands each delivery to h
// on a background goroutine until ctx ends or the channel closes. An empty
// queue name declares a server-named exclusive queue, so every process
// gets its own copy of each event.
func (r *Rabbit) ConsumeTopic(ctx context.Context, queue string, bindings []string, h Handler) error {
	if r == nil {
		return nil
	}
	durable, autoDelete, exclusive := true, false, false
	if queue == "" {
		durable, autoDelete, exclusive = false, true, true
	}
	q, err := r.ch.QueueDeclare(queue, durable, autoDelete, exclusive, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range bindings {
		if err := r.ch.QueueBind(q.Name, rk, r.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	msgs, err := r.ch.ConsumeWithContext(ctx, q.Name, "", true, exclusive, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.Name, err)
	}

	go func() {
		for d := range msgs {
			if err := dispatch(ctx, d.RoutingKey, d.Body, h); err != nil {
				log.Error().Err(err).Str("rk", d.RoutingKey).Msg("event handler failed")
			}
		}
		log.Info().Str("queue", q.Name).Msg("event consumer stopped")
	}()
	return nil
}

func dispatch(ctx context.Context, routingKey string, body []byte, h Handler) error {
	ev, err := Parse(routingKey, body)
	if err != nil {
		return err
	}
	if err := h(ctx, ev); err != nil {
		return errors.Join(fmt.Errorf("%s %s", ev.Entity, ev.Action), err)
	}
	return nil
}
