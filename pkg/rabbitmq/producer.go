/**
 * @description
 * This package provides a producer for publishing billing events to RabbitMQ.
 * It encapsulates the logic for connecting to RabbitMQ and publishing a
 * message to a durable topic exchange with a routing key per event kind.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 * - internal/domain: The event payloads.
 */

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/cbm/billing-service/internal/domain"
)

// Routing keys for the billing events exchange.
const (
	RoutingKeyTransaction   = "account.transaction"
	RoutingKeyAccountStatus = "account.status.updated"
	RoutingKeyBillCreated   = "bill.created"
)

// EventProducer holds the RabbitMQ connection and channel for publishing
// billing events.
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewEventProducer connects to RabbitMQ and returns a producer bound to the
// given topic exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, exchange: exchange}, nil
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// PublishTransactionEvent publishes a balance mutation event.
func (p *EventProducer) PublishTransactionEvent(ctx context.Context, event domain.TransactionDetailsEvent) error {
	return p.publish(ctx, RoutingKeyTransaction, event)
}

// PublishAccountStatusEvent publishes an account status transition event.
func (p *EventProducer) PublishAccountStatusEvent(ctx context.Context, event domain.UpdateAccountStatusEvent) error {
	return p.publish(ctx, RoutingKeyAccountStatus, event)
}

// PublishBillEvent publishes a bill issuance event.
func (p *EventProducer) PublishBillEvent(ctx context.Context, event domain.CreateBillEvent) error {
	return p.publish(ctx, RoutingKeyBillCreated, event)
}

func (p *EventProducer) publish(ctx context.Context, routingKey string, body any) error {
	// Ensure the exchange exists (durable topic)
	if err := p.channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", p.exchange, err)
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
		if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		},
	)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is
// unavailable at startup.
type EventProducerFallback struct{}

func (EventProducerFallback) PublishTransactionEvent(ctx context.Context, event domain.TransactionDetailsEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"transaction event publish skipped\" account_id=%s", event.AccountID)
	return nil
}

func (EventProducerFallback) PublishAccountStatusEvent(ctx context.Context, event domain.UpdateAccountStatusEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"account status event publish skipped\" account_id=%s", event.AccountID)
	return nil
}

func (EventProducerFallback) PublishBillEvent(ctx context.Context, event domain.CreateBillEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"bill event publish skipped\" account_id=%s", event.AccountID)
	return nil
}

func (EventProducerFallback) Close() {}
