package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/linklet/linklet/internal/model"
)

// Publisher fans out link.clicked events to a topic exchange. The
// analytics worker and the webhook dispatcher bind their own queues;
// this side only publishes. Publishes run behind a circuit breaker so
// a dead broker fails fast instead of piling up blocked goroutines.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	breaker  *gobreaker.CircuitBreaker
}

// NewPublisher opens a channel on the given connection and declares
// the topic exchange.
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // args
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "event-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Publisher{ch: ch, exchange: exchange, breaker: breaker}, nil
}

// PublishLinkClicked emits the updated link record plus the click
// details under the link.clicked routing key.
func (p *Publisher) PublishLinkClicked(ctx context.Context, link *model.Link, click *model.ClickEvent) error {
	payload := model.LinkClickedEvent{
		Event: model.EventLinkClicked,
		Link:  *link,
		Click: *click,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.ch.PublishWithContext(ctx,
			p.exchange,
			model.EventLinkClicked, // routing key
			false,                  // mandatory
			false,                  // immediate
			amqp.Publishing{
				ContentType: "application/json",
				Type:        model.EventLinkClicked,
				Timestamp:   time.Now(),
				Body:        body,
			},
		)
	})
	return err
}

// Close releases the channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
