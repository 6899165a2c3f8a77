package testutil

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	rabbitTC "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/linklet/linklet/internal/infra"
)

// TestBroker holds test RabbitMQ resources
type TestBroker struct {
	Conn      *amqp.Connection
	URL       string
	container *rabbitTC.RabbitMQContainer
}

// SetupTestBroker starts a RabbitMQ container and opens a connection
func SetupTestBroker(ctx context.Context) (*TestBroker, error) {
	container, err := rabbitTC.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	url, err := container.AmqpURL(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	conn, err := infra.NewBrokerConn(url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &TestBroker{Conn: conn, URL: url, container: container}, nil
}

// Teardown closes the connection and terminates the container
func (t *TestBroker) Teardown(ctx context.Context) {
	if t.Conn != nil {
		t.Conn.Close()
	}
	if t.container != nil {
		_ = t.container.Terminate(ctx)
	}
}
