package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ackRejecter is satisfied by *amqp.Delivery. Extracting it lets
// SendResponse's ack/reject branching be unit-tested against a fake
// delivery instead of a live broker.
type ackRejecter interface {
	Ack(multiple bool) error
	Reject(requeue bool) error
}

// publisher is satisfied by *amqp.Channel. Extracting it lets
// SendResponse's publish call be unit-tested against a fake channel.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// trackedDelivery pairs an unacked AMQP delivery with the correlation id
// assigned to the order it carried, so responses can echo it back.
type trackedDelivery struct {
	delivery      ackRejecter
	correlationID string
}

// RemoteExchange is the AMQP-backed InternalExchange: it subscribes to a
// worker's job queue, translates each delivery into an OrderMessage on
// OrderReceiver, and publishes SendResponse calls to the job_response
// topic exchange. A response only acks or rejects its originating delivery
// when it is terminal (Completed or Error); Initialized and Feedback
// responses publish without touching delivery state.
type RemoteExchange struct {
	conn    *amqp.Connection
	channel publisher

	queueName        string
	responseExchange string

	orders chan OrderMessage
	logger *slog.Logger

	deliveriesMu sync.Mutex
	deliveries   map[uint64]trackedDelivery

	closeOnce sync.Once
	done      chan struct{}
}

// RemoteConfig configures a RemoteExchange connection.
type RemoteConfig struct {
	URL              string
	WorkerQueue      string
	ResponseExchange string
	PrefetchCount    int
}

// NewRemoteExchange dials url, declares the worker's job queue and the
// response topic exchange, and starts consuming deliveries in the
// background. The returned RemoteExchange must be closed with Close.
func NewRemoteExchange(cfg RemoteConfig, logger *slog.Logger) (*RemoteExchange, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, &BrokerError{Err: fmt.Errorf("dialing broker: %w", err)}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, &BrokerError{Err: fmt.Errorf("opening channel: %w", err)}
	}

	prefetch := cfg.PrefetchCount
	if prefetch < 1 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, &BrokerError{Err: fmt.Errorf("setting qos: %w", err)}
	}

	queueName := fmt.Sprintf("job_%s", cfg.WorkerQueue)
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, &BrokerError{Err: fmt.Errorf("declaring queue %s: %w", queueName, err)}
	}

	responseExchange := cfg.ResponseExchange
	if responseExchange == "" {
		responseExchange = "job_response"
	}
	if err := ch.ExchangeDeclare(responseExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, &BrokerError{Err: fmt.Errorf("declaring exchange %s: %w", responseExchange, err)}
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, &BrokerError{Err: fmt.Errorf("consuming %s: %w", queueName, err)}
	}

	re := &RemoteExchange{
		conn:             conn,
		channel:          ch,
		queueName:        queueName,
		responseExchange: responseExchange,
		orders:           make(chan OrderMessage, prefetch),
		logger:           logger.With("component", "exchange.remote", "queue", queueName),
		deliveries:       make(map[uint64]trackedDelivery),
		done:             make(chan struct{}),
	}

	go re.consume(deliveries)

	return re, nil
}

// newRemoteExchangeForTest builds a RemoteExchange around a fake publisher,
// skipping amqp.Dial/Channel/Consume entirely. Used only by tests exercising
// SendResponse's ack/reject branching without a live broker.
func newRemoteExchangeForTest(pub publisher, responseExchange string, logger *slog.Logger) *RemoteExchange {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteExchange{
		channel:          pub,
		responseExchange: responseExchange,
		orders:           make(chan OrderMessage, 1),
		logger:           logger.With("component", "exchange.remote"),
		deliveries:       make(map[uint64]trackedDelivery),
		done:             make(chan struct{}),
	}
}

func (re *RemoteExchange) consume(deliveries <-chan amqp.Delivery) {
	defer close(re.orders)

	for d := range deliveries {
		d := d
		kind := orderKindFromType(d.Type)
		order, err := decodeOrder(kind, d.Body)
		if err != nil {
			re.logger.Error("rejecting undecodable delivery", "error", err)
			_ = d.Reject(false)
			continue
		}

		correlationID := d.CorrelationId
		if correlationID == "" {
			correlationID = ulid.Make().String()
		}
		order.ID = correlationID

		if kind == OrderInitProcess || kind == OrderStartProcess || kind == OrderStopProcess {
			re.trackDelivery(order.Job.JobID, trackedDelivery{delivery: &d, correlationID: correlationID})
		}

		select {
		case re.orders <- order:
		case <-re.done:
			return
		}
	}
}

func (re *RemoteExchange) trackDelivery(jobID uint64, td trackedDelivery) {
	re.deliveriesMu.Lock()
	defer re.deliveriesMu.Unlock()
	re.deliveries[jobID] = td
}

func (re *RemoteExchange) peekCorrelationID(jobID uint64) string {
	re.deliveriesMu.Lock()
	defer re.deliveriesMu.Unlock()
	return re.deliveries[jobID].correlationID
}

func (re *RemoteExchange) takeDelivery(jobID uint64) (trackedDelivery, bool) {
	re.deliveriesMu.Lock()
	defer re.deliveriesMu.Unlock()
	td, ok := re.deliveries[jobID]
	if ok {
		delete(re.deliveries, jobID)
	}
	return td, ok
}

// SendResponse publishes r to the response exchange under the routing key
// matching its kind. For terminal responses (Completed, Error), the
// originating delivery is acked on publish success and rejected with
// requeue=true on publish failure. Non-terminal responses (Initialized,
// Feedback) never touch delivery state.
func (re *RemoteExchange) SendResponse(r ResponseMessage) error {
	routingKey, body, err := encodeResponse(r)
	if err != nil {
		return err
	}

	jobID, hasJobID := r.JobID()
	var correlationID string
	if hasJobID {
		correlationID = re.peekCorrelationID(jobID)
	}

	pubErr := re.channel.PublishWithContext(context.Background(), re.responseExchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		Body:          body,
	})

	if !r.Terminal() || !hasJobID {
		if pubErr != nil {
			return &BrokerError{Err: fmt.Errorf("publishing %s: %w", routingKey, pubErr)}
		}
		return nil
	}

	td, tracked := re.takeDelivery(jobID)
	if !tracked {
		if pubErr != nil {
			return &BrokerError{Err: fmt.Errorf("publishing %s: %w", routingKey, pubErr)}
		}
		return nil
	}

	if pubErr != nil {
		if rejectErr := td.delivery.Reject(true); rejectErr != nil {
			re.logger.Error("rejecting delivery after publish failure", "job_id", jobID, "error", rejectErr)
		}
		return &BrokerError{Err: fmt.Errorf("publishing %s: %w", routingKey, pubErr)}
	}

	if ackErr := td.delivery.Ack(false); ackErr != nil {
		return &BrokerError{Err: fmt.Errorf("acking delivery for job %d: %w", jobID, ackErr)}
	}
	return nil
}

// OrderReceiver exposes the channel a Processor's worker thread ranges
// over to receive translated orders.
func (re *RemoteExchange) OrderReceiver() <-chan OrderMessage {
	return re.orders
}

// Close stops consuming and tears down the channel and connection.
func (re *RemoteExchange) Close() error {
	var err error
	re.closeOnce.Do(func() {
		close(re.done)
		if chErr := re.channel.Close(); chErr != nil {
			err = chErr
		}
		if re.conn != nil {
			if connErr := re.conn.Close(); connErr != nil && err == nil {
				err = connErr
			}
		}
	})
	return err
}

var _ InternalExchange = (*RemoteExchange)(nil)
