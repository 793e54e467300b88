package exchange

import "fmt"

// ExternalExchange is the broker-facing half: a host application (or a
// test harness) uses it to submit orders and poll for responses, without
// any knowledge of how a Processor executes them.
type ExternalExchange interface {
	// SendOrder submits an order for processing.
	SendOrder(OrderMessage) error

	// NextResponse returns the next available response, or (nil, nil) if
	// none is available yet. It never blocks.
	NextResponse() (*ResponseMessage, error)
}

// InternalExchange is the processor-facing half: a Processor's worker
// thread receives orders from OrderReceiver and publishes results through
// SendResponse.
type InternalExchange interface {
	// SendResponse publishes a response.
	SendResponse(ResponseMessage) error

	// OrderReceiver is the channel a Processor's worker thread ranges over
	// to receive incoming orders.
	OrderReceiver() <-chan OrderMessage
}

// BrokerError wraps a failure from the underlying transport (AMQP dial,
// channel, publish, or consume errors).
type BrokerError struct {
	Err error
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("broker error: %s", e.Err)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}
