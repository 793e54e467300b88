package exchange

import "github.com/google/uuid"

// LocalExchange is an in-process loopback implementing both
// ExternalExchange and InternalExchange over a pair of buffered channels.
// It is the exchange behind broker.url == "local": no network, a host
// application and a Processor running in the same process drive each
// other directly through it.
type LocalExchange struct {
	orders    chan OrderMessage
	responses chan ResponseMessage
}

const defaultLocalBuffer = 64

// NewLocalExchange builds a LocalExchange with a reasonable default buffer.
func NewLocalExchange() *LocalExchange {
	return NewLocalExchangeWithBuffer(defaultLocalBuffer)
}

// NewLocalExchangeWithBuffer builds a LocalExchange with an explicit
// channel buffer size, mainly useful in tests that want to observe
// backpressure.
func NewLocalExchangeWithBuffer(buffer int) *LocalExchange {
	return &LocalExchange{
		orders:    make(chan OrderMessage, buffer),
		responses: make(chan ResponseMessage, buffer),
	}
}

// SendOrder enqueues an order for the Processor to pick up, tagging it
// with a uuid if the caller left ID empty. Blocks if the order buffer is
// full.
func (l *LocalExchange) SendOrder(o OrderMessage) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	l.orders <- o
	return nil
}

// NextResponse returns the next queued response without blocking.
func (l *LocalExchange) NextResponse() (*ResponseMessage, error) {
	select {
	case r := <-l.responses:
		return &r, nil
	default:
		return nil, nil
	}
}

// SendResponse enqueues a response for the host application to poll.
// Blocks if the response buffer is full.
func (l *LocalExchange) SendResponse(r ResponseMessage) error {
	l.responses <- r
	return nil
}

// OrderReceiver exposes the order channel for a Processor's worker thread
// to range over.
func (l *LocalExchange) OrderReceiver() <-chan OrderMessage {
	return l.orders
}

// Close closes both channels. Must only be called after no further
// SendOrder/SendResponse calls will occur.
func (l *LocalExchange) Close() {
	close(l.orders)
	close(l.responses)
}

var (
	_ ExternalExchange = (*LocalExchange)(nil)
	_ InternalExchange = (*LocalExchange)(nil)
)
