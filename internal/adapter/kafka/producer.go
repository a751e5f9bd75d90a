package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/niksmo/paintstore/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CheckoutEventsProducer = (*CheckoutProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CheckoutProducer publishes [domain.CheckoutEvent] keyed by cart.
type CheckoutProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCheckoutProducer(opts ...ProducerOpt) (CheckoutProducer, error) {
	const op = "NewCheckoutProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CheckoutProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CheckoutProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CheckoutProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CheckoutProducer) Close() {
	p.producer.close()
}

func (p CheckoutProducer) ProduceCheckout(
	ctx context.Context, evt domain.CheckoutEvent,
) error {
	const op = "ProduceCheckout"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	slog.Debug("checkout event produced",
		"op", makeOp(p.opPrefix, op), "event", evt.ID, "cart", evt.CartKey)
	return nil
}

func (p CheckoutProducer) createRecord(
	v domain.CheckoutEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.CartKey), Value: b}, nil
}

func (CheckoutProducer) toSchema(v domain.CheckoutEvent) schema.CheckoutEventV1 {
	return checkoutToSchemaV1(v)
}
