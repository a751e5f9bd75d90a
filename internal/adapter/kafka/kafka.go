package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt dials the seed brokers. A nil tlsCfg means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		if len(seedBrokers) == 0 {
			return errors.New("no seed brokers")
		}

		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		if tlsCfg != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsCfg))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerClientInstanceOpt uses a ready client.
func ProducerClientInstanceOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func checkoutToSchemaV1(v domain.CheckoutEvent) (s schema.CheckoutEventV1) {
	s.EventID = v.ID
	s.CartKey = v.CartKey
	s.TotalItems = v.TotalItems
	s.TotalPrice = v.TotalPrice.String()
	s.CreatedAt = v.CreatedAt

	s.Lines = make([]schema.CheckoutLineV1, len(v.Lines))
	for i, l := range v.Lines {
		s.Lines[i].Kind = string(l.Kind)
		s.Lines[i].ItemID = l.ItemID
		s.Lines[i].Name = l.Name
		s.Lines[i].Quantity = l.Quantity
		s.Lines[i].UnitPrice = l.UnitPrice.String()
		s.Lines[i].Subtotal = l.Subtotal.String()
	}
	return
}
