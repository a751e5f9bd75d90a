package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// serde frames avro payloads with the schema registry wire header.
type serde struct {
	srSerde *sr.Serde
}

func (s serde) Encode(v any) ([]byte, error) {
	return s.srSerde.Encode(v)
}

func (s serde) Decode(data []byte, v any) error {
	return s.srSerde.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

// NewSerdeCheckoutEventV1 registers the checkout event schema under the
// subject and returns the serde for [CheckoutEventV1] values.
func NewSerdeCheckoutEventV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeCheckoutEventV1"
	return newSerde[CheckoutEventV1](ctx, op, CheckoutEventSchemaTextV1, opts)
}

func newSerde[T any](
	ctx context.Context, op, schemaText string, opts []Opt,
) (Serde, error) {
	if len(opts) != 2 {
		return serde{}, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	var o serdeOpts
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return serde{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return serde{}, fmt.Errorf("%s: invalid schema: %w", op, err)
	}

	id, err := o.si.DetermineID(ctx, o.subject, schemaText)
	if err != nil {
		return serde{}, fmt.Errorf("%s: subject %q: %w", op, o.subject, err)
	}

	var zero T
	srSerde := new(sr.Serde)
	srSerde.Register(
		id,
		zero,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)
	return serde{srSerde: srSerde}, nil
}
