package callbacks

import (
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// ErrUnknownKey is returned when no decoder is registered for a callback key.
var ErrUnknownKey = errors.New("callbacks: unknown key")

// ParseInt64 parses a numeric payload.
func ParseInt64(payload string) (int64, error) {
	v, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callbacks: bad numeric payload %q: %w", payload, err)
	}
	return v, nil
}

// Decoder maps callback keys to payload parsers producing T.
type Decoder[T any] map[string]func(payload string) (T, error)

// DecodeData decodes raw unique and payload values.
func (d Decoder[T]) DecodeData(unique, payload string) (T, error) {
	fn, ok := d[unique]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrUnknownKey, unique)
	}
	return fn(payload)
}

// Decode decodes the callback carried by c.
func (d Decoder[T]) Decode(c tele.Context) (T, error) {
	return d.DecodeData(Key(c), Payload(c))
}
