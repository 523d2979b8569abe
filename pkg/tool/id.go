package tool

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewOrderID mints the order id handed to the payment gateway before the
// charge is attempted. It mixes a truncated user id, the payment method slug
// and a millisecond timestamp: best-effort uniqueness for traceability, not an
// idempotency key. Duplicate submits must be stopped upstream.
func NewOrderID(userID, paymentMethod string, now time.Time) string {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("ord-%s-%s-%d", short, paymentMethod, now.UnixMilli())
}
