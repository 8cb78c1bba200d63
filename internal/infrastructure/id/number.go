package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumbers yields numbers shaped ORD-<yyyymmddhhmmss>-<8 hex>. The random suffix keeps
// collisions within one second unlikely; the store's unique index catches the rest.
type OrderNumbers struct {
	now func() time.Time
}

func NewOrderNumbers() *OrderNumbers {
	return &OrderNumbers{now: time.Now}
}

func (g *OrderNumbers) Next() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + g.now().UTC().Format("20060102150405") + "-" + suffix
}

// RequestID returns a fresh identifier for requests and events.
func RequestID() string {
	return uuid.NewString()
}
