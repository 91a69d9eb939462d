// Package ids genera identificadores ULID ordenables lexicográficamente por tiempo.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New devuelve un ULID; dentro del mismo milisegundo los valores son crecientes.
func New() string {
	return At(time.Now())
}

// At devuelve un ULID con la marca de tiempo t.
func At(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
