package forecast

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"crimecast/pkg/contracts/domain"
)

// Key identifies one forecast computation. Two requests with the same
// selection and horizon but different series content get different keys.
type Key struct {
	State       string
	Category    string
	Horizon     int
	Fingerprint uint64
}

// String renders the key for singleflight and logging
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d|%016x", k.State, k.Category, k.Horizon, k.Fingerprint)
}

// NewKey builds the cache key for a request
func NewKey(state, category string, horizon int, ts domain.TimeSeries) Key {
	return Key{
		State:       state,
		Category:    category,
		Horizon:     horizon,
		Fingerprint: Fingerprint(ts),
	}
}

// Fingerprint hashes the timestamps and values of a series
func Fingerprint(ts domain.TimeSeries) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 16)
	for _, p := range ts.Points {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Timestamp.Unix()))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Value))
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}
