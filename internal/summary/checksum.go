package summary

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
)

// Checksum returns a 64-bit xxh3 digest of rows in order, rendered as 16 hex
// digits. Identical row sets always produce identical checksums.
func Checksum(rows []VendorBrandSummary) string {
	h := xxh3.New()
	var buf []byte
	for _, r := range rows {
		buf = buf[:0]
		for _, v := range r.Values() {
			switch t := v.(type) {
			case int64:
				buf = binary.LittleEndian.AppendUint64(buf, uint64(t))
			case float64:
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(t))
			case string:
				buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t)))
				buf = append(buf, t...)
			}
		}
		_, _ = h.Write(buf)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
