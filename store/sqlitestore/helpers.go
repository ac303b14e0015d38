package sqlitestore

import (
	"encoding/binary"
	"fmt"
	"math"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if *err == nil {
		return
	}
	_ = rb.Rollback()
}

// encodeSamples packs samples as little-endian IEEE 754 doubles.
func encodeSamples(samples []float64) []byte {
	buf := make([]byte, 8*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// decodeSamples appends the doubles in blob[8*from : 8*to] to dst.
func decodeSamples(dst []float64, blob []byte, from, to int) ([]float64, error) {
	if len(blob)%8 != 0 || to*8 > len(blob) || from < 0 || from > to {
		return dst, fmt.Errorf("corrupt chunk: %d bytes, want samples [%d,%d)", len(blob), from, to)
	}
	for i := from; i < to; i++ {
		dst = append(dst, math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:])))
	}
	return dst, nil
}
