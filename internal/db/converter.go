package db

import (
	"encoding/binary"
	"math"
)

// Float64SliceToBytes converts []float64 to little-endian IEEE 754 bytes
func Float64SliceToBytes(data []float64) []byte {
	buf := make([]byte, len(data)*8)
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// BytesToFloat64Slice converts bytes written by Float64SliceToBytes back to []float64
func BytesToFloat64Slice(data []byte) []float64 {
	result := make([]float64, len(data)/8)
	for i := range result {
		result[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return result
}
