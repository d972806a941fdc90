package validatorstate

import (
	"encoding/binary"
	"fmt"
)

// encodeBatch frames a list of raw signed-transaction byte slices into a
// single block payload: a uint32 count followed by, for each entry, a
// uint32 length prefix and the bytes themselves.
func encodeBatch(txs [][]byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(txs)))
	for _, tx := range txs {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(tx)))
		out = append(out, lenBuf[:]...)
		out = append(out, tx...)
	}
	return out
}

// decodeBatch reverses encodeBatch.
func decodeBatch(payload []byte) ([][]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("validatorstate: batch payload too short")
	}
	count := binary.BigEndian.Uint32(payload[:4])
	rest := payload[4:]
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < 4 {
			return nil, fmt.Errorf("validatorstate: truncated batch entry %d", i)
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint32(len(rest)) < n {
			return nil, fmt.Errorf("validatorstate: truncated batch entry %d body", i)
		}
		out = append(out, rest[:n])
		rest = rest[n:]
	}
	return out, nil
}
