package payload

import (
	"encoding/binary"
)

const (
	LegacyLength = 24

	legacyMagic uint64 = 0x2ab06b49d43ebd3b
)

// Interleaves magic, pot id and user id byte by byte: magic[0], pot[0], user[0], magic[1], ...
// All numbers are big-endian.
func EncodeLegacy(potId, userId int64) []byte {
	var magic, pot, user [8]byte
	binary.BigEndian.PutUint64(magic[:], legacyMagic)
	binary.BigEndian.PutUint64(pot[:], uint64(potId))
	binary.BigEndian.PutUint64(user[:], uint64(userId))

	out := make([]byte, LegacyLength)
	for i := 0; i < 8; i++ {
		out[3*i] = magic[i]
		out[3*i+1] = pot[i]
		out[3*i+2] = user[i]
	}
	return out
}

func DecodeLegacy(buf []byte) (potId, userId int64, ok bool) {
	if len(buf) != LegacyLength {
		return
	}

	var magic, pot, user [8]byte
	for i := 0; i < 8; i++ {
		magic[i] = buf[3*i]
		pot[i] = buf[3*i+1]
		user[i] = buf[3*i+2]
	}

	if binary.BigEndian.Uint64(magic[:]) != legacyMagic {
		return
	}

	return int64(binary.BigEndian.Uint64(pot[:])), int64(binary.BigEndian.Uint64(user[:])), true
}
