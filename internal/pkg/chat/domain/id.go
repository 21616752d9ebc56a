package chat

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Canonical ids are 24 lowercase hex characters: a 4-byte unix timestamp
// followed by 8 random bytes. The legacy store used the same shape, so ids
// remain sortable by creation time.
const canonicalIDLen = 24

// LocalIDPrefix namespaces provisional ids minted for optimistic appends.
// The prefix keeps the two id spaces disjoint by construction: a local id can
// never pass IsCanonicalID and therefore never collides with a server id.
const LocalIDPrefix = "local-"

// NewID mints a canonical conversation/message id.
func NewID() string {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	_, _ = rand.Read(raw[4:])
	return hex.EncodeToString(raw[:])
}

// NewLocalID mints a provisional id for an optimistic append.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsCanonicalID reports whether ref has the canonical id shape. Callers use
// this to tell a conversation id apart from a counterpart account id without
// a store round-trip.
func IsCanonicalID(ref string) bool {
	if len(ref) != canonicalIDLen {
		return false
	}
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsLocalID reports whether id was minted by NewLocalID.
func IsLocalID(id string) bool {
	return len(id) > len(LocalIDPrefix) && id[:len(LocalIDPrefix)] == LocalIDPrefix
}
