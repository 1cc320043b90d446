package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep hashes of different kinds of content apart. The
// version suffix leaves room for changing the encoding.
const (
	DomainSchema  = "cypherql/schema/v1"
	DomainRequest = "cypherql/request/v1"
	DomainCypher  = "cypherql/cypher/v1"
)

// HashBytes computes SHA256(domain + 0x00 + data) as lowercase hex.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash hashes the canonical JSON of v under domain.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashBytes(domain, data), nil
}
