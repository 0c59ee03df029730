package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// shortHashLen is the number of hex digits shown for a network hash.
const shortHashLen = 12

// hashKey returns "<kind>:<sha256>" over the key version, the network hash and
// the options that change the cached bytes.
func hashKey(kind, networkHash string, opts any) string {
	data, _ := json.Marshal([]any{keyVersion, networkHash, opts})
	hash := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(hash[:])
}

// Hash returns the hex SHA-256 of data. Network hashes are computed over the
// canonical network JSON with it.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LabelledHash folds an encoded voltage table into a network hash. Diagrams
// labelled with voltages are cached under it, apart from the plain diagram
// and from diagrams labelled by a different estimate.
func LabelledHash(networkHash string, table []byte) string {
	h := sha256.New()
	h.Write([]byte(networkHash))
	h.Write([]byte{0})
	h.Write(table)
	return hex.EncodeToString(h.Sum(nil))
}

// ShortHash abbreviates a network hash for display.
func ShortHash(hash string) string {
	if len(hash) <= shortHashLen {
		return hash
	}
	return hash[:shortHashLen]
}
