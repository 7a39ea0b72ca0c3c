package typetree

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3 digest of the normalized canonical form of
// a tree, hex encoded. Two schemas have the same fingerprint exactly when
// they normalize to the same tree.
func Fingerprint(n Node) string {
	sum := blake3.Sum256([]byte(Normalize(n).Key()))
	return hex.EncodeToString(sum[:])
}
