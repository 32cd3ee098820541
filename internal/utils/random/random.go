package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// String returns a cryptographically random string of length n drawn
// uniformly from alphabet.
func String(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
