package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// MatchCodeDigits - length of the code a guest types to join.
const MatchCodeDigits = 6

// GenerateMatchCode - generates a short numeric code for the lobby.
func GenerateMatchCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate match code: %w", err)
	}

	return fmt.Sprintf("%0*d", MatchCodeDigits, n.Int64()), nil
}

// GenerateMatchID - unique id of a match, used in logs and lobby entries.
func GenerateMatchID() string {
	return uuid.NewString()
}
