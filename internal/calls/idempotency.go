package calls

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// IdempotencyKey identifies a turn for replay. The stable part is the
// provider's utterance id when present, else a hash of the utterance.
// Identical retries map to the same key; a different utterance at the same
// turn number does not.
func IdempotencyKey(turn int, src Source, sourceID, utterance string) string {
	stable := strings.TrimSpace(sourceID)
	if stable == "" {
		if u := strings.TrimSpace(utterance); u != "" {
			sum := sha256.Sum256([]byte(u))
			stable = hex.EncodeToString(sum[:])
		}
	}
	if stable == "" {
		stable = "empty"
	}
	if src == "" {
		src = SourceLive
	}
	return fmt.Sprintf("turn:%d:%s:%s", turn, src, stable)
}
