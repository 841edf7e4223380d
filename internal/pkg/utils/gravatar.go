package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const DefaultAvatarSize = 80

// GravatarURL returns the Gravatar image of an email address. Gravatar
// accepts the SHA-256 of the trimmed, lowercased address.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = DefaultAvatarSize
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(sum[:]), size)
}
