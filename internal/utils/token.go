package utils // package utils provides helpers for random tokens, codes and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for session tokens
    "encoding/hex"  // hex encoding
    "fmt"
    "math/big"
)

// SessionTokenBytes is the amount of entropy in a session cookie value.
const SessionTokenBytes = 32

// NewSessionToken returns a random token for the session cookie.  Only its
// hash (see HashToken) is stored server side.
func NewSessionToken() (string, error) {
    return RandomHex(SessionTokenBytes)
}

// HashToken returns the SHA‑256 hash of a raw token as a hex string.
// Storing only the hash prevents attackers from turning a stolen database
// dump into working cookies.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// NewResetCode returns a six digit numeric code in [100000, 999999].
func NewResetCode() (string, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(900000))
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RandomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func RandomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
