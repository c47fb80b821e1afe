package station

import (
	"crypto/subtle"

	"github.com/canline/labelstation/internal/types"
)

// SecretMatcher recognizes the operator secret in the trailing keystrokes
// of the whole session: a sliding window the length of the secret, compared
// after every keystroke. The matcher holds the only copy of the secret;
// both activation paths (keystroke sequence and the typed prompt after a
// printer-missing condition) compare against it.
type SecretMatcher struct {
	secret []rune
	window []rune
}

// NewSecretMatcher returns a matcher for the given secret.
func NewSecretMatcher(secret string) *SecretMatcher {
	return &SecretMatcher{secret: []rune(secret)}
}

// Feed appends one keystroke to the window and reports whether the trailing
// keystrokes now spell the secret. The window resets on a match so holding
// a key cannot re-trigger.
func (m *SecretMatcher) Feed(r rune) bool {
	if len(m.secret) == 0 {
		return false
	}
	m.window = append(m.window, r)
	if len(m.window) > len(m.secret) {
		m.window = m.window[len(m.window)-len(m.secret):]
	}
	if len(m.window) < len(m.secret) {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(string(m.window)), []byte(string(m.secret))) == 1 {
		m.window = nil
		return true
	}
	return false
}

// Verify checks a secret typed in full at the emergency prompt.
// Constant-time comparison; the typed value never appears in logs.
func (m *SecretMatcher) Verify(typed string) error {
	if len(m.secret) == 0 {
		return types.ErrBadSecret
	}
	if subtle.ConstantTimeCompare([]byte(typed), []byte(string(m.secret))) != 1 {
		return types.ErrBadSecret
	}
	return nil
}
