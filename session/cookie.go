package session

import (
	"time"

	"github.com/gorilla/securecookie"
)

// signer encodes the session ID into a signed cookie value.
// The first secret signs; every secret verifies, so secrets can be rotated.
type signer struct {
	name   string
	codecs []securecookie.Codec
}

func newSigner(name, secret string, previous []string, maxAge time.Duration) *signer {
	pairs := [][]byte{[]byte(secret), nil}
	for _, p := range previous {
		if p != "" {
			pairs = append(pairs, []byte(p), nil)
		}
	}

	codecs := securecookie.CodecsFromPairs(pairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(int(maxAge.Seconds()))
			sc.SetSerializer(securecookie.JSONEncoder{})
		}
	}
	return &signer{name: name, codecs: codecs}
}

func (s *signer) sign(id string) (string, error) {
	return securecookie.EncodeMulti(s.name, id, s.codecs...)
}

// verify returns the session ID carried by a signed value
func (s *signer) verify(value string) (string, bool) {
	var id string
	if err := securecookie.DecodeMulti(s.name, value, &id, s.codecs...); err != nil || id == "" {
		return "", false
	}
	return id, true
}
