// Package signature implements the canonical-string keyed-hash scheme
// used by the legacy gateway protocol. The counterparty signs
// "k1=v1&k2=v2&..." with HMAC-SHA256 in a field order fixed by the
// protocol; the order is part of the contract and differs between the
// request, IPN and query payloads, so callers pass fields already
// ordered and this package never sorts or URL-encodes them.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type Field struct {
	Key   string
	Value string
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the lowercase hex HMAC-SHA256 digest of the canonical
// string built from fields in the order given.
func (s *Signer) Sign(fields []Field) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(Canonical(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest and compares in constant time. A
// mismatch is a plain false; callers escalate it to an authentication
// error.
func (s *Signer) Verify(claimed string, fields []Field) bool {
	claimedRaw, err := hex.DecodeString(strings.TrimSpace(claimed))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(Canonical(fields)))
	return hmac.Equal(claimedRaw, mac.Sum(nil))
}

// Canonical joins fields as key=value pairs with "&". Values are taken
// literally, including any "&" or "=" they contain, to match the
// counterparty's canonicalization.
func Canonical(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}
