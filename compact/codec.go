// Package compact decodes compact-serialized JWS/JWT credentials without
// verifying their signature. It is a parser, not a verifier; a successful
// parse says nothing about the authenticity of the token.
package compact

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	arrays "github.com/adam-hanna/arrayOperations"
)

// MalformedTokenError is an error signaling that a string is not a decodable
// compact token
type MalformedTokenError string

// Error implements the error interface
func (e MalformedTokenError) Error() string {
	return string(e)
}

// MalformedTokenErrorFmt returns a MalformedTokenError from the passed format string and parameters
func MalformedTokenErrorFmt(format string, params ...any) MalformedTokenError {
	return MalformedTokenError(fmt.Sprintf(format, params...))
}

// Token is a decoded compact token. The signature segment is carried along
// unchecked.
type Token struct {
	raw     string
	header  map[string]any
	payload map[string]any
}

// Parse splits a compact token into its three segments and decodes header and
// payload. It returns a MalformedTokenError when the segment count is not
// three, a segment is not base64url, or a decoded segment is not a JSON
// object.
func Parse(raw string) (*Token, error) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, MalformedTokenErrorFmt("compact token must have 3 segments, got %d", len(segments))
	}
	header, err := decodeSegment(segments[0])
	if err != nil {
		return nil, MalformedTokenErrorFmt("header segment: %s", err.Error())
	}
	payload, err := decodeSegment(segments[1])
	if err != nil {
		return nil, MalformedTokenErrorFmt("payload segment: %s", err.Error())
	}
	return &Token{
		raw:     raw,
		header:  header,
		payload: payload,
	}, nil
}

// decodeSegment base64url-decodes a segment, restoring stripped padding, and
// unmarshals it into a JSON object.
func decodeSegment(segment string) (map[string]any, error) {
	if l := len(segment) % 4; l != 0 {
		segment += strings.Repeat("=", 4-l)
	}
	data, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err = json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Raw returns the compact token string as it was parsed.
func (t *Token) Raw() string {
	return t.raw
}

// Header returns the decoded header.
func (t *Token) Header() map[string]any {
	return t.header
}

// Claims returns the decoded payload.
func (t *Token) Claims() map[string]any {
	return t.payload
}

// Alg returns the alg header, or "" if absent.
func (t *Token) Alg() string {
	return t.headerString("alg")
}

// Issuer returns the iss claim, or "" if absent.
func (t *Token) Issuer() string {
	return t.claimString("iss")
}

// Subject returns the sub claim, or "" if absent.
func (t *Token) Subject() string {
	return t.claimString("sub")
}

// TokenID returns the jti claim, or "" if absent. Parse never invents a token
// id; generating one for tokens without jti is up to the caller.
func (t *Token) TokenID() string {
	return t.claimString("jti")
}

// IssuedAt returns the iat claim as a timestamp if it is numeric, nil
// otherwise.
func (t *Token) IssuedAt() *time.Time {
	return t.claimTime("iat")
}

// NotBefore returns the nbf claim as a timestamp if it is numeric, nil
// otherwise.
func (t *Token) NotBefore() *time.Time {
	return t.claimTime("nbf")
}

// ExpiresAt returns the exp claim as a timestamp if it is numeric, nil
// otherwise.
func (t *Token) ExpiresAt() *time.Time {
	return t.claimTime("exp")
}

// Types returns the vc.type claim normalized to a set of strings. A single
// string becomes a one-element set, a list is deduplicated keeping string
// elements only, and anything else yields nil.
func (t *Token) Types() []string {
	vc, ok := t.payload["vc"].(map[string]any)
	if !ok {
		return nil
	}
	switch typ := vc["type"].(type) {
	case string:
		return []string{typ}
	case []any:
		strs := make([]string, 0, len(typ))
		for _, v := range typ {
			if s, ok := v.(string); ok {
				strs = append(strs, s)
			}
		}
		deduped := arrays.Distinct(strs)
		if deduped == nil {
			deduped = []string{}
		}
		return deduped
	default:
		return nil
	}
}

func (t *Token) headerString(name string) string {
	s, _ := t.header[name].(string)
	return s
}

func (t *Token) claimString(name string) string {
	s, _ := t.payload[name].(string)
	return s
}

// claimTime interprets a claim as POSIX seconds. Non-numeric values are
// ignored, not errors; fractional seconds are truncated.
func (t *Token) claimTime(name string) *time.Time {
	f, ok := t.payload[name].(float64)
	if !ok {
		return nil
	}
	ts := time.Unix(int64(f), 0).UTC()
	return &ts
}
