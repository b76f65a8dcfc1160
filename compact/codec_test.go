package compact

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"
)

func buildToken(t *testing.T, header, payload any) string {
	t.Helper()
	h, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	p, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(h) + "." +
		base64.RawURLEncoding.EncodeToString(p) + ".c2ln"
}

func TestParse(t *testing.T) {
	raw := buildToken(
		t,
		map[string]any{"alg": "ES256", "typ": "JWT"},
		map[string]any{
			"iss": "did:issuer:1",
			"sub": "did:holder:9",
			"jti": "abc",
			"iat": 1700000000,
			"nbf": 1700000000,
			"exp": 1800000000,
			"vc":  map[string]any{"type": "Diploma"},
		},
	)
	tok, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tok.Raw() != raw {
		t.Errorf("Raw() = %q, want the input", tok.Raw())
	}
	if tok.Alg() != "ES256" {
		t.Errorf("Alg() = %q, want ES256", tok.Alg())
	}
	if tok.Issuer() != "did:issuer:1" {
		t.Errorf("Issuer() = %q", tok.Issuer())
	}
	if tok.Subject() != "did:holder:9" {
		t.Errorf("Subject() = %q", tok.Subject())
	}
	if tok.TokenID() != "abc" {
		t.Errorf("TokenID() = %q", tok.TokenID())
	}
	if got := tok.IssuedAt(); got == nil || !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("IssuedAt() = %v", got)
	}
	if got := tok.ExpiresAt(); got == nil || !got.Equal(time.Unix(1800000000, 0)) {
		t.Errorf("ExpiresAt() = %v", got)
	}
	if got := tok.Types(); len(got) != 1 || got[0] != "Diploma" {
		t.Errorf("Types() = %v, want [Diploma]", got)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"four segments", "not.a.valid.jwt"},
		{"two segments", "only.two"},
		{"empty", ""},
		{"bad base64 header", "!!!." + base64.RawURLEncoding.EncodeToString([]byte("{}")) + ".c2ln"},
		{"bad base64 payload", base64.RawURLEncoding.EncodeToString([]byte("{}")) + ".!!!.c2ln"},
		{
			"header not json",
			base64.RawURLEncoding.EncodeToString([]byte("hi")) + "." +
				base64.RawURLEncoding.EncodeToString([]byte("{}")) + ".c2ln",
		},
		{
			"payload not an object",
			base64.RawURLEncoding.EncodeToString([]byte("{}")) + "." +
				base64.RawURLEncoding.EncodeToString([]byte("42")) + ".c2ln",
		},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				_, err := Parse(test.raw)
				if err == nil {
					t.Fatal("expected error")
				}
				var malformed MalformedTokenError
				if !errors.As(err, &malformed) {
					t.Errorf("expected MalformedTokenError, got %T: %v", err, err)
				}
			},
		)
	}
}

func TestParsePadding(t *testing.T) {
	// "{}" encodes to a segment that needs two padding characters
	stripped := base64.RawURLEncoding.EncodeToString([]byte("{}"))
	padded := base64.URLEncoding.EncodeToString([]byte("{}"))
	if _, err := Parse(stripped + "." + stripped + ".c2ln"); err != nil {
		t.Errorf("stripped padding: %v", err)
	}
	if _, err := Parse(padded + "." + padded + ".c2ln"); err != nil {
		t.Errorf("kept padding: %v", err)
	}
}

func TestClaimTimes(t *testing.T) {
	tok, err := Parse(
		buildToken(
			t,
			map[string]any{"alg": "none"},
			map[string]any{
				"iat": "yesterday",
				"nbf": true,
				"exp": 1800000000.9,
			},
		),
	)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := tok.IssuedAt(); got != nil {
		t.Errorf("non-numeric iat should be ignored, got %v", got)
	}
	if got := tok.NotBefore(); got != nil {
		t.Errorf("non-numeric nbf should be ignored, got %v", got)
	}
	if got := tok.ExpiresAt(); got == nil || !got.Equal(time.Unix(1800000000, 0)) {
		t.Errorf("fractional exp should truncate, got %v", got)
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    []string
	}{
		{"no vc", map[string]any{"iss": "x"}, nil},
		{"vc not an object", map[string]any{"vc": "x"}, nil},
		{"no type", map[string]any{"vc": map[string]any{}}, nil},
		{"type number", map[string]any{"vc": map[string]any{"type": 7}}, nil},
		{"single string", map[string]any{"vc": map[string]any{"type": "Diploma"}}, []string{"Diploma"}},
		{
			"list", map[string]any{"vc": map[string]any{"type": []any{"VerifiableCredential", "Diploma"}}},
			[]string{"Diploma", "VerifiableCredential"},
		},
		{
			"list with duplicates and non-strings",
			map[string]any{"vc": map[string]any{"type": []any{"Diploma", 7, "Diploma", nil}}},
			[]string{"Diploma"},
		},
		{"empty list", map[string]any{"vc": map[string]any{"type": []any{}}}, []string{}},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				tok, err := Parse(buildToken(t, map[string]any{"alg": "none"}, test.payload))
				if err != nil {
					t.Fatalf("Parse failed: %v", err)
				}
				got := tok.Types()
				if test.want == nil {
					if got != nil {
						t.Fatalf("Types() = %v, want nil", got)
					}
					return
				}
				if got == nil {
					t.Fatalf("Types() = nil, want %v", test.want)
				}
				sort.Strings(got)
				if len(got) != len(test.want) {
					t.Fatalf("Types() = %v, want %v", got, test.want)
				}
				for i := range got {
					if got[i] != test.want[i] {
						t.Fatalf("Types() = %v, want %v", got, test.want)
					}
				}
			},
		)
	}
}
