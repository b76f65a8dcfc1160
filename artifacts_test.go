package anchorage

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/internal"
	"github.com/vc-anchorage/anchorage/internal/cache"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// staticIssuers serves a fixed set of bundle keys; only ActiveKeys is used
// by the artifact builders.
type staticIssuers struct {
	keys []model.BundleKey
}

func (s *staticIssuers) Register(model.AddIssuer) (*model.Issuer, bool, error) { return nil, false, nil }
func (s *staticIssuers) Get(string) (*model.Issuer, error)                     { return nil, nil }
func (s *staticIssuers) List() ([]model.Issuer, error)                         { return nil, nil }
func (s *staticIssuers) AddKey(model.AddIssuerKey) (*model.IssuerKey, error)   { return nil, nil }
func (s *staticIssuers) RevokeKey(string, string) (bool, error)                { return false, nil }
func (s *staticIssuers) RevokedKeyIDs() ([]string, error)                      { return nil, nil }
func (s *staticIssuers) ActiveKeys() ([]model.BundleKey, error)                { return s.keys, nil }

type staticRevocations struct {
	ids []string
}

func (s *staticRevocations) TokenIDs() ([]string, error) { return s.ids, nil }
func (s *staticRevocations) List() ([]model.RevocationEntry, error) {
	return nil, nil
}

func testKeyPEM(t *testing.T) string {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("could not generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("could not marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func TestBuildTrustBundle(t *testing.T) {
	issuers := &staticIssuers{
		keys: []model.BundleKey{
			{Issuer: "did:example:a", KID: "kid-1", Alg: "ES256", PublicKeyPEM: "pem-1"},
			{Issuer: "did:example:b", KID: "kid-2", Alg: "RS256", PublicKeyPEM: "pem-2"},
		},
	}
	bundle, err := BuildTrustBundle(issuers)
	if err != nil {
		t.Fatalf("BuildTrustBundle failed: %v", err)
	}
	if bundle.Version != 2 {
		t.Errorf("Version = %d, want the number of keys", bundle.Version)
	}
	if len(bundle.Issuers) != 2 || bundle.Issuers[0].KID != "kid-1" {
		t.Errorf("unexpected bundle keys: %+v", bundle.Issuers)
	}
	if time.Since(bundle.IssuedAt) > time.Minute {
		t.Errorf("IssuedAt = %v, want now", bundle.IssuedAt)
	}
}

func TestBuildTrustBundleEmpty(t *testing.T) {
	bundle, err := BuildTrustBundle(&staticIssuers{})
	if err != nil {
		t.Fatalf("BuildTrustBundle failed: %v", err)
	}
	if bundle.Version != 0 {
		t.Errorf("Version = %d, want 0", bundle.Version)
	}
	if bundle.Issuers == nil {
		t.Error("Issuers must be an empty list, not null")
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("could not marshal bundle: %v", err)
	}
	var decoded map[string]any
	if err = json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal bundle: %v", err)
	}
	if decoded["issuers"] == nil {
		t.Error("issuers must serialize as [], not null")
	}
}

func TestBuildRevocationList(t *testing.T) {
	list, err := BuildRevocationList(&staticRevocations{ids: []string{"tok-1", "tok-2"}})
	if err != nil {
		t.Fatalf("BuildRevocationList failed: %v", err)
	}
	if list.Version != 2 || len(list.RevokedID) != 2 {
		t.Errorf("unexpected revocation list: %+v", list)
	}

	empty, err := BuildRevocationList(&staticRevocations{})
	if err != nil {
		t.Fatalf("BuildRevocationList failed: %v", err)
	}
	if empty.Version != 0 || empty.RevokedID == nil {
		t.Errorf("empty list must have version 0 and a non-null id list: %+v", empty)
	}
}

func TestBuildTrustBundleJWKS(t *testing.T) {
	issuers := &staticIssuers{
		keys: []model.BundleKey{
			{Issuer: "did:example:a", KID: "kid-ec", Alg: "ES256", PublicKeyPEM: testKeyPEM(t)},
			{Issuer: "did:example:b", KID: "kid-bad", Alg: "ES256", PublicKeyPEM: "not pem at all"},
		},
	}
	data, err := BuildTrustBundleJWKS(issuers)
	if err != nil {
		t.Fatalf("BuildTrustBundleJWKS failed: %v", err)
	}
	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	if err = json.Unmarshal(data, &set); err != nil {
		t.Fatalf("jwks is not valid json: %v", err)
	}
	if len(set.Keys) != 1 {
		t.Fatalf("expected 1 key in the set, the unparsable one skipped, got %d", len(set.Keys))
	}
	if set.Keys[0]["kid"] != "kid-ec" {
		t.Errorf("kid = %v, want kid-ec", set.Keys[0]["kid"])
	}
	if set.Keys[0]["alg"] != "ES256" {
		t.Errorf("alg = %v, want ES256", set.Keys[0]["alg"])
	}
	if set.Keys[0]["kty"] != "EC" {
		t.Errorf("kty = %v, want EC", set.Keys[0]["kty"])
	}
}

func newArtifactTestServer(issuers model.IssuerStore, revocations model.RevocationStore) *Anchorage {
	reg := &Anchorage{
		server: fiber.New(),
		storages: model.Backends{
			Issuers:     issuers,
			Revocations: revocations,
		},
	}
	reg.addHealthEndpoint()
	reg.addTrustBundleEndpoint()
	reg.addRevocationListEndpoint()
	return reg
}

func TestHealthEndpoint(t *testing.T) {
	reg := newArtifactTestServer(&staticIssuers{}, &staticRevocations{})
	resp, err := reg.server.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("health returned status %d", resp.StatusCode)
	}
	var body map[string]any
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("could not decode health response: %v", err)
	}
	if body["ok"] != true {
		t.Errorf("ok = %v, want true", body["ok"])
	}
	if body["version"] == "" {
		t.Error("version missing from health response")
	}
}

func TestTrustBundleEndpointCaches(t *testing.T) {
	if err := cache.Clear(""); err != nil {
		t.Fatalf("could not clear cache: %v", err)
	}
	issuers := &staticIssuers{
		keys: []model.BundleKey{{Issuer: "did:example:a", KID: "kid-1", Alg: "ES256"}},
	}
	reg := newArtifactTestServer(issuers, &staticRevocations{})

	get := func() apimodel.TrustBundle {
		t.Helper()
		resp, err := reg.server.Test(httptest.NewRequest(http.MethodGet, "/trust-bundle", nil))
		if err != nil {
			t.Fatalf("trust bundle request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("trust bundle returned status %d", resp.StatusCode)
		}
		var bundle apimodel.TrustBundle
		if err = json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
			t.Fatalf("could not decode trust bundle: %v", err)
		}
		return bundle
	}

	if bundle := get(); bundle.Version != 1 {
		t.Errorf("Version = %d, want 1", bundle.Version)
	}

	// The snapshot is cached, so a new key does not show up until the cache
	// entry is dropped, as the key endpoints do after modifications.
	issuers.keys = append(issuers.keys, model.BundleKey{Issuer: "did:example:b", KID: "kid-2", Alg: "ES256"})
	if bundle := get(); bundle.Version != 1 {
		t.Errorf("cached Version = %d, want still 1", bundle.Version)
	}
	if err := cache.Delete(internal.CacheKeyTrustBundle); err != nil {
		t.Fatalf("could not drop cache entry: %v", err)
	}
	if bundle := get(); bundle.Version != 2 {
		t.Errorf("Version after invalidation = %d, want 2", bundle.Version)
	}
}

func TestTrustBundleJWKSEndpoint(t *testing.T) {
	if err := cache.Clear(""); err != nil {
		t.Fatalf("could not clear cache: %v", err)
	}
	issuers := &staticIssuers{
		keys: []model.BundleKey{{Issuer: "did:example:a", KID: "kid-ec", Alg: "ES256", PublicKeyPEM: testKeyPEM(t)}},
	}
	reg := newArtifactTestServer(issuers, &staticRevocations{})

	resp, err := reg.server.Test(httptest.NewRequest(http.MethodGet, "/trust-bundle/jwks", nil))
	if err != nil {
		t.Fatalf("jwks request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("jwks returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != contentTypeJWKSet {
		t.Errorf("Content-Type = %q, want %q", ct, contentTypeJWKSet)
	}
	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&set); err != nil {
		t.Fatalf("jwks is not valid json: %v", err)
	}
	if len(set.Keys) != 1 {
		t.Errorf("expected 1 key in the set, got %d", len(set.Keys))
	}

	// Cached responses keep the content type.
	resp, err = reg.server.Test(httptest.NewRequest(http.MethodGet, "/trust-bundle/jwks", nil))
	if err != nil {
		t.Fatalf("second jwks request failed: %v", err)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != contentTypeJWKSet {
		t.Errorf("cached Content-Type = %q, want %q", ct, contentTypeJWKSet)
	}
}

func TestRevocationListEndpoint(t *testing.T) {
	if err := cache.Clear(""); err != nil {
		t.Fatalf("could not clear cache: %v", err)
	}
	reg := newArtifactTestServer(&staticIssuers{}, &staticRevocations{ids: []string{"tok-1"}})

	resp, err := reg.server.Test(httptest.NewRequest(http.MethodGet, "/revocations", nil))
	if err != nil {
		t.Fatalf("revocations request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("revocations returned status %d", resp.StatusCode)
	}
	var list apimodel.RevocationList
	if err = json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("could not decode revocation list: %v", err)
	}
	if list.Version != 1 || len(list.RevokedID) != 1 || list.RevokedID[0] != "tok-1" {
		t.Errorf("unexpected revocation list: %+v", list)
	}
}
