package registryapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/authapi"
	"github.com/vc-anchorage/anchorage/storage/model"
	"github.com/vc-anchorage/anchorage/vault"
)

func jsonBody(v any) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}

// The fakes below are in-memory implementations of the store interfaces the
// handlers are written against, mirroring the transactional semantics of the
// GORM-backed stores.

type fakeCredentials struct {
	creds  map[string]*model.Credential
	scans  []*model.ScanEvent
	nextID uint
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{creds: make(map[string]*model.Credential)}
}

func (f *fakeCredentials) Ingest(cred *model.Credential, scan *model.ScanEvent) (*model.Credential, bool, error) {
	if scan != nil {
		scan.TokenID = cred.TokenID
		f.scans = append(f.scans, scan)
	}
	if existing, ok := f.creds[cred.TokenID]; ok {
		return existing, false, nil
	}
	f.nextID++
	cred.ID = f.nextID
	f.creds[cred.TokenID] = cred
	return cred, true, nil
}

func (f *fakeCredentials) IngestBatch(creds []*model.Credential) (int, int, error) {
	var inserted, skipped int
	for _, cred := range creds {
		if _, ok := f.creds[cred.TokenID]; ok {
			skipped++
			continue
		}
		f.nextID++
		cred.ID = f.nextID
		f.creds[cred.TokenID] = cred
		inserted++
	}
	return inserted, skipped, nil
}

func (f *fakeCredentials) Revoke(tokenID, reason string) (bool, error) {
	cred, ok := f.creds[tokenID]
	if !ok {
		return false, model.NotFoundErrorFmt("credential '%s' not found", tokenID)
	}
	if cred.Status == model.StatusRevoked {
		return true, nil
	}
	now := time.Now().UTC()
	cred.Status = model.StatusRevoked
	cred.RevokedAt = &now
	cred.RevokeReason = reason
	return false, nil
}

func (f *fakeCredentials) Get(tokenID string) (*model.Credential, error) {
	cred, ok := f.creds[tokenID]
	if !ok {
		return nil, model.NotFoundErrorFmt("credential '%s' not found", tokenID)
	}
	return cred, nil
}

func (f *fakeCredentials) ListByHolder(subject string) ([]model.Credential, error) {
	var out []model.Credential
	for _, cred := range f.creds {
		if cred.HolderSubject == subject {
			out = append(out, *cred)
		}
	}
	return out, nil
}

type fakeIssuers struct {
	issuers  map[string]*model.Issuer
	keys     map[string]*model.IssuerKey
	keyOwner map[string]string
	nextID   uint
}

func newFakeIssuers() *fakeIssuers {
	return &fakeIssuers{
		issuers:  make(map[string]*model.Issuer),
		keys:     make(map[string]*model.IssuerKey),
		keyOwner: make(map[string]string),
	}
}

func (f *fakeIssuers) Register(add model.AddIssuer) (*model.Issuer, bool, error) {
	if issuer, ok := f.issuers[add.Identifier]; ok {
		return issuer, false, nil
	}
	f.nextID++
	issuer := &model.Issuer{ID: f.nextID, Identifier: add.Identifier, Name: add.Name}
	f.issuers[add.Identifier] = issuer
	return issuer, true, nil
}

func (f *fakeIssuers) Get(identifier string) (*model.Issuer, error) {
	issuer, ok := f.issuers[identifier]
	if !ok {
		return nil, model.NotFoundErrorFmt("issuer '%s' not found", identifier)
	}
	return issuer, nil
}

func (f *fakeIssuers) List() ([]model.Issuer, error) {
	out := make([]model.Issuer, 0, len(f.issuers))
	for _, issuer := range f.issuers {
		out = append(out, *issuer)
	}
	return out, nil
}

func (f *fakeIssuers) AddKey(add model.AddIssuerKey) (*model.IssuerKey, error) {
	if _, ok := f.issuers[add.Issuer]; !ok {
		return nil, model.NotFoundErrorFmt("issuer '%s' not found", add.Issuer)
	}
	if owner, ok := f.keyOwner[add.KID]; ok {
		return nil, model.DuplicateKeyError{KID: add.KID, Issuer: owner}
	}
	active := true
	if add.IsActive != nil {
		active = *add.IsActive
	}
	f.nextID++
	key := &model.IssuerKey{
		ID:           f.nextID,
		KID:          add.KID,
		Alg:          add.Alg,
		PublicKeyPEM: add.PublicKeyPEM,
		IsActive:     active,
	}
	f.keys[add.KID] = key
	f.keyOwner[add.KID] = add.Issuer
	return key, nil
}

func (f *fakeIssuers) RevokeKey(kid, reason string) (bool, error) {
	key, ok := f.keys[kid]
	if !ok {
		return false, model.NotFoundErrorFmt("issuer key '%s' not found", kid)
	}
	if key.Revoked {
		return true, nil
	}
	now := time.Now().UTC()
	key.Revoked = true
	key.RevokedAt = &now
	key.RevokeReason = reason
	return false, nil
}

func (f *fakeIssuers) RevokedKeyIDs() ([]string, error) {
	var out []string
	for kid, key := range f.keys {
		if key.Revoked {
			out = append(out, kid)
		}
	}
	return out, nil
}

func (f *fakeIssuers) ActiveKeys() ([]model.BundleKey, error) {
	var out []model.BundleKey
	for kid, key := range f.keys {
		if key.IsActive && !key.Revoked {
			out = append(
				out, model.BundleKey{
					Issuer:       f.keyOwner[kid],
					KID:          key.KID,
					Alg:          key.Alg,
					PublicKeyPEM: key.PublicKeyPEM,
				},
			)
		}
	}
	return out, nil
}

type fakeHolders struct {
	holders map[string]*model.Holder
	nextID  uint
}

func newFakeHolders() *fakeHolders {
	return &fakeHolders{holders: make(map[string]*model.Holder)}
}

func (f *fakeHolders) Register(add model.AddHolder) (*model.Holder, bool, error) {
	if holder, ok := f.holders[add.Subject]; ok {
		return holder, false, nil
	}
	f.nextID++
	holder := &model.Holder{ID: f.nextID, Subject: add.Subject, DisplayName: add.DisplayName}
	f.holders[add.Subject] = holder
	return holder, true, nil
}

func (f *fakeHolders) Get(subject string) (*model.Holder, error) {
	holder, ok := f.holders[subject]
	if !ok {
		return nil, model.NotFoundErrorFmt("holder '%s' not found", subject)
	}
	return holder, nil
}

func (f *fakeHolders) List() ([]model.Holder, error) {
	out := make([]model.Holder, 0, len(f.holders))
	for _, holder := range f.holders {
		out = append(out, *holder)
	}
	return out, nil
}

type fakeScans struct {
	events []*model.ScanEvent
}

func (f *fakeScans) Record(scan *model.ScanEvent) error {
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now().UTC()
	}
	f.events = append(f.events, scan)
	return nil
}

func (f *fakeScans) RecordBatch(scans []*model.ScanEvent) error {
	for _, scan := range scans {
		if err := f.Record(scan); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeScans) List() ([]model.ScanEvent, error) {
	out := make([]model.ScanEvent, 0, len(f.events))
	for i := len(f.events) - 1; i >= 0; i-- {
		out = append(out, *f.events[i])
	}
	return out, nil
}

// emptyUsers keeps the auth middleware in its bootstrap-open state so the
// handler tests do not need tokens.
type emptyUsers struct{}

func (emptyUsers) Count() (int64, error)           { return 0, nil }
func (emptyUsers) List() ([]model.User, error)     { return nil, nil }
func (emptyUsers) Get(string) (*model.User, error) { return nil, model.NotFoundError("no users") }
func (emptyUsers) Create(string, string, string) (*model.User, error) {
	return nil, model.NotFoundError("no users")
}
func (emptyUsers) Update(string, *string, *string, *bool) (*model.User, error) {
	return nil, model.NotFoundError("no users")
}
func (emptyUsers) Delete(string) error { return nil }
func (emptyUsers) Authenticate(string, string) (*model.User, error) {
	return nil, model.NotFoundError("no users")
}

type testAPI struct {
	app         *fiber.App
	credentials *fakeCredentials
	issuers     *fakeIssuers
	holders     *fakeHolders
	scans       *fakeScans
	sealer      *vault.Vault
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	key, err := vault.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	sealer, err := vault.NewFromBase64(key)
	if err != nil {
		t.Fatalf("NewFromBase64 failed: %v", err)
	}
	api := &testAPI{
		app:         fiber.New(),
		credentials: newFakeCredentials(),
		issuers:     newFakeIssuers(),
		holders:     newFakeHolders(),
		scans:       &fakeScans{},
		sealer:      sealer,
	}
	Register(
		api.app, model.Backends{
			Credentials: api.credentials,
			Issuers:     api.issuers,
			Holders:     api.holders,
			Scans:       api.scans,
			Users:       emptyUsers{},
		}, sealer, authapi.Conf{Secret: []byte("test-secret")},
	)
	return api
}
