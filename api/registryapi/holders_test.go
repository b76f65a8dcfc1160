package registryapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/storage/model"
)

func TestRegisterHolder(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.app.Test(jsonRequest(t, http.MethodPost, "/holders/", `{"subject":"did:example:alice","display_name":"Alice"}`))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("register returned status %d, want %d", resp.StatusCode, fiber.StatusCreated)
	}
	holder := decodeBody[model.Holder](t, resp)
	if holder.Subject != "did:example:alice" || holder.DisplayName != "Alice" {
		t.Errorf("unexpected holder: %+v", holder)
	}

	resp, err = api.app.Test(jsonRequest(t, http.MethodPost, "/holders/", `{"subject":"did:example:alice"}`))
	if err != nil {
		t.Fatalf("second register request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("second register returned status %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	resp, err = api.app.Test(jsonRequest(t, http.MethodPost, "/holders/", `{"display_name":"nobody"}`))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("register without subject returned status %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}

func TestGetHolder(t *testing.T) {
	api := newTestAPI(t)
	if _, err := api.app.Test(jsonRequest(t, http.MethodPost, "/holders/", `{"subject":"did:example:bob"}`)); err != nil {
		t.Fatalf("register request failed: %v", err)
	}

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/holders/did:example:bob", nil))
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get returned status %d", resp.StatusCode)
	}

	resp, err = api.app.Test(httptest.NewRequest(http.MethodGet, "/holders/did:example:unknown", nil))
	if err != nil {
		t.Fatalf("get unknown request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("get unknown returned status %d, want %d", resp.StatusCode, fiber.StatusNotFound)
	}
}

func TestHolderCredentials(t *testing.T) {
	api := newTestAPI(t)
	for i, sub := range []string{"did:example:alice", "did:example:alice", "did:example:bob"} {
		raw := buildToken(t, map[string]any{"jti": "cred-" + string(rune('a'+i)), "sub": sub})
		body, _ := json.Marshal(apimodel.CredentialSubmission{JWS: raw})
		if _, err := api.app.Test(jsonRequest(t, http.MethodPost, "/credentials/", string(body))); err != nil {
			t.Fatalf("submit request failed: %v", err)
		}
	}

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/holders/did:example:alice/credentials", nil))
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list returned status %d", resp.StatusCode)
	}
	creds := decodeBody[[]model.Credential](t, resp)
	if len(creds) != 2 {
		t.Fatalf("expected 2 credentials for the holder, got %d", len(creds))
	}
	for _, cred := range creds {
		if cred.HolderSubject != "did:example:alice" {
			t.Errorf("credential of wrong holder listed: %+v", cred)
		}
	}
}
