package registryapi

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/fatih/structs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/compact"
	"github.com/vc-anchorage/anchorage/internal/geoip"
	"github.com/vc-anchorage/anchorage/storage/model"
	"github.com/vc-anchorage/anchorage/vault"
)

// registerCredentials wires handlers using the CredentialStore abstraction.
func registerCredentials(r fiber.Router, credentials model.CredentialStore, sealer *vault.Vault) {
	g := r.Group("/credentials")

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req apimodel.CredentialSubmission
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			cred, err := credentialFromSubmission(req, sealer)
			if err != nil {
				var malformedTokenError compact.MalformedTokenError
				if errors.As(err, &malformedTokenError) {
					return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorMalformedToken(malformedTokenError.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			scan := &model.ScanEvent{
				Verified: true,
				Location: geoip.Lookup(c.IP()),
			}
			stored, created, err := credentials.Ingest(cred, scan)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if created {
				return c.Status(fiber.StatusCreated).JSON(stored)
			}
			return c.JSON(stored)
		},
	)

	g.Post(
		"/batch", func(c *fiber.Ctx) error {
			var req apimodel.CredentialBatch
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			creds := make([]*model.Credential, 0, len(req.Credentials))
			for _, sub := range req.Credentials {
				cred, err := credentialFromSubmission(sub, sealer)
				if err != nil {
					log.WithFields(log.Fields(structs.Map(sub))).WithError(err).
						Warn("skipping invalid credential batch item")
					continue
				}
				creds = append(creds, cred)
			}
			inserted, skipped, err := credentials.IngestBatch(creds)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(
				apimodel.BatchReport{
					Uploaded: inserted,
					Skipped:  skipped,
					Total:    len(req.Credentials),
				},
			)
		},
	)

	g.Get(
		"/:tokenID", func(c *fiber.Ctx) error {
			cred, err := credentials.Get(c.Params("tokenID"))
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound("credential not found"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if !c.QueryBool("raw") {
				return c.JSON(cred)
			}
			raw, err := sealer.Decrypt(cred.EncryptedPayload)
			if err != nil {
				log.WithError(err).WithField("jti", cred.TokenID).Error("could not unseal stored credential")
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError("could not unseal stored credential"))
			}
			return c.JSON(
				struct {
					*model.Credential
					JWS string `json:"jws"`
				}{
					Credential: cred,
					JWS:        raw,
				},
			)
		},
	)

	g.Post(
		"/:tokenID/revoke", revocationListCacheInvalidationMiddleware, func(c *fiber.Ctx) error {
			var req apimodel.RevokeRequest
			if len(c.Body()) > 0 {
				if err := c.BodyParser(&req); err != nil {
					return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
				}
			}
			already, err := credentials.Revoke(c.Params("tokenID"), req.Reason)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound("credential not found"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(
				apimodel.RevokeResponse{
					OK:      true,
					Already: already,
				},
			)
		},
	)
}

// credentialFromSubmission parses the submitted compact token and assembles
// the credential record. Explicit submission fields take precedence over the
// corresponding token claims; a missing token id is generated.
func credentialFromSubmission(sub apimodel.CredentialSubmission, sealer *vault.Vault) (*model.Credential, error) {
	raw := strings.TrimSpace(sub.JWS)
	if raw == "" {
		return nil, compact.MalformedTokenError("jws is required")
	}
	tok, err := compact.Parse(raw)
	if err != nil {
		return nil, err
	}
	tokenID := sub.TokenID
	if tokenID == "" {
		tokenID = tok.TokenID()
	}
	if tokenID == "" {
		tokenID = uuid.NewString()
	}
	format := sub.Format
	if format == "" {
		format = model.FormatJWS
	}
	issuerID := sub.IssuerID
	if issuerID == "" {
		issuerID = tok.Issuer()
	}
	holderSubject := sub.HolderSubject
	if holderSubject == "" {
		holderSubject = tok.Subject()
	}
	var types datatypes.JSON
	if parsed := tok.Types(); parsed != nil {
		data, err := json.Marshal(parsed)
		if err != nil {
			return nil, err
		}
		types = data
	}
	encrypted, err := sealer.Encrypt(raw)
	if err != nil {
		return nil, err
	}
	return &model.Credential{
		TokenID:          tokenID,
		Format:           format,
		IssuerID:         issuerID,
		HolderSubject:    holderSubject,
		Types:            types,
		IssuedAt:         tok.IssuedAt(),
		NotBefore:        tok.NotBefore(),
		ExpiresAt:        tok.ExpiresAt(),
		Status:           model.StatusActive,
		EncryptedPayload: encrypted,
		Fingerprint:      vault.Fingerprint(raw),
	}, nil
}
