package anchorage

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	log "github.com/sirupsen/logrus"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/internal"
	"github.com/vc-anchorage/anchorage/internal/cache"
	"github.com/vc-anchorage/anchorage/storage/model"
)

const artifactCachePeriod = 5 * time.Second

const contentTypeJWKSet = "application/jwk-set+json"

// BuildTrustBundle assembles the trust bundle from the active, non-revoked
// issuer keys. The version is the number of entries, so consumers can detect
// changes without diffing the key material.
func BuildTrustBundle(issuers model.IssuerStore) (*apimodel.TrustBundle, error) {
	keys, err := issuers.ActiveKeys()
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []model.BundleKey{}
	}
	return &apimodel.TrustBundle{
		Version:  len(keys),
		IssuedAt: time.Now().UTC(),
		Issuers:  keys,
	}, nil
}

// BuildRevocationList assembles the public revocation list artifact.
func BuildRevocationList(revocations model.RevocationStore) (*apimodel.RevocationList, error) {
	ids, err := revocations.TokenIDs()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return &apimodel.RevocationList{
		Version:   len(ids),
		IssuedAt:  time.Now().UTC(),
		RevokedID: ids,
	}, nil
}

// BuildTrustBundleJWKS renders the trust bundle as a JWK Set. Keys whose PEM
// cannot be parsed are skipped with a warning instead of failing the whole
// document.
func BuildTrustBundleJWKS(issuers model.IssuerStore) ([]byte, error) {
	keys, err := issuers.ActiveKeys()
	if err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	for _, k := range keys {
		key, err := jwk.ParseKey([]byte(k.PublicKeyPEM), jwk.WithPEM(true))
		if err != nil {
			log.WithError(err).WithField("kid", k.KID).Warn("skipping unparsable issuer key in jwks")
			continue
		}
		if err = key.Set(jwk.KeyIDKey, k.KID); err != nil {
			return nil, err
		}
		if alg, ok := jwa.LookupSignatureAlgorithm(k.Alg); ok {
			if err = key.Set(jwk.AlgorithmKey, alg); err != nil {
				return nil, err
			}
		}
		if err = set.AddKey(key); err != nil {
			return nil, err
		}
	}
	return json.Marshal(set)
}

// addTrustBundleEndpoint adds the public trust bundle endpoints
func (reg *Anchorage) addTrustBundleEndpoint() {
	reg.server.Get(
		"/trust-bundle", func(ctx *fiber.Ctx) error {
			var cached apimodel.TrustBundle
			set, err := cache.Get(internal.CacheKeyTrustBundle, &cached)
			if err != nil {
				ctx.Status(fiber.StatusInternalServerError)
				return ctx.JSON(apimodel.ErrorServerError(err.Error()))
			}
			if set {
				return ctx.JSON(cached)
			}
			bundle, err := BuildTrustBundle(reg.storages.Issuers)
			if err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if err = cache.Set(internal.CacheKeyTrustBundle, bundle, artifactCachePeriod); err != nil {
				log.Println(err.Error())
			}
			return ctx.JSON(bundle)
		},
	)
	reg.server.Get(
		"/trust-bundle/jwks", func(ctx *fiber.Ctx) error {
			var cached []byte
			set, err := cache.Get(internal.CacheKeyTrustBundleJWK, &cached)
			if err != nil {
				ctx.Status(fiber.StatusInternalServerError)
				return ctx.JSON(apimodel.ErrorServerError(err.Error()))
			}
			if set {
				ctx.Set(fiber.HeaderContentType, contentTypeJWKSet)
				return ctx.Send(cached)
			}
			jwks, err := BuildTrustBundleJWKS(reg.storages.Issuers)
			if err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if err = cache.Set(internal.CacheKeyTrustBundleJWK, jwks, artifactCachePeriod); err != nil {
				log.Println(err.Error())
			}
			ctx.Set(fiber.HeaderContentType, contentTypeJWKSet)
			return ctx.Send(jwks)
		},
	)
}

// addRevocationListEndpoint adds the public revocation list endpoint
func (reg *Anchorage) addRevocationListEndpoint() {
	reg.server.Get(
		"/revocations", func(ctx *fiber.Ctx) error {
			var cached apimodel.RevocationList
			set, err := cache.Get(internal.CacheKeyRevocationList, &cached)
			if err != nil {
				ctx.Status(fiber.StatusInternalServerError)
				return ctx.JSON(apimodel.ErrorServerError(err.Error()))
			}
			if set {
				return ctx.JSON(cached)
			}
			list, err := BuildRevocationList(reg.storages.Revocations)
			if err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if err = cache.Set(internal.CacheKeyRevocationList, list, artifactCachePeriod); err != nil {
				log.Println(err.Error())
			}
			return ctx.JSON(list)
		},
	)
}
