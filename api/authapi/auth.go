package authapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// Conf configures token based authentication
type Conf struct {
	// Secret is the HS256 signing key for access tokens
	Secret []byte
	// TokenLifetime is how long issued access tokens are valid; defaults to
	// 30 minutes
	TokenLifetime time.Duration
}

const defaultTokenLifetime = 30 * time.Minute

const localsUsername = "auth_username"

// Username returns the username of the authenticated user for this request,
// or the empty string if the request is not authenticated
func Username(c *fiber.Ctx) string {
	if username, ok := c.Locals(localsUsername).(string); ok {
		return username
	}
	return ""
}

func issueToken(user *model.User, conf Conf) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(user.Username).
		IssuedAt(now).
		Expiration(now.Add(conf.TokenLifetime)).
		Claim("user_type", user.Type).
		Build()
	if err != nil {
		return "", errors.Wrap(err, "could not build access token")
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), conf.Secret))
	if err != nil {
		return "", errors.Wrap(err, "could not sign access token")
	}
	return string(signed), nil
}

func parseToken(raw string, conf Conf) (username string, err error) {
	tok, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), conf.Secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return "", err
	}
	sub, ok := tok.Subject()
	if !ok || sub == "" {
		return "", errors.New("access token has no subject")
	}
	return sub, nil
}

func parseBearerToken(c *fiber.Ctx) (string, bool) {
	auth := string(c.Request().Header.Peek(fiber.HeaderAuthorization))
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}

// BearerAuth enforces bearer token authentication.
// If there are no users in storage, all requests are allowed so that a first
// user can be registered.
// If there is at least one user, a valid access token obtained from
// /auth/token is required.
func BearerAuth(users model.UsersStore, conf Conf) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// If no users are configured, allow access
		count, err := users.Count()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
		}
		if count == 0 {
			return c.Next()
		}

		raw, ok := parseBearerToken(c)
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(apimodel.ErrorUnauthorized("missing credentials"))
		}
		username, err := parseToken(raw, conf)
		if err != nil {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(apimodel.ErrorUnauthorized("could not validate credentials"))
		}
		user, err := users.Get(username)
		if err != nil || user.Disabled {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(apimodel.ErrorUnauthorized("could not validate credentials"))
		}
		c.Locals(localsUsername, user.Username)
		return c.Next()
	}
}
