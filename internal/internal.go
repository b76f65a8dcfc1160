package internal

// Cache key prefixes used for server side caching of generated artifacts.
const (
	CacheKeyTrustBundle    = "trustbundle"
	CacheKeyTrustBundleJWK = "trustbundle:jwks"
	CacheKeyRevocationList = "revocations"
)
