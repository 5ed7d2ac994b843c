package storage

// Keys written to the KeyValueStore.
const (
	KeyCredentials   = "credentials"
	KeySchemaVersion = "schema_version"

	KeyClientID     = "clientId"
	KeyClientSecret = "clientSecret"
	KeyRedirectURI  = "redirectURI"
	KeyUserAgent    = "userAgent"
	KeyOAuthState   = "oauthState"
	KeyRefreshToken = "refreshToken"
	KeyAccessToken  = "accessToken"

	// keyLegacyJWT held the single session token before multi-account support.
	keyLegacyJWT = "jwt"
)
