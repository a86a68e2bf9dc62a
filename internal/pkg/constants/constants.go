package constants

const (
	CookieKeyAuthToken   = "auth_token"
	CookieKeySecretToken = "secret_token"

	CtxKeyCredentials = "credentials"
)

const (
	ViperSecretKey = "auth.secret"
	ViperJWTKey    = "auth.jwt_key"
)
