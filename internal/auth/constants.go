package auth

const (
	ContextKeyIdentity = "identity"
	ContextKeyUser     = "user"
	ContextKeyAuthType = "auth_type"

	headerWWWAuthenticate = "WWW-Authenticate"
	challengeFmt          = `Basic realm="%s"`

	basicScheme     = "basic"
	bearerScheme    = "bearer"
	authHeaderParts = 2

	tokenIssuer = "user-service"
)

const (
	msgInvalidCredentials      = "invalid credentials"
	msgAuthenticationRequired  = "authentication required"
	msgAccessDenied            = "access denied"
	msgUnsupportedScheme       = "unsupported authorization scheme"
	msgInvalidOrExpiredToken   = "invalid or expired token"
	msgUserNotAuthenticated    = "user not authenticated"
	msgInvalidUserCtx          = "invalid user in context"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
	msgSignTokenFailed         = "failed to sign token: %w"
	msgPasswordEmpty           = "password cannot be empty"
	msgHashPasswordFmt         = "failed to hash password: %w"
	msgBcryptCostRangeFmt      = "bcrypt cost %d out of range [%d, %d]"
	msgDummyHashFmt            = "failed to prepare dummy hash: %w"
)

type AuthType string

const (
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
)
