package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose tags every token this service issues. Consumers must check
// the purpose, not just the signature: a setup token presented where a
// partial-login token is expected is rejected with ErrTokenPurpose rather
// than accepted as "valid JWT".
type TokenPurpose string

const (
	PurposeAccess    TokenPurpose = "access"
	PurposeRefresh   TokenPurpose = "refresh"
	PurposeSetup2FA  TokenPurpose = "setup_2fa"
	PurposeVerify2FA TokenPurpose = "verify_2fa"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenPurpose = errors.New("invalid token purpose")
)

// TokenManager signs and verifies the four token kinds. Access and refresh
// tokens use separate secrets so one can never be replayed as the other.
// Pre-session tokens (setup/verify) use the two-factor secret, which falls
// back to the access secret when not configured separately.
type TokenManager struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	TwoFactorSecret []byte
	Issuer          string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SetupTokenTTL   time.Duration
	VerifyTokenTTL  time.Duration
}

type Claims struct {
	UserID         string       `json:"sub"`
	Purpose        TokenPurpose `json:"purpose"`
	Role           string       `json:"role,omitempty"`
	HasAdminAccess bool         `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

func (m TokenManager) IssueAccessToken(userID string, role string, hasAdminAccess bool) (string, time.Duration, error) {
	ttl := m.AccessTokenTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return m.sign(Claims{
		UserID:         userID,
		Purpose:        PurposeAccess,
		Role:           role,
		HasAdminAccess: hasAdminAccess,
	}, ttl, m.AccessSecret)
}

func (m TokenManager) IssueRefreshToken(userID string) (string, time.Duration, error) {
	ttl := m.RefreshTokenTTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return m.sign(Claims{UserID: userID, Purpose: PurposeRefresh}, ttl, m.RefreshSecret)
}

func (m TokenManager) IssueSetupToken(userID string) (string, time.Duration, error) {
	ttl := m.SetupTokenTTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return m.sign(Claims{UserID: userID, Purpose: PurposeSetup2FA}, ttl, m.twoFactorSecret())
}

func (m TokenManager) IssueVerifyToken(userID string) (string, time.Duration, error) {
	ttl := m.VerifyTokenTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return m.sign(Claims{UserID: userID, Purpose: PurposeVerify2FA}, ttl, m.twoFactorSecret())
}

// Parse verifies signature and expiry against the secret for the expected
// purpose, then checks the purpose claim itself. Expiry, signature and
// purpose failures are distinguishable by the caller.
func (m TokenManager) Parse(tokenString string, expected TokenPurpose) (*Claims, error) {
	secret := m.secretFor(expected)
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != expected {
		return nil, ErrTokenPurpose
	}
	return claims, nil
}

func (m TokenManager) sign(claims Claims, ttl time.Duration, secret []byte) (string, time.Duration, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.Issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (m TokenManager) secretFor(purpose TokenPurpose) []byte {
	switch purpose {
	case PurposeRefresh:
		return m.RefreshSecret
	case PurposeSetup2FA, PurposeVerify2FA:
		return m.twoFactorSecret()
	default:
		return m.AccessSecret
	}
}

func (m TokenManager) twoFactorSecret() []byte {
	if len(m.TwoFactorSecret) > 0 {
		return m.TwoFactorSecret
	}
	return m.AccessSecret
}
