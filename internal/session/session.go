// Package session holds the authenticated identity a sync worker operates
// under: the owner's public key, the master key protecting the local cache,
// and an access token whose validity gates every data operation.
package session

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims issued by the account service.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// Session is the engine's view of an authenticated user. Built once during
// initialization and treated as read-only afterwards.
type Session struct {
	Username       string
	OwnerPublicKey string
	MasterKey      []byte
	AccessToken    string

	secretKey []byte
	now       func() time.Time
}

// New validates the access token and returns a ready session.
// Returns common.ErrSessionNotReady wrapping the cause when the token is
// missing, malformed, or expired.
func New(username, ownerPublicKey string, masterKey []byte, accessToken string, secretKey []byte) (*Session, error) {
	s := &Session{
		Username:       username,
		OwnerPublicKey: ownerPublicKey,
		MasterKey:      masterKey,
		AccessToken:    accessToken,
		secretKey:      secretKey,
		now:            time.Now,
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// Check re-validates the session before a data operation. The token may
// have expired between messages.
func (s *Session) Check() error {
	if s == nil || s.AccessToken == "" || s.OwnerPublicKey == "" {
		return common.ErrSessionNotReady
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(s.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.Join(common.ErrSessionNotReady, common.ErrTokenExpired)
		}
		return errors.Join(common.ErrSessionNotReady, common.ErrInvalidToken)
	}
	if !token.Valid {
		return errors.Join(common.ErrSessionNotReady, common.ErrInvalidToken)
	}
	return nil
}

// IssueToken creates a signed access token. Exists for tests and for the
// local development flow where no account service runs.
func IssueToken(userID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		UserID: userID,
	})
	return token.SignedString(secretKey)
}
