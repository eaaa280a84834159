package taskauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Ensure Adapter implements TaskAuthenticator
var _ driven.TaskAuthenticator = (*Adapter)(nil)

// taskClaims carries the signed job identity
type taskClaims struct {
	JobID int64 `json:"job_id"`
	jwt.RegisteredClaims
}

// Adapter signs task-callback tokens with HMAC-SHA256. Workers sign on
// dispatch, the callback endpoint verifies before touching the batch.
type Adapter struct {
	secret []byte
	ttl    time.Duration
}

// NewAdapter creates a task authenticator with the given signing secret
func NewAdapter(secret string) *Adapter {
	return &Adapter{
		secret: []byte(secret),
		ttl:    time.Hour,
	}
}

// Sign produces a signed token for a dispatched task
func (a *Adapter) Sign(jobID int64) (string, error) {
	claims := taskClaims{
		JobID: jobID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify validates a callback token. Any failure maps to
// domain.ErrForbidden; the endpoint never distinguishes bad signatures
// from expired ones.
func (a *Adapter) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &taskClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	}

	if _, ok := token.Claims.(*taskClaims); !ok || !token.Valid {
		return fmt.Errorf("%w: invalid task token claims", domain.ErrForbidden)
	}
	return nil
}
