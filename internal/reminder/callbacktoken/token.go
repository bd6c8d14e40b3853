// Package callbacktoken signs and verifies the tokens embedded in voice
// confirmation callback URLs. The webhook is driven by untrusted external
// input, so the document/recipient pair it reports must be authenticated
// rather than taken from plain query parameters.
package callbacktoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

// Claims carries the confirmation target inside the signed token.
type Claims struct {
	DocumentID  string `json:"document_id"`
	RecipientID string `json:"recipient_id"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 confirmation tokens.
type Signer struct {
	signingKey []byte
	ttl        time.Duration
}

// New creates a Signer. The TTL bounds how long a placed call's callback
// stays valid; it should comfortably exceed the longest expected call.
func New(signingKey string, ttl time.Duration) *Signer {
	return &Signer{signingKey: []byte(signingKey), ttl: ttl}
}

// Mint issues a token for one document/recipient confirmation target.
func (s *Signer) Mint(documentID id.DocumentID, recipientID id.RecipientID, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		DocumentID:  documentID.String(),
		RecipientID: recipientID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign callback token")
	}
	return signed, nil
}

// Verify parses a token and returns the confirmation target it names.
func (s *Signer) Verify(tokenString string) (id.DocumentID, id.RecipientID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.DocumentID{}, id.RecipientID{}, dErrors.New(dErrors.CodeValidation, "callback token has expired")
		}
		return id.DocumentID{}, id.RecipientID{}, dErrors.New(dErrors.CodeValidation, "invalid callback token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.DocumentID{}, id.RecipientID{}, dErrors.New(dErrors.CodeValidation, "invalid callback token claims")
	}

	documentID, err := id.ParseDocumentID(claims.DocumentID)
	if err != nil {
		return id.DocumentID{}, id.RecipientID{}, err
	}
	recipientID, err := id.ParseRecipientID(claims.RecipientID)
	if err != nil {
		return id.DocumentID{}, id.RecipientID{}, err
	}
	return documentID, recipientID, nil
}
