package googleauth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrInvalidIDToken = errors.New("google id token is invalid")

// Identity is the profile extracted from a verified Google ID token.
type Identity struct {
	Email   string
	Name    string
	Picture string
}

// Verifier validates Google-issued ID tokens against this app's OAuth
// client ID.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIDToken, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidIDToken
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &Identity{Email: email, Name: name, Picture: picture}, nil
}
