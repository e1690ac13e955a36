// api/handlers/google_auth.go
package handlers

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/idtoken"
)

// GooglePayload is the subset of a verified Google ID token this API uses.
type GooglePayload struct {
	Subject  string
	Email    string
	Name     string
	PhotoURL string
}

// GoogleVerifier validates a raw Google ID token and extracts its payload.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GooglePayload, error)
}

type googleIDTokenVerifier struct {
	audience string
}

// NewGoogleVerifier verifies tokens against the GOOGLE_CLIENT_ID audience.
func NewGoogleVerifier() GoogleVerifier {
	return &googleIDTokenVerifier{audience: os.Getenv("GOOGLE_CLIENT_ID")}
}

func (v *googleIDTokenVerifier) Verify(ctx context.Context, rawToken string) (*GooglePayload, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.audience)
	if err != nil {
		return nil, fmt.Errorf("failed to validate google id token: %w", err)
	}

	claim := func(key string) string {
		s, _ := payload.Claims[key].(string)
		return s
	}

	return &GooglePayload{
		Subject:  payload.Subject,
		Email:    claim("email"),
		Name:     claim("name"),
		PhotoURL: claim("picture"),
	}, nil
}
