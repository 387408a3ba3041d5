package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendrickPhan/go-verify-apple-id-token/validator"
	"google.golang.org/api/idtoken"
)

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

// ExternalIdentity is the verified subject of a third-party ID token.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
}

// IDTokenVerifier checks an ID token for the given audience.
type IDTokenVerifier func(ctx context.Context, token, audience string) (ExternalIdentity, error)

func VerifyGoogleIDToken(ctx context.Context, token, audience string) (ExternalIdentity, error) {
	if err := checkTokenArgs(token, audience); err != nil {
		return ExternalIdentity{}, err
	}

	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return ExternalIdentity{}, err
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return ExternalIdentity{}, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}

	email, _ := payload.Claims["email"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		email = ""
	}

	return ExternalIdentity{
		Provider: ProviderGoogle,
		Subject:  payload.Subject,
		Email:    strings.TrimSpace(strings.ToLower(email)),
	}, nil
}

func VerifyAppleIDToken(ctx context.Context, token, audience string) (ExternalIdentity, error) {
	if err := checkTokenArgs(token, audience); err != nil {
		return ExternalIdentity{}, err
	}
	if err := ctx.Err(); err != nil {
		return ExternalIdentity{}, err
	}

	client := validator.NewClient()
	idToken, err := client.VerifyIdToken(audience, token)
	if err != nil {
		return ExternalIdentity{}, err
	}
	if idToken.Iss != "https://appleid.apple.com" {
		return ExternalIdentity{}, fmt.Errorf("unexpected issuer: %s", idToken.Iss)
	}

	return ExternalIdentity{
		Provider: ProviderApple,
		Subject:  idToken.Sub,
		Email:    strings.TrimSpace(strings.ToLower(idToken.Email)),
	}, nil
}

func checkTokenArgs(token, audience string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("missing id token")
	}
	if strings.TrimSpace(audience) == "" {
		return errors.New("missing audience")
	}
	return nil
}
