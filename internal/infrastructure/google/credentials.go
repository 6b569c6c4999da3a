// Package google adapts Google Drive and Google Sheets to the intake ports.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// Scopes requested by the intake service.
const (
	DriveScope        = "https://www.googleapis.com/auth/drive"
	SpreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"
)

// Credentials is a service-account identity. Either Email+PrivateKey or
// JSON (a downloaded key file) must be set.
type Credentials struct {
	Email      string
	PrivateKey string
	JSON       string
}

// TokenSource builds an OAuth2 token source for scopes using the JWT bearer flow.
func (c Credentials) TokenSource(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
	if strings.TrimSpace(c.JSON) != "" {
		conf, err := googleoauth.JWTConfigFromJSON([]byte(c.JSON), scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account json: %w", err)
		}
		return conf.TokenSource(ctx), nil
	}

	if strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.PrivateKey) == "" {
		return nil, errors.New("service account email and private key are required")
	}
	conf := &jwt.Config{
		Email:      strings.TrimSpace(c.Email),
		PrivateKey: []byte(c.PrivateKey),
		Scopes:     scopes,
		TokenURL:   googleoauth.JWTTokenURL,
	}
	return conf.TokenSource(ctx), nil
}
