package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Credentials selects how the client authenticates. A service account wins
// over an OAuth user token when both are set.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

func (c Credentials) hasServiceAccount() bool {
	return c.ServiceAccountJSON != "" || c.ServiceAccountFile != ""
}

func (c Credentials) hasOAuth() bool {
	return (c.OAuthClientJSON != "" || c.OAuthClientFile != "") &&
		(c.OAuthTokenJSON != "" || c.OAuthTokenFile != "")
}

// Configured reports whether any credential source is set.
func (c Credentials) Configured() bool { return c.hasServiceAccount() || c.hasOAuth() }

func inlineOrFile(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// NewService builds a Sheets service from a service account key or from an
// OAuth client plus a stored user token (see cmd/oauth-init).
func NewService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	switch {
	case creds.hasServiceAccount():
		b, err := inlineOrFile(strings.TrimSpace(creds.ServiceAccountJSON), strings.TrimSpace(creds.ServiceAccountFile))
		if err != nil {
			return nil, fmt.Errorf("service account: %w", err)
		}
		slog.InfoContext(ctx, "Creating Google Sheets service with service account", "credentials_size", len(b))
		svc, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(b),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return svc, nil

	case creds.hasOAuth():
		client, err := oauthClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Creating Google Sheets service with OAuth user token")
		svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return svc, nil

	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or an OAuth client and token)")
	}
}

func oauthClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	clientJSON, err := inlineOrFile(strings.TrimSpace(creds.OAuthClientJSON), strings.TrimSpace(creds.OAuthClientFile))
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	tokenJSON, err := inlineOrFile(strings.TrimSpace(creds.OAuthTokenJSON), strings.TrimSpace(creds.OAuthTokenFile))
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	// token refreshes go through the pooled transport too
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return cfg.Client(ctx, &tok), nil
}

// newHTTPClientWithPooling is tuned for a handful of long-lived connections to the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}
