package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

const maxResponseBytes = 4 << 20

// NewHTTPClient returns the client shared by all adapters. The timeout bounds
// every fetch and refresh call.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// OAuthClient holds the refresh-token exchange settings of one provider.
type OAuthClient struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// doJSON sends req and decodes a 2xx JSON body into out. A 401 maps to
// AUTH_EXPIRED; every other failure maps to PROVIDER_ERROR.
func doJSON(client *http.Client, req *http.Request, provider model.Provider, out any) error {
	name := provider.DisplayName()
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		log.Error().
			Err(err).
			Str("provider", string(provider)).
			Dur("elapsed", time.Since(start)).
			Msg("provider request error")
		return apperrors.ProviderError(name, "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.ProviderError(name, "failed to read response").WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn().
			Str("provider", string(provider)).
			Dur("elapsed", time.Since(start)).
			Msg("provider rejected credential")
		return apperrors.AuthExpired(name)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("provider", string(provider)).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("provider request failed")
		return apperrors.ProviderError(name, fmt.Sprintf("status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.ProviderError(name, "malformed response").WithCause(err)
	}

	log.Debug().
		Str("provider", string(provider)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("provider request successful")

	return nil
}

func newJSONRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// refreshAccessToken exchanges the account's refresh token for a new bearer
// token using the OAuth2 refresh_token grant.
func refreshAccessToken(ctx context.Context, client *http.Client, oauth OAuthClient, provider model.Provider, account model.Account) (string, error) {
	name := provider.DisplayName()
	if !account.HasRefreshToken() {
		return "", apperrors.MissingRefreshCredential(name)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {oauth.ClientID},
		"client_secret": {oauth.ClientSecret},
		"refresh_token": {*account.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauth.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.RefreshFailed(name, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.ProviderError(name, "token request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apperrors.ProviderError(name, "failed to read token response").WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("provider", string(provider)).
			Int("status", resp.StatusCode).
			Int64("accountId", account.ID).
			Msg("token refresh failed")
		return "", apperrors.RefreshFailed(name, fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", apperrors.RefreshFailed(name, err)
	}
	if tokenResp.AccessToken == "" {
		return "", apperrors.RefreshFailed(name, errors.New("token response has no access_token"))
	}

	return tokenResp.AccessToken, nil
}
