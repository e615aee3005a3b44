package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

const authSessionsPath = "/auth-sessions"

type authRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// Authenticate exchanges client credentials for a bearer access token.
// A rejected exchange is terminal; it is never retried.
func (c *Client) Authenticate(ctx context.Context, clientID, clientSecret string) (parcel.AccessToken, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return "", &parcel.Error{
			Kind:    parcel.KindPrecondition,
			Message: "client id and client secret must not be empty",
		}
	}

	req, err := c.newRequest(ctx, http.MethodPost, authSessionsPath, nil, authRequest{
		GrantType:    "client_credentials",
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, "")
	if err != nil {
		return "", transportError(parcel.KindAuthentication, "build request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", transportError(parcel.KindAuthentication, "send request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(parcel.KindAuthentication, resp)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &parcel.Error{
			Kind:       parcel.KindAuthentication,
			StatusCode: resp.StatusCode,
			Message:    "decode response",
			Err:        err,
		}
	}

	if body.AccessToken == "" {
		return "", &parcel.Error{
			Kind:       parcel.KindAuthentication,
			StatusCode: resp.StatusCode,
			Message:    "response contains no access token",
		}
	}

	c.logger.Info().
		Str("token_type", body.TokenType).
		Int("expires_in", body.ExpiresIn).
		Str("client_id", redactID(clientID)).
		Msg("Authenticated")

	return parcel.AccessToken(body.AccessToken), nil
}

// redactID keeps the first characters of a client id for log correlation.
func redactID(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + "****"
}
