package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
)

// Spotify OAuth token proxy. Stateless: every call is one request to the
// accounts token endpoint with the app's client credentials.

const (
	SpotifyTokenURL    = "https://accounts.spotify.com/api/token"
	SpotifyRedirectURL = "http://spotitube.if-lab.de/api/spotify/callback"
)

// CreateTokenResponse is returned for an authorization_code exchange.
type CreateTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponse is returned for a refresh_token grant.
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SpotifyConfig holds the app credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RedirectURL  string
	HTTPClient   *http.Client
}

// SpotifyTokens exchanges and refreshes Spotify user tokens.
type SpotifyTokens struct {
	conf   *oauth2.Config
	client *http.Client
}

// NewSpotifyTokens returns a proxy for the given credentials.
func NewSpotifyTokens(c SpotifyConfig) *SpotifyTokens {
	if c.TokenURL == "" {
		c.TokenURL = SpotifyTokenURL
	}
	if c.RedirectURL == "" {
		c.RedirectURL = SpotifyRedirectURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &SpotifyTokens{
		conf: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint: oauth2.Endpoint{
				TokenURL:  c.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client: c.HTTPClient,
	}
}

// Create exchanges an authorization code for an access/refresh token pair.
func (s *SpotifyTokens) Create(ctx context.Context, authCode string) (CreateTokenResponse, error) {
	engine.IncrSpotifyTokenRequests()
	if err := s.check(); err != nil {
		return CreateTokenResponse{}, err
	}
	tok, err := s.conf.Exchange(s.ctx(ctx), authCode)
	if err != nil {
		return CreateTokenResponse{}, tokenError(err)
	}
	return CreateTokenResponse{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    expiresIn(tok),
		RefreshToken: tok.RefreshToken,
	}, nil
}

// Refresh trades a refresh token for a new access token.
func (s *SpotifyTokens) Refresh(ctx context.Context, refreshToken string) (RefreshTokenResponse, error) {
	engine.IncrSpotifyTokenRequests()
	if err := s.check(); err != nil {
		return RefreshTokenResponse{}, err
	}
	tok, err := s.conf.TokenSource(s.ctx(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return RefreshTokenResponse{}, tokenError(err)
	}
	return RefreshTokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   expiresIn(tok),
	}, nil
}

func (s *SpotifyTokens) check() error {
	if s.conf.ClientID == "" || s.conf.ClientSecret == "" {
		return engine.UpstreamError("error", "spotify client credentials not configured")
	}
	return nil
}

func (s *SpotifyTokens) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func expiresIn(tok *oauth2.Token) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
}

// tokenError maps token endpoint failures onto the {status, reason} envelope,
// keeping Spotify's own error code and description.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode != "" {
			return engine.UpstreamError(re.ErrorCode, re.ErrorDescription)
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return engine.UpstreamError("", fmt.Sprintf("token endpoint HTTP %d: %s",
			status, engine.TruncateRunes(string(re.Body), 256, "...")))
	}
	return engine.NetworkError("spotify token request", err)
}
