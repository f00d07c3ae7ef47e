package sharepoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultLoginURL = "https://login.microsoftonline.com"
	GraphScope      = "https://graph.microsoft.com/.default"

	// EmergencyToken is handed out when every token strategy failed outside production.
	// Graph rejects it, which pushes version uploads onto the object store fallback.
	EmergencyToken = "emergency-fallback-token"

	conditionalAccessCode = "AADSTS53003"
	cacheSafetyMargin     = 5 * time.Minute
)

type TokenMode string

const (
	TokenModeDevOverride       TokenMode = "dev_override"
	TokenModeClientCredentials TokenMode = "client_credentials"
)

type TokenSource string

const (
	TokenSourceClientCredentials TokenSource = "client_credentials"
	TokenSourceCache             TokenSource = "cache"
	TokenSourceDevOverride       TokenSource = "dev_override"
	TokenSourceFallback          TokenSource = "conditional_access_fallback"
	TokenSourceEmergency         TokenSource = "emergency"
)

type Token struct {
	AccessToken string
	Source      TokenSource
}

// IsIssued reports whether the token came from Azure AD rather than local configuration.
func (t Token) IsIssued() bool {
	return t.Source == TokenSourceClientCredentials || t.Source == TokenSourceCache
}

// IsLocal reports whether the token is a placeholder that Graph will not accept.
func (t Token) IsLocal() bool {
	return t.Source == TokenSourceDevOverride || t.Source == TokenSourceEmergency
}

// Credentials are the org level Azure AD app registration.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

func (c Credentials) cacheKey() string {
	sum := sha256.Sum256([]byte(c.TenantID + "\x00" + c.ClientID + "\x00" + c.ClientSecret))
	return "graph-token:" + hex.EncodeToString(sum[:16])
}

// TokenCache stores issued access tokens until shortly before they expire.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

type TokenProvider interface {
	Token(ctx context.Context, creds Credentials) (Token, error)
}

type PolicyConfig struct {
	LoginURL          string
	DevToken          string
	FallbackToken     string
	EmergencyFallback bool
	HTTPClient        *http.Client
	Cache             TokenCache
	Recorder          Recorder
	Logger            *zap.SugaredLogger
}

type fetchFunc func(ctx context.Context, creds Credentials) (*oauth2.Token, error)

// TokenPolicy acquires Graph access tokens using a strategy chosen once at startup.
type TokenPolicy struct {
	mode              TokenMode
	loginURL          string
	devToken          string
	fallbackToken     string
	emergencyFallback bool
	httpClient        *http.Client
	cache             TokenCache
	recorder          Recorder
	logger            *zap.SugaredLogger
	fetch             fetchFunc
}

// NewTokenPolicy builds the policy. In production every dev and fallback knob is
// dropped so only client credentials can produce a token.
func NewTokenPolicy(cfg PolicyConfig, isProduction bool) *TokenPolicy {
	p := &TokenPolicy{
		mode:              TokenModeClientCredentials,
		loginURL:          strings.TrimRight(cfg.LoginURL, "/"),
		devToken:          strings.TrimSpace(cfg.DevToken),
		fallbackToken:     strings.TrimSpace(cfg.FallbackToken),
		emergencyFallback: cfg.EmergencyFallback,
		httpClient:        cfg.HTTPClient,
		cache:             cfg.Cache,
		recorder:          cfg.Recorder,
		logger:            cfg.Logger,
	}
	if p.loginURL == "" {
		p.loginURL = DefaultLoginURL
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if p.logger == nil {
		p.logger = zap.NewNop().Sugar()
	}

	if isProduction {
		p.devToken = ""
		p.fallbackToken = ""
		p.emergencyFallback = false
	}
	if p.devToken != "" {
		p.mode = TokenModeDevOverride
	}
	p.fetch = p.clientCredentials

	return p
}

func (p *TokenPolicy) Mode() TokenMode {
	return p.mode
}

func (p *TokenPolicy) Token(ctx context.Context, creds Credentials) (Token, error) {
	if p.mode == TokenModeDevOverride {
		return Token{AccessToken: p.devToken, Source: TokenSourceDevOverride}, nil
	}

	key := creds.cacheKey()
	if p.cache != nil {
		if cached, ok, err := p.cache.Get(ctx, key); err != nil {
			p.logger.Warnf("Graph token cache read failed: %v", err)
		} else if ok {
			return Token{AccessToken: cached, Source: TokenSourceCache}, nil
		}
	}

	tok, err := p.fetch(ctx, creds)
	if err == nil {
		p.store(ctx, key, tok)
		return Token{AccessToken: tok.AccessToken, Source: TokenSourceClientCredentials}, nil
	}

	if IsConditionalAccessError(err) {
		if p.fallbackToken != "" {
			p.logger.Warnf("Client credentials blocked by conditional access, using fallback token")
			return Token{AccessToken: p.fallbackToken, Source: TokenSourceFallback}, nil
		}
		return Token{}, fmt.Errorf("%w: %v", ErrConditionalAccessBlocked, err)
	}

	if p.emergencyFallback {
		p.logger.Warnf("Client credentials failed, using emergency placeholder token: %v", err)
		return Token{AccessToken: EmergencyToken, Source: TokenSourceEmergency}, nil
	}

	return Token{}, fmt.Errorf("failed to acquire Graph access token: %w", err)
}

func (p *TokenPolicy) store(ctx context.Context, key string, tok *oauth2.Token) {
	if p.cache == nil || tok.Expiry.IsZero() {
		return
	}
	ttl := time.Until(tok.Expiry) - cacheSafetyMargin
	if ttl <= 0 {
		return
	}
	if err := p.cache.Set(ctx, key, tok.AccessToken, ttl); err != nil {
		p.logger.Warnf("Graph token cache write failed: %v", err)
	}
}

func (p *TokenPolicy) clientCredentials(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	if creds.TenantID == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("tenant id, client id and client secret are required")
	}

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", p.loginURL, creds.TenantID),
		Scopes:       []string{GraphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	start := time.Now()
	tok, err := cc.Token(ctx)

	if p.recorder != nil {
		status := http.StatusOK
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			status = re.Response.StatusCode
		} else if err != nil {
			status = 0
		}
		p.recorder.RecordExternalAPICall("/"+creds.TenantID+"/oauth2/v2.0/token", http.MethodPost, status, time.Since(start), err)
	}

	return tok, err
}

// IsConditionalAccessError reports an Azure AD AADSTS53003 rejection.
func IsConditionalAccessError(err error) bool {
	if err == nil {
		return false
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if strings.Contains(string(re.Body), conditionalAccessCode) || strings.Contains(re.ErrorDescription, conditionalAccessCode) {
			return true
		}
	}
	return strings.Contains(err.Error(), conditionalAccessCode)
}
