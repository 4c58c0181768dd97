// Package identity resolves the caller's email from an incoming request.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"
)

// Provider returns the caller's email, or "" when it cannot be determined.
type Provider interface {
	CurrentUserEmail(r *http.Request) string
}

// Provider kinds accepted by New.
const (
	KindHeader = "header"
	KindIAP    = "iap"
	KindJWT    = "jwt"
	KindStatic = "static"
)

// DefaultHeader is the header set by Google's Identity-Aware Proxy.
const DefaultHeader = "X-Goog-Authenticated-User-Email"

// IAP assertion header and issuer.
const (
	AssertionHeader = "X-Goog-IAP-JWT-Assertion"
	IAPIssuer       = "https://cloud.google.com/iap"
)

// ErrUntrustedHeader is returned for the header provider when the proxy has
// not been declared trusted.
var ErrUntrustedHeader = errors.New("header identity provider requires a trusted proxy")

// Config selects and configures a Provider.
type Config struct {
	Provider    string `mapstructure:"provider"`
	Header      string `mapstructure:"header"`
	StripPrefix string `mapstructure:"strip_prefix"`
	// TrustProxy declares that a proxy in front of the service strips
	// client-supplied identity headers.
	TrustProxy  bool   `mapstructure:"trust_proxy"`
	IAPAudience string `mapstructure:"iap_audience"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	EmailClaim  string `mapstructure:"email_claim"`
	StaticEmail string `mapstructure:"static_email"`
}

// New builds the Provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case KindHeader:
		if !cfg.TrustProxy {
			return nil, ErrUntrustedHeader
		}
		return NewHeader(cfg.Header, cfg.StripPrefix), nil
	case KindIAP:
		return NewIAP(cfg.IAPAudience, nil)
	case KindJWT:
		return NewJWT(cfg.JWTSecret, cfg.EmailClaim)
	case "", KindStatic:
		return Static(cfg.StaticEmail), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
}

// Header reads the email from a header set by a trusted proxy.
type Header struct {
	name   string
	prefix string
}

// NewHeader returns a Header provider. An empty name uses DefaultHeader.
func NewHeader(name, stripPrefix string) *Header {
	if name == "" {
		name = DefaultHeader
	}
	return &Header{name: name, prefix: stripPrefix}
}

// CurrentUserEmail implements Provider.
func (h *Header) CurrentUserEmail(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get(h.name))
	if h.prefix != "" {
		v = strings.TrimPrefix(v, h.prefix)
	}
	return strings.TrimSpace(v)
}

// AssertionValidator checks a signed token for audience and returns its
// payload. idtoken.Validate satisfies it.
type AssertionValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// IAP reads the email from the signed assertion Identity-Aware Proxy attaches
// to every request. The unsigned email header is ignored.
type IAP struct {
	audience string
	validate AssertionValidator
}

// NewIAP returns an IAP provider for audience
// (/projects/NUMBER/global/backendServices/ID or /projects/NUMBER/apps/ID).
// A nil validate uses idtoken.Validate.
func NewIAP(audience string, validate AssertionValidator) (*IAP, error) {
	if audience == "" {
		return nil, errors.New("iap audience is required")
	}
	if validate == nil {
		validate = idtoken.Validate
	}
	return &IAP{audience: audience, validate: validate}, nil
}

// CurrentUserEmail implements Provider. A missing or invalid assertion
// yields "".
func (p *IAP) CurrentUserEmail(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(AssertionHeader))
	if raw == "" {
		return ""
	}
	payload, err := p.validate(r.Context(), raw, p.audience)
	if err != nil || payload == nil || payload.Issuer != IAPIssuer {
		return ""
	}
	email, _ := payload.Claims["email"].(string)
	email = strings.TrimPrefix(strings.TrimSpace(email), "accounts.google.com:")
	return email
}

// JWT reads the email claim from an HS256 bearer token.
type JWT struct {
	secret []byte
	claim  string
}

// NewJWT returns a JWT provider. An empty claim reads "email".
func NewJWT(secret, claim string) (*JWT, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if claim == "" {
		claim = "email"
	}
	return &JWT{secret: []byte(secret), claim: claim}, nil
}

// CurrentUserEmail implements Provider. Invalid or expired tokens yield "".
func (j *JWT) CurrentUserEmail(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" {
		return ""
	}
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	email, _ := claims[j.claim].(string)
	return strings.TrimSpace(email)
}

// Static always returns the same email.
type Static string

// CurrentUserEmail implements Provider.
func (s Static) CurrentUserEmail(*http.Request) string {
	return string(s)
}
