package auth

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"sync"

	"github.com/pkg/errors"
	"software.sslmate.com/src/go-pkcs12"

	"ris-sdk/internal/config"
)

const (
	HeaderMerchantID    = "X-Kount-Merc-Id"
	HeaderAPIKey        = "X-Kount-Api-Key"
	HeaderAuthorization = "Authorization"
)

const (
	ModeStatic = "static"
	ModeBearer = "bearer"
)

// Provider produces the credentials attached to one outbound request.
type Provider interface {
	Mode() string
	Headers(ctx context.Context) (http.Header, error)
	// ClientCertificate returns the mutual TLS certificate, or nil when the
	// mode does not use one.
	ClientCertificate() (*tls.Certificate, error)
}

// NewProvider selects bearer credentials when migration mode is enabled and
// static merchant credentials otherwise.
func NewProvider(cfg *config.Config, cache *TokenCache) (Provider, error) {
	if cfg.MigrationModeEnabled() {
		if cache == nil {
			return nil, &AuthError{Mode: ModeBearer, Err: ErrNoTokenCache}
		}
		return NewBearerProvider(cache), nil
	}
	return NewStaticProvider(cfg.RIS.MerchantID, cfg.RIS.APIKey, cfg.RIS.CertificateFile, cfg.RIS.PrivateKeyPassword), nil
}

// StaticProvider authenticates with the merchant id plus either an API key
// or a PKCS#12 client certificate.
type StaticProvider struct {
	merchantID   string
	apiKey       string
	certFile     string
	certPassword string

	mu   sync.Mutex
	cert *tls.Certificate
}

func NewStaticProvider(merchantID, apiKey, certFile, certPassword string) *StaticProvider {
	return &StaticProvider{
		merchantID:   merchantID,
		apiKey:       apiKey,
		certFile:     certFile,
		certPassword: certPassword,
	}
}

func (p *StaticProvider) Mode() string { return ModeStatic }

func (p *StaticProvider) Headers(ctx context.Context) (http.Header, error) {
	h := http.Header{}
	h.Set(HeaderMerchantID, p.merchantID)
	if p.apiKey != "" {
		h.Set(HeaderAPIKey, p.apiKey)
	}
	return h, nil
}

func (p *StaticProvider) ClientCertificate() (*tls.Certificate, error) {
	if p.apiKey != "" {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cert != nil {
		return p.cert, nil
	}

	cert, err := loadCertificate(p.certFile, p.certPassword)
	if err != nil {
		return nil, &AuthError{Mode: ModeStatic, Err: err}
	}
	p.cert = cert
	return cert, nil
}

// loadCertificate reads a PKCS#12 bundle holding the client key, its
// certificate and any intermediates. Both the legacy RC2/3DES and the
// PBES2/AES encryptions are accepted.
func loadCertificate(file, password string) (*tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read certificate")
	}

	key, leaf, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, errors.Wrap(err, "decode certificate")
	}

	cert := &tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, ca := range chain {
		cert.Certificate = append(cert.Certificate, ca.Raw)
	}
	return cert, nil
}

// BearerProvider authenticates with a token from a shared TokenCache.
type BearerProvider struct {
	cache *TokenCache
}

func NewBearerProvider(cache *TokenCache) *BearerProvider {
	return &BearerProvider{cache: cache}
}

func (p *BearerProvider) Mode() string { return ModeBearer }

func (p *BearerProvider) Headers(ctx context.Context) (http.Header, error) {
	tok, err := p.cache.GetValidToken(ctx)
	if err != nil {
		return nil, &AuthError{Mode: ModeBearer, Err: err}
	}

	h := http.Header{}
	h.Set(HeaderAuthorization, tok.Header())
	return h, nil
}

func (p *BearerProvider) ClientCertificate() (*tls.Certificate, error) {
	return nil, nil
}
