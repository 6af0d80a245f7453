package octezSigner

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:6732"
	DefaultTimeout = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Optional TLS material, as PEM file paths.
	CACert string
	Cert   string
	Key    string

	// RequestsPerSecond throttles calls to the signer. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// NewConfigWithTLS returns a config for a signer reachable over (mutual) TLS.
func NewConfigWithTLS(baseURL, caCert, cert, key string) *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.CACert = caCert
	cfg.Cert = cert
	cfg.Key = key
	return cfg
}

// Client talks to an octez-signer over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient builds a client from cfg. A nil cfg uses DefaultConfig.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("signer base URL cannot be empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid signer base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.CACert != "" || cfg.Cert != "" {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

func buildTLSConfig(cfg *Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CA certificate")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACert)
		}
		tlsConfig.RootCAs = pool
	}
	if cfg.Cert != "" || cfg.Key != "" {
		if cfg.Cert == "" || cfg.Key == "" {
			return nil, fmt.Errorf("client certificate and key must be provided together")
		}
		pair, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{pair}
	}
	return tlsConfig, nil
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) PublicKey(ctx context.Context, pkh string) (string, error) {
	if pkh == "" {
		return "", fmt.Errorf("public key hash cannot be empty")
	}
	var res struct {
		PublicKey string `json:"public_key"`
	}
	if err := c.do(ctx, http.MethodGet, "/keys/"+url.PathEscape(pkh), nil, &res); err != nil {
		return "", err
	}
	if res.PublicKey == "" {
		return "", fmt.Errorf("signer returned no public key for %s", pkh)
	}
	return res.PublicKey, nil
}

func (c *Client) Sign(ctx context.Context, pkh string, data []byte) (string, error) {
	if pkh == "" {
		return "", fmt.Errorf("public key hash cannot be empty")
	}
	body, err := json.Marshal(hex.EncodeToString(data))
	if err != nil {
		return "", err
	}
	c.logger.Sugar().Debugw("Requesting signature", "pkh", pkh, "bytes", len(data))

	var res struct {
		Signature string `json:"signature"`
	}
	if err := c.do(ctx, http.MethodPost, "/keys/"+url.PathEscape(pkh), body, &res); err != nil {
		return "", err
	}
	if res.Signature == "" {
		return "", fmt.Errorf("signer returned no signature for %s", pkh)
	}
	return res.Signature, nil
}

func (c *Client) AuthorizedKeys(ctx context.Context) ([]string, error) {
	var res struct {
		AuthorizedKeys []string `json:"authorized_keys"`
	}
	if err := c.do(ctx, http.MethodGet, "/authorized_keys", nil, &res); err != nil {
		return nil, err
	}
	return res.AuthorizedKeys, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrapf(err, "signer request %s %s throttled", method, path)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create signer request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "signer request %s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read signer response")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "failed to parse signer response")
	}
	return nil
}
