// Package identity is the HTTP client for the external identity service
// that owns users, credentials, and auth providers. This service never
// stores secret material; it reads it from here at call time.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	ins     instrument.Instrumentation
}

func NewClient(cfg Config, ins instrument.Instrumentation) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		ins:     ins,
	}
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.identity").Start(ctx, name)
}

func (c *Client) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type providerResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
}

func (p providerResponse) handle() entity.AuthProviderHandle {
	return entity.AuthProviderHandle{ID: p.ID, UserID: p.UserID, Provider: p.Provider}
}

// call issues one JSON request. 404 maps to goerror.ErrNotFound, 401/403 to
// goerror.ErrUnauthorized, anything else non-2xx is a server error.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return goerror.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return goerror.ErrUnauthorized
	default:
		return fmt.Errorf("identity service responded %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get retries transient failures; reads are safe to repeat.
func (c *Client) get(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	backoff = retry.WithCappedDuration(2*time.Second, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.call(ctx, http.MethodGet, path, nil, out)
		if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrUnauthorized) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// ValidateCredential asks the identity service to check the credential and
// returns the provider handle the chain binds to.
func (c *Client) ValidateCredential(ctx context.Context, in entity.CredentialInput) (handle *entity.AuthProviderHandle, err error) {
	ctx, span := c.startSpan(ctx, "ValidateCredential")
	defer func() { c.endSpan(span, err) }()

	var out providerResponse
	if err = c.call(ctx, http.MethodPost, "/api/v1/auth-providers/validate", map[string]string{
		"user_id":     in.UserID,
		"provider":    in.Provider,
		"provider_id": in.ProviderID,
		"device_id":   in.DeviceID,
	}, &out); err != nil {
		return nil, err
	}

	h := out.handle()
	return &h, nil
}

// ProviderByID fetches one provider handle and checks ownership.
func (c *Client) ProviderByID(ctx context.Context, authProviderID, userID string) (handle *entity.AuthProviderHandle, err error) {
	ctx, span := c.startSpan(ctx, "ProviderByID")
	defer func() { c.endSpan(span, err) }()

	var out providerResponse
	if err = c.get(ctx, "/api/v1/auth-providers/"+url.PathEscape(authProviderID), &out); err != nil {
		return nil, err
	}
	if out.UserID != userID {
		return nil, goerror.ErrNotFound
	}

	h := out.handle()
	return &h, nil
}

// ProvidersByUser lists every provider handle bound to the user.
func (c *Client) ProvidersByUser(ctx context.Context, userID string) (handles []entity.AuthProviderHandle, err error) {
	ctx, span := c.startSpan(ctx, "ProvidersByUser")
	defer func() { c.endSpan(span, err) }()

	var out struct {
		Providers []providerResponse `json:"providers"`
	}
	if err = c.get(ctx, "/api/v1/users/"+url.PathEscape(userID)+"/auth-providers", &out); err != nil {
		return nil, err
	}

	handles = make([]entity.AuthProviderHandle, 0, len(out.Providers))
	for _, p := range out.Providers {
		handles = append(handles, p.handle())
	}
	return handles, nil
}

// SensitiveDetails reads the user's chain material. The secret never
// persists on this side; it lives only for the duration of the call.
func (c *Client) SensitiveDetails(ctx context.Context, userID string) (ident *entity.SensitiveIdentity, err error) {
	ctx, span := c.startSpan(ctx, "SensitiveDetails")
	defer func() { c.endSpan(span, err) }()

	var out struct {
		Username  string `json:"username"`
		SecretKey string `json:"secret_key"`
		PublicKey string `json:"public_key"`
	}
	if err = c.get(ctx, "/api/v1/users/"+url.PathEscape(userID)+"/sensitive", &out); err != nil {
		return nil, err
	}

	return &entity.SensitiveIdentity{
		Username:  out.Username,
		SecretKey: out.SecretKey,
		PublicKey: out.PublicKey,
	}, nil
}
