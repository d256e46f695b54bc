// Package ledger is the HTTP client for the external commitment ledger, the
// system of record for identity bindings, commitments, and redeem windows.
// The ledger verdict is authoritative; this client only maps transport and
// response shapes into domain errors.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
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
		timeout = 10 * time.Second
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		ins:     ins,
	}
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.ledger").Start(ctx, name)
}

func (c *Client) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrLedgerRejected) && !errors.Is(err, entity.ErrLedgerReplay) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type receiptResponse struct {
	TxRef  string `json:"tx_ref"`
	LogURL string `json:"log_url"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call issues one JSON request and maps the outcome. Transport failures and
// 5xx become ErrLedgerUnavailable, 409 ErrLedgerReplay, any other non-2xx
// ErrLedgerRejected with the ledger's message attached.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", entity.ErrLedgerUnavailable, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)

		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: %s", entity.ErrLedgerReplay, er.Error.Message)
		}
		return fmt.Errorf("%w: %s", entity.ErrLedgerRejected, er.Error.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %w", entity.ErrLedgerUnavailable, err)
		}
	}

	return nil
}

func (c *Client) receipt(rr receiptResponse) *entity.Receipt {
	return &entity.Receipt{
		Ref:      rr.TxRef,
		LogURL:   rr.LogURL,
		Accepted: time.Now(),
	}
}

func (c *Client) RegisterIdentity(ctx context.Context, key chain.Hash, payload entity.RegistrationPayload, signature string) (_ *entity.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "RegisterIdentity")
	defer func() { c.endSpan(span, err) }()

	body := struct {
		Key string `json:"key"`
		entity.RegistrationPayload
		Signature string `json:"signature"`
	}{key.Hex(), payload, signature}

	var rr receiptResponse
	if err = c.call(ctx, http.MethodPost, "/identities", body, &rr); err != nil {
		return nil, err
	}

	return c.receipt(rr), nil
}

func (c *Client) UpdateWindow(ctx context.Context, key chain.Hash, window entity.Window) (_ *entity.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "UpdateWindow")
	defer func() { c.endSpan(span, err) }()

	body := struct {
		Start int64 `json:"start_time"`
		End   int64 `json:"end_time"`
	}{window.Start, window.End}

	var rr receiptResponse
	if err = c.call(ctx, http.MethodPost, "/identities/"+key.Hex()+"/window", body, &rr); err != nil {
		return nil, err
	}

	return c.receipt(rr), nil
}

func (c *Client) Verify(ctx context.Context, key chain.Hash, index uint64, payload entity.VerifyPayload, signature string) (_ *entity.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "Verify")
	defer func() { c.endSpan(span, err) }()

	body := struct {
		Index uint64 `json:"index"`
		entity.VerifyPayload
		Signature string `json:"signature"`
	}{index, payload, signature}

	var rr receiptResponse
	if err = c.call(ctx, http.MethodPost, "/identities/"+key.Hex()+"/verify", body, &rr); err != nil {
		return nil, err
	}

	return c.receipt(rr), nil
}

func (c *Client) Blacklist(ctx context.Context, key chain.Hash) (_ *entity.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "Blacklist")
	defer func() { c.endSpan(span, err) }()

	var rr receiptResponse
	if err = c.call(ctx, http.MethodPost, "/identities/"+key.Hex()+"/blacklist", nil, &rr); err != nil {
		return nil, err
	}

	return c.receipt(rr), nil
}

func (c *Client) Unblacklist(ctx context.Context, key chain.Hash) (_ *entity.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "Unblacklist")
	defer func() { c.endSpan(span, err) }()

	var rr receiptResponse
	if err = c.call(ctx, http.MethodDelete, "/identities/"+key.Hex()+"/blacklist", nil, &rr); err != nil {
		return nil, err
	}

	return c.receipt(rr), nil
}

func (c *Client) ResetIdentities(ctx context.Context, keys []chain.Hash) (_ *entity.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "ResetIdentities")
	defer func() { c.endSpan(span, err) }()

	hexKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		hexKeys = append(hexKeys, key.Hex())
	}

	body := struct {
		Keys []string `json:"keys"`
	}{hexKeys}

	var rr receiptResponse
	if err = c.call(ctx, http.MethodPost, "/identities/reset", body, &rr); err != nil {
		return nil, err
	}

	return c.receipt(rr), nil
}

type detailsResponse struct {
	Commitment string `json:"commitment_value"`
	Index      uint64 `json:"index"`
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
}

// GetDetails is read-only, so transient ledger failures are retried with a
// capped fibonacci backoff before giving up.
func (c *Client) GetDetails(ctx context.Context, key chain.Hash) (_ *entity.OtpDetails, err error) {
	ctx, span := c.startSpan(ctx, "GetDetails")
	defer func() { c.endSpan(span, err) }()

	var dr detailsResponse
	err = retry.Do(ctx, c.readBackoff(), func(ctx context.Context) error {
		if err := c.call(ctx, http.MethodGet, "/identities/"+key.Hex(), nil, &dr); err != nil {
			if errors.Is(err, entity.ErrLedgerUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	commitment, err := chain.ParseHex(dr.Commitment)
	if err != nil {
		return nil, err
	}

	return &entity.OtpDetails{
		Commitment: commitment,
		Index:      dr.Index,
		Window:     entity.Window{Start: dr.StartTime, End: dr.EndTime},
	}, nil
}

func (c *Client) HasRole(ctx context.Context, role, account string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "HasRole")
	defer func() { c.endSpan(span, err) }()

	var out struct {
		HasRole bool `json:"has_role"`
	}
	err = retry.Do(ctx, c.readBackoff(), func(ctx context.Context) error {
		if err := c.call(ctx, http.MethodGet, "/roles/"+role+"/accounts/"+account, nil, &out); err != nil {
			if errors.Is(err, entity.ErrLedgerUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return out.HasRole, nil
}

func (c *Client) readBackoff() retry.Backoff {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxRetries(3, b)
}
