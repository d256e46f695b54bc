package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Cache stages generated but not yet redeemed codes in redis so verification
// can look up the chain preimage by the short numeric code. Entries expire on
// their own; replay safety lives in the index counter, not here.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{
		client: client,
		ins:    ins,
	}
}

type pendingOtpPayload struct {
	RawValue       string `json:"raw_value"`
	AuthProviderID string `json:"auth_provider_id"`
	NextCommitment string `json:"next_commitment"`
}

func (s *Cache) key(userID, code string) string {
	return "otp:" + userID + ":" + code
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// StagePendingOtp writes the entry under otp:<user>:<code>. A plain SET keeps
// regeneration of the same code within the window idempotent.
func (s *Cache) StagePendingOtp(ctx context.Context, userID, code string, entry entity.PendingOtp, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "StagePendingOtp")
	defer func() { s.endSpan(span, err) }()

	raw, err := json.Marshal(pendingOtpPayload{
		RawValue:       entry.RawValue.Hex(),
		AuthProviderID: entry.AuthProviderID,
		NextCommitment: entry.NextCommitment.Hex(),
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(userID, code), raw, ttl).Err()
}

// GetPendingOtp returns the staged entry or ErrNotFound when the code was
// never issued or has already expired.
func (s *Cache) GetPendingOtp(ctx context.Context, userID, code string) (_ *entity.PendingOtp, err error) {
	ctx, span := s.startSpan(ctx, "GetPendingOtp")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, s.key(userID, code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var payload pendingOtpPayload
	if err = json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	rawValue, err := chain.ParseHex(payload.RawValue)
	if err != nil {
		return nil, err
	}
	next, err := chain.ParseHex(payload.NextCommitment)
	if err != nil {
		return nil, err
	}

	return &entity.PendingOtp{
		RawValue:       rawValue,
		AuthProviderID: payload.AuthProviderID,
		NextCommitment: next,
	}, nil
}
