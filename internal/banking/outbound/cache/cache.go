package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Cache stages payments between initiation and OTP confirmation under
// otp:<user>:<transaction>. Amount and currency are written once at
// initiation; settlement rewrites the entry with only the status changed.
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

func (s *Cache) key(userID, transactionID string) string {
	return "otp:" + userID + ":" + transactionID
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("banking.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// StagePendingPayment writes the payment entry with the given TTL.
func (s *Cache) StagePendingPayment(ctx context.Context, payment entity.PendingPayment, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "StagePendingPayment")
	defer func() { s.endSpan(span, err) }()

	raw, err := json.Marshal(payment)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(payment.UserID, payment.TransactionID), raw, ttl).Err()
}

// GetPendingPayment returns the staged payment or ErrNotFound when the
// transaction id is unknown or the entry expired.
func (s *Cache) GetPendingPayment(ctx context.Context, userID, transactionID string) (_ *entity.PendingPayment, err error) {
	ctx, span := s.startSpan(ctx, "GetPendingPayment")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, s.key(userID, transactionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var payment entity.PendingPayment
	if err = json.Unmarshal(raw, &payment); err != nil {
		return nil, err
	}

	return &payment, nil
}

// UpdatePaymentStatus rewrites the entry with a new status, keeping the
// remaining TTL so a settled entry ages out on the original schedule.
func (s *Cache) UpdatePaymentStatus(ctx context.Context, userID, transactionID string, status entity.PaymentStatus) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePaymentStatus")
	defer func() { s.endSpan(span, err) }()

	payment, err := s.GetPendingPayment(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	payment.Status = status
	raw, err := json.Marshal(payment)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(userID, transactionID), raw, redis.KeepTTL).Err()
}
