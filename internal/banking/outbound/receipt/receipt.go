// Package receipt persists settlement receipts to object storage. The
// receipt pairs an internal movement with the ledger reference that
// authorized it, keyed deterministically by transaction id.
package receipt

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Store struct {
	storage storage.Storage
	bucket  string
	ins     instrument.Instrumentation
}

func NewStore(st storage.Storage, bucket string, ins instrument.Instrumentation) *Store {
	return &Store{
		storage: st,
		bucket:  bucket,
		ins:     ins,
	}
}

// Key returns the object key a receipt will live under, usable before the
// receipt itself is written.
func (s *Store) Key(transactionID string) string {
	return "receipts/" + transactionID + ".json"
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("banking.outbound.receipt").Start(ctx, name)
}

// Put writes the receipt JSON and returns its object key.
func (s *Store) Put(ctx context.Context, receipt entity.SettlementReceipt) (_ string, err error) {
	ctx, span := s.startSpan(ctx, "Put")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(receipt)
	if err != nil {
		return "", err
	}

	key := s.Key(receipt.TransactionID)
	if _, err = s.storage.PutObject(ctx, s.bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"transaction-id": receipt.TransactionID,
			"ledger-ref":     receipt.LedgerRef,
		},
	}); err != nil {
		return "", err
	}

	return key, nil
}

// Get reads back a stored receipt.
func (s *Store) Get(ctx context.Context, transactionID string) (_ *entity.SettlementReceipt, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rc, _, err := s.storage.GetObject(ctx, s.bucket, s.Key(transactionID), storage.GetOptions{})
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var receipt entity.SettlementReceipt
	if err = json.NewDecoder(rc).Decode(&receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}
