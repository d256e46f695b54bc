package mq

import (
	"context"
	"encoding/json"

	"github.com/vkng1104/otpchain/internal/banking/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/messaging"
	"github.com/vkng1104/otpchain/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPaymentSettled(ctx context.Context, msg usecase.PaymentSettledEvent) error {
	ctx, span := m.ins.Tracer("banking.outbound.mq").Start(ctx, "PublishPaymentSettled")
	defer span.End()

	body, err := json.Marshal(event.PaymentSettledMessage{
		TransactionID:   msg.TransactionID,
		UserID:          msg.UserID,
		CounterpartID:   msg.CounterpartID,
		CounterpartName: msg.CounterpartName,
		Currency:        msg.Currency,
		Amount:          msg.Amount,
		LedgerRef:       msg.LedgerRef,
		ReceiptKey:      msg.ReceiptKey,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.PaymentSettledDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishTransferCompleted(ctx context.Context, msg usecase.TransferCompletedEvent) error {
	ctx, span := m.ins.Tracer("banking.outbound.mq").Start(ctx, "PublishTransferCompleted")
	defer span.End()

	body, err := json.Marshal(event.TransferCompletedMessage{
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Currency:    msg.Currency,
		Amount:      msg.Amount,
		ReferenceID: msg.ReferenceID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.TransferCompletedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
