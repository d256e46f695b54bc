package usecase

import (
	"context"
	"time"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/clock"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/goroutine"
	"github.com/vkng1104/otpchain/internal/pkg/idempotency"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/jwt"
	"github.com/vkng1104/otpchain/internal/pkg/uid"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

type PaymentSettledEvent struct {
	TransactionID   string
	UserID          string
	CounterpartID   string
	CounterpartName string
	Currency        string
	Amount          int64
	LedgerRef       string
	ReceiptKey      string
}

type TransferCompletedEvent struct {
	SenderID    string
	RecipientID string
	Currency    string
	Amount      int64
	ReferenceID string
}

type repoDB interface {
	CreateAccount(ctx context.Context, in entity.NewAccount) (*entity.AccountBalance, error)
	GetAccount(ctx context.Context, ownerID string, currency entity.Currency) (*entity.AccountBalance, error)
	ListAccounts(ctx context.Context, ownerID string) ([]entity.AccountBalance, error)
	ListHistories(ctx context.Context, filter entity.HistoryFilter) ([]entity.TransactionHistory, int64, error)
	Transfer(ctx context.Context, in entity.TransferSpec) (*entity.TransferResult, error)
}

type repoCache interface {
	StagePendingPayment(ctx context.Context, payment entity.PendingPayment, ttl time.Duration) error
	GetPendingPayment(ctx context.Context, userID, transactionID string) (*entity.PendingPayment, error)
	UpdatePaymentStatus(ctx context.Context, userID, transactionID string, status entity.PaymentStatus) error
}

type repoMessaging interface {
	PublishPaymentSettled(ctx context.Context, msg PaymentSettledEvent) error
	PublishTransferCompleted(ctx context.Context, msg TransferCompletedEvent) error
}

type receiptStore interface {
	Key(transactionID string) string
	Put(ctx context.Context, receipt entity.SettlementReceipt) (string, error)
}

// OtpReceipt is what this module needs back from an accepted verification.
type OtpReceipt struct {
	LedgerRef string
	LogURL    string
}

// OtpVerifier authorizes a payment with a one-time code. Implemented by the
// otp module behind an adapter in the application wiring.
type OtpVerifier interface {
	VerifyPayment(ctx context.Context, userID, code string, metadata valueobject.JSONMap) (*OtpReceipt, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	receipts      receiptStore
	otp           OtpVerifier
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	oid           uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	settlementOwnerID string
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Receipts      receiptStore
	OtpVerifier   OtpVerifier
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	UID           uid.NumberID
	OID           uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:            dep.RepoDB,
		repoCache:         dep.RepoCache,
		repoMessaging:     dep.RepoMessaging,
		receipts:          dep.Receipts,
		otp:               dep.OtpVerifier,
		idemp:             dep.Idempotency,
		validator:         dep.Validator,
		cfg:               dep.Config,
		uid:               dep.UID,
		oid:               dep.OID,
		clock:             dep.Clock,
		ins:               dep.Instrument,
		goroutine:         dep.Goroutine,
		settlementOwnerID: dep.Config.GetString("modules.banking.settlement_owner_id"),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("banking.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}
