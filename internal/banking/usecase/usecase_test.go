package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/goroutine"
	"github.com/vkng1104/otpchain/internal/pkg/idempotency"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/jwt"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

const (
	testUserID       = "0d9bdd65-92c8-4a29-8e16-7a4a3c3f1a01"
	testRecipientID  = "f2f2a3a9-6c41-4f60-9f0b-2be0b6f7d9c2"
	testSettlementID = "9a1b0a77-8d3a-45b2-bb0f-5a6f1cf0c001"
	testMerchantID   = "merchant_742"
)

func accountKey(ownerID string, currency entity.Currency) string {
	return ownerID + "|" + currency.String()
}

type fakeDB struct {
	accounts  map[string]*entity.AccountBalance
	histories []entity.TransactionHistory

	createErr   error
	transferErr error
	transfers   []entity.TransferSpec
}

func (f *fakeDB) CreateAccount(_ context.Context, in entity.NewAccount) (*entity.AccountBalance, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	key := accountKey(in.OwnerID, in.Currency)
	if _, ok := f.accounts[key]; ok {
		return nil, goerror.ErrConflict
	}

	account := &entity.AccountBalance{
		ID:       in.ID,
		OwnerID:  in.OwnerID,
		Currency: in.Currency,
		Balance:  in.InitialBalance,
		Status:   in.Status,
	}
	f.accounts[key] = account
	return account, nil
}

func (f *fakeDB) GetAccount(_ context.Context, ownerID string, currency entity.Currency) (*entity.AccountBalance, error) {
	account, ok := f.accounts[accountKey(ownerID, currency)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return account, nil
}

func (f *fakeDB) ListAccounts(_ context.Context, ownerID string) ([]entity.AccountBalance, error) {
	var out []entity.AccountBalance
	for _, account := range f.accounts {
		if account.OwnerID == ownerID {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (f *fakeDB) ListHistories(_ context.Context, _ entity.HistoryFilter) ([]entity.TransactionHistory, int64, error) {
	return f.histories, int64(len(f.histories)), nil
}

func (f *fakeDB) Transfer(_ context.Context, in entity.TransferSpec) (*entity.TransferResult, error) {
	if f.transferErr != nil {
		return nil, f.transferErr
	}

	sender, ok := f.accounts[accountKey(in.SenderID, in.Currency)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	recipient, ok := f.accounts[accountKey(in.RecipientID, in.Currency)]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	if sender.Status != entity.AccountStatusActive || recipient.Status != entity.AccountStatusActive {
		return nil, entity.ErrAccountNotActive
	}
	if sender.Balance < in.Amount {
		return nil, entity.ErrInsufficientFunds
	}

	sender.Balance -= in.Amount
	recipient.Balance += in.Amount
	if in.SenderReferenceID == "" {
		in.SenderReferenceID = strconv.FormatInt(recipient.ID, 10)
	}
	if in.RecipientReferenceID == "" {
		in.RecipientReferenceID = strconv.FormatInt(sender.ID, 10)
	}
	f.transfers = append(f.transfers, in)

	return &entity.TransferResult{
		SenderBalance:    sender.Balance,
		RecipientBalance: recipient.Balance,
	}, nil
}

type fakeCache struct {
	payments map[string]entity.PendingPayment
	ttls     map[string]time.Duration
	stageErr error
}

func paymentKey(userID, transactionID string) string {
	return userID + ":" + transactionID
}

func (f *fakeCache) StagePendingPayment(_ context.Context, payment entity.PendingPayment, ttl time.Duration) error {
	if f.stageErr != nil {
		return f.stageErr
	}
	key := paymentKey(payment.UserID, payment.TransactionID)
	f.payments[key] = payment
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) GetPendingPayment(_ context.Context, userID, transactionID string) (*entity.PendingPayment, error) {
	payment, ok := f.payments[paymentKey(userID, transactionID)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &payment, nil
}

func (f *fakeCache) UpdatePaymentStatus(_ context.Context, userID, transactionID string, status entity.PaymentStatus) error {
	key := paymentKey(userID, transactionID)
	payment, ok := f.payments[key]
	if !ok {
		return goerror.ErrNotFound
	}
	payment.Status = status
	f.payments[key] = payment
	return nil
}

type fakeMessaging struct {
	mu        sync.Mutex
	settled   []PaymentSettledEvent
	completed []TransferCompletedEvent
}

func (f *fakeMessaging) PublishPaymentSettled(_ context.Context, msg PaymentSettledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled = append(f.settled, msg)
	return nil
}

func (f *fakeMessaging) PublishTransferCompleted(_ context.Context, msg TransferCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, msg)
	return nil
}

func (f *fakeMessaging) settledEvents() []PaymentSettledEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PaymentSettledEvent(nil), f.settled...)
}

func (f *fakeMessaging) completedEvents() []TransferCompletedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TransferCompletedEvent(nil), f.completed...)
}

type fakeReceipts struct {
	mu     sync.Mutex
	stored []entity.SettlementReceipt
	putErr error
}

func (f *fakeReceipts) Key(transactionID string) string {
	return "receipts/" + transactionID + ".json"
}

func (f *fakeReceipts) Put(_ context.Context, receipt entity.SettlementReceipt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.stored = append(f.stored, receipt)
	return f.Key(receipt.TransactionID), nil
}

func (f *fakeReceipts) receipts() []entity.SettlementReceipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.SettlementReceipt(nil), f.stored...)
}

type otpCall struct {
	userID   string
	code     string
	metadata valueobject.JSONMap
}

type fakeOtp struct {
	calls []otpCall
	err   error
}

func (f *fakeOtp) VerifyPayment(_ context.Context, userID, code string, metadata valueobject.JSONMap) (*OtpReceipt, error) {
	f.calls = append(f.calls, otpCall{userID: userID, code: code, metadata: metadata})
	if f.err != nil {
		return nil, f.err
	}
	return &OtpReceipt{LedgerRef: "0xreceipt", LogURL: "https://ledger.example/tx/0xreceipt"}, nil
}

type fakeIdempotency struct {
	states map[string]idempotency.State
}

func (f *fakeIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateInProgress, nil
}

func (f *fakeIdempotency) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	f.states[key] = idempotency.StateCompleted
	return nil
}

func (f *fakeIdempotency) MarkFailed(_ context.Context, key string, _ time.Duration) error {
	f.states[key] = idempotency.StateFailed
	return nil
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	switch f.states[key] {
	case idempotency.StateInProgress:
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		return idempotency.ErrAlreadyCompleted
	case idempotency.StateFailed:
		return idempotency.ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		f.states[key] = idempotency.StateFailed
		return err
	}

	f.states[key] = idempotency.StateCompleted
	return nil
}

type fakeConfig struct {
	config.Config
}

func (fakeConfig) GetString(key string) string {
	if key == "modules.banking.settlement_owner_id" {
		return testSettlementID
	}
	return ""
}

func (fakeConfig) GetSecond(string) time.Duration { return 2 * time.Minute }

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeNumberID struct {
	next int64
}

func (f *fakeNumberID) Generate() int64 {
	f.next++
	return f.next
}

type fakeStringID struct {
	next int
}

func (f *fakeStringID) Generate() string {
	f.next++
	return "01J" + string(rune('A'+f.next-1)) + "X4R9T6QW"
}

type fixture struct {
	uc        *Usecase
	db        *fakeDB
	cache     *fakeCache
	mq        *fakeMessaging
	receipts  *fakeReceipts
	otp       *fakeOtp
	idemp     *fakeIdempotency
	goroutine *goroutine.Manager
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	db := &fakeDB{accounts: map[string]*entity.AccountBalance{}}
	cache := &fakeCache{payments: map[string]entity.PendingPayment{}, ttls: map[string]time.Duration{}}
	mq := &fakeMessaging{}
	receipts := &fakeReceipts{}
	otp := &fakeOtp{}
	idemp := &fakeIdempotency{states: map[string]idempotency.State{}}
	manager := goroutine.NewManager(4)

	uc := New(Dependency{
		RepoDB:        db,
		RepoCache:     cache,
		RepoMessaging: mq,
		Receipts:      receipts,
		OtpVerifier:   otp,
		Idempotency:   idemp,
		Validator:     v,
		Config:        fakeConfig{},
		UID:           &fakeNumberID{},
		OID:           &fakeStringID{},
		Clock:         &fakeClock{now: now},
		Instrument:    instrument.NewNoop(),
		Goroutine:     manager,
	})

	return &fixture{
		uc:        uc,
		db:        db,
		cache:     cache,
		mq:        mq,
		receipts:  receipts,
		otp:       otp,
		idemp:     idemp,
		goroutine: manager,
		now:       now,
	}
}

func (f *fixture) seedAccount(ownerID string, currency entity.Currency, balance int64, status entity.AccountStatus) {
	f.db.accounts[accountKey(ownerID, currency)] = &entity.AccountBalance{
		ID:       int64(len(f.db.accounts) + 1),
		OwnerID:  ownerID,
		Currency: currency,
		Balance:  balance,
		Status:   status,
	}
}

func authedCtx(userID string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: "alice@example.com"})
}

func assertBusinessCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	gerr, ok := err.(*goerror.Error)
	if !ok {
		t.Fatalf("expected goerror.Error, got %T: %v", err, err)
	}
	if gerr.Code() != code {
		t.Fatalf("expected code %v, got %v", code, gerr.Code())
	}
}
