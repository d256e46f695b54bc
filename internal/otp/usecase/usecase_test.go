package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/jwt"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
)

const (
	testUserID     = "0d9bdd65-92c8-4a29-8e16-7a4a3c3f1a01"
	testProviderID = "f2f2a3a9-6c41-4f60-9f0b-2be0b6f7d9c2"
	testUsername   = "alice"
	testSecret     = "super-secret-material"
	testServiceKey = "0xservice"
)

type fakeDB struct {
	mu        sync.Mutex
	counters  map[string]uint64
	createErr error
	created   []string
	deleted   []string
}

func counterKey(userID, authProviderID string) string {
	return userID + "|" + authProviderID
}

func (f *fakeDB) CreateIndexCounter(_ context.Context, _ int64, userID, authProviderID string) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.counters[counterKey(userID, authProviderID)]; ok {
		return goerror.ErrConflict
	}
	f.counters[counterKey(userID, authProviderID)] = 0
	f.created = append(f.created, counterKey(userID, authProviderID))
	return nil
}

func (f *fakeDB) GetIndex(_ context.Context, userID, authProviderID string) (uint64, error) {
	index, ok := f.counters[counterKey(userID, authProviderID)]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	return index, nil
}

func (f *fakeDB) WithIndexLock(
	ctx context.Context,
	userID, authProviderID string,
	fn func(ctx context.Context, index uint64, increment func() error) error,
) error {
	// Serializes callers the way the row lock does.
	f.mu.Lock()
	defer f.mu.Unlock()

	key := counterKey(userID, authProviderID)
	index, ok := f.counters[key]
	if !ok {
		return goerror.ErrNotFound
	}

	next := index
	increment := func() error {
		next = index + 1
		return nil
	}

	if err := fn(ctx, index, increment); err != nil {
		return err
	}

	f.counters[key] = next
	return nil
}

func (f *fakeDB) DeleteCountersByUser(_ context.Context, userID string) error {
	for key := range f.counters {
		if len(key) >= len(userID) && key[:len(userID)] == userID {
			delete(f.counters, key)
			f.deleted = append(f.deleted, key)
		}
	}
	return nil
}

type fakeCache struct {
	entries  map[string]entity.PendingOtp
	ttls     map[string]time.Duration
	stageErr error
}

func (f *fakeCache) StagePendingOtp(_ context.Context, userID, code string, entry entity.PendingOtp, ttl time.Duration) error {
	if f.stageErr != nil {
		return f.stageErr
	}
	f.entries[userID+":"+code] = entry
	f.ttls[userID+":"+code] = ttl
	return nil
}

func (f *fakeCache) GetPendingOtp(_ context.Context, userID, code string) (*entity.PendingOtp, error) {
	entry, ok := f.entries[userID+":"+code]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entry, nil
}

type ledgerCall struct {
	name    string
	key     chain.Hash
	index   uint64
	payload any
	sig     string
}

type fakeLedger struct {
	calls []ledgerCall

	registerErr error
	windowErr   error
	verifyErr   error
	verifyFn    func(index uint64) error
	actionErr   error
	detailsErr  error

	details map[chain.Hash]entity.OtpDetails
	hasRole bool
	roleErr error
}

func (f *fakeLedger) receipt() *entity.Receipt {
	return &entity.Receipt{Ref: "0xreceipt", LogURL: "https://ledger.example/tx/0xreceipt"}
}

func (f *fakeLedger) RegisterIdentity(_ context.Context, key chain.Hash, payload entity.RegistrationPayload, sig string) (*entity.Receipt, error) {
	f.calls = append(f.calls, ledgerCall{name: "register", key: key, payload: payload, sig: sig})
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.receipt(), nil
}

func (f *fakeLedger) UpdateWindow(_ context.Context, key chain.Hash, window entity.Window) (*entity.Receipt, error) {
	f.calls = append(f.calls, ledgerCall{name: "window", key: key, payload: window})
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	return f.receipt(), nil
}

func (f *fakeLedger) Verify(_ context.Context, key chain.Hash, index uint64, payload entity.VerifyPayload, sig string) (*entity.Receipt, error) {
	f.calls = append(f.calls, ledgerCall{name: "verify", key: key, index: index, payload: payload, sig: sig})
	if f.verifyFn != nil {
		if err := f.verifyFn(index); err != nil {
			return nil, err
		}
	}
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.receipt(), nil
}

func (f *fakeLedger) Blacklist(_ context.Context, key chain.Hash) (*entity.Receipt, error) {
	f.calls = append(f.calls, ledgerCall{name: "blacklist", key: key})
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return f.receipt(), nil
}

func (f *fakeLedger) Unblacklist(_ context.Context, key chain.Hash) (*entity.Receipt, error) {
	f.calls = append(f.calls, ledgerCall{name: "unblacklist", key: key})
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return f.receipt(), nil
}

func (f *fakeLedger) ResetIdentities(_ context.Context, keys []chain.Hash) (*entity.Receipt, error) {
	f.calls = append(f.calls, ledgerCall{name: "reset", payload: keys})
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return f.receipt(), nil
}

func (f *fakeLedger) GetDetails(_ context.Context, key chain.Hash) (*entity.OtpDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	details, ok := f.details[key]
	if !ok {
		return nil, entity.ErrLedgerRejected
	}
	return &details, nil
}

func (f *fakeLedger) HasRole(_ context.Context, _, _ string) (bool, error) {
	if f.roleErr != nil {
		return false, f.roleErr
	}
	return f.hasRole, nil
}

type fakeAuthProvider struct {
	providers   map[string]entity.AuthProviderHandle
	validateErr error
}

func (f *fakeAuthProvider) ValidateCredential(_ context.Context, in entity.CredentialInput) (*entity.AuthProviderHandle, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	provider, ok := f.providers[in.ProviderID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &provider, nil
}

func (f *fakeAuthProvider) ProviderByID(_ context.Context, authProviderID, _ string) (*entity.AuthProviderHandle, error) {
	provider, ok := f.providers[authProviderID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &provider, nil
}

func (f *fakeAuthProvider) ProvidersByUser(_ context.Context, userID string) ([]entity.AuthProviderHandle, error) {
	result := make([]entity.AuthProviderHandle, 0, len(f.providers))
	for _, provider := range f.providers {
		if provider.UserID == userID {
			result = append(result, provider)
		}
	}
	return result, nil
}

type fakeIdentity struct {
	identity *entity.SensitiveIdentity
	err      error
}

func (f *fakeIdentity) SensitiveDetails(context.Context, string) (*entity.SensitiveIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeConfig struct {
	config.Config
}

func (fakeConfig) GetInt(string) int { return 6 }

func (fakeConfig) GetString(key string) string {
	if key == "modules.otp.service_public_key" {
		return testServiceKey
	}
	return ""
}

func (fakeConfig) GetSecond(string) time.Duration { return 5 * time.Minute }

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

type fixture struct {
	uc     *Usecase
	db     *fakeDB
	cache  *fakeCache
	ledger *fakeLedger
	auth   *fakeAuthProvider
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	db := &fakeDB{counters: map[string]uint64{}}
	cache := &fakeCache{entries: map[string]entity.PendingOtp{}, ttls: map[string]time.Duration{}}
	ledger := &fakeLedger{details: map[chain.Hash]entity.OtpDetails{}}
	auth := &fakeAuthProvider{providers: map[string]entity.AuthProviderHandle{
		testProviderID: {ID: testProviderID, UserID: testUserID, Provider: "password"},
	}}

	uc := New(Dependency{
		RepoDB:       db,
		RepoCache:    cache,
		Ledger:       ledger,
		AuthProvider: auth,
		Identity: &fakeIdentity{identity: &entity.SensitiveIdentity{
			Username:  testUsername,
			SecretKey: testSecret,
			PublicKey: "0xalice",
		}},
		Validator:  v,
		Config:     fakeConfig{},
		UID:        &fakeNumberID{},
		Clock:      &fakeClock{now: now},
		Instrument: instrument.NewNoop(),
	})

	return &fixture{uc: uc, db: db, cache: cache, ledger: ledger, auth: auth, now: now}
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
