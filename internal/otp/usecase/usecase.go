package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/clock"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/hash"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/jwt"
	"github.com/vkng1104/otpchain/internal/pkg/uid"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateIndexCounter(ctx context.Context, id int64, userID, authProviderID string) error
	GetIndex(ctx context.Context, userID, authProviderID string) (uint64, error)
	WithIndexLock(ctx context.Context, userID, authProviderID string, fn func(ctx context.Context, index uint64, increment func() error) error) error
	DeleteCountersByUser(ctx context.Context, userID string) error
}

type repoCache interface {
	StagePendingOtp(ctx context.Context, userID, code string, entry entity.PendingOtp, ttl time.Duration) error
	GetPendingOtp(ctx context.Context, userID, code string) (*entity.PendingOtp, error)
}

// Ledger is the outbound commitment ledger gateway. Exported so the module
// wiring can accept any implementation.
type Ledger interface {
	RegisterIdentity(ctx context.Context, key chain.Hash, payload entity.RegistrationPayload, signature string) (*entity.Receipt, error)
	UpdateWindow(ctx context.Context, key chain.Hash, window entity.Window) (*entity.Receipt, error)
	Verify(ctx context.Context, key chain.Hash, index uint64, payload entity.VerifyPayload, signature string) (*entity.Receipt, error)
	Blacklist(ctx context.Context, key chain.Hash) (*entity.Receipt, error)
	Unblacklist(ctx context.Context, key chain.Hash) (*entity.Receipt, error)
	ResetIdentities(ctx context.Context, keys []chain.Hash) (*entity.Receipt, error)
	GetDetails(ctx context.Context, key chain.Hash) (*entity.OtpDetails, error)
	HasRole(ctx context.Context, role, account string) (bool, error)
}

// AuthProviderValidator is the external auth collaborator. Credential
// checking itself is out of scope here; this service only needs the
// validated provider handle to bind the chain to.
type AuthProviderValidator interface {
	ValidateCredential(ctx context.Context, in entity.CredentialInput) (*entity.AuthProviderHandle, error)
	ProviderByID(ctx context.Context, authProviderID, userID string) (*entity.AuthProviderHandle, error)
	ProvidersByUser(ctx context.Context, userID string) ([]entity.AuthProviderHandle, error)
}

// IdentityReader reads secret identity material from the external user
// collaborator at call time.
type IdentityReader interface {
	SensitiveDetails(ctx context.Context, userID string) (*entity.SensitiveIdentity, error)
}

type Usecase struct {
	repoDB       repoDB
	repoCache    repoCache
	ledger       Ledger
	authProvider AuthProviderValidator
	identity     IdentityReader
	validator    validator.Validator
	cfg          config.Config
	uid          uid.NumberID
	clock        clock.Clocker
	ins          instrument.Instrumentation

	servicePublicKey string
	codeDigits       int
}

type Dependency struct {
	RepoDB       repoDB
	RepoCache    repoCache
	Ledger       Ledger
	AuthProvider AuthProviderValidator
	Identity     IdentityReader
	Validator    validator.Validator
	Config       config.Config
	UID          uid.NumberID
	Clock        clock.Clocker
	Instrument   instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	digits := dep.Config.GetInt("modules.otp.code_digits")
	if digits == 0 {
		digits = 6
	}

	return &Usecase{
		repoDB:           dep.RepoDB,
		repoCache:        dep.RepoCache,
		ledger:           dep.Ledger,
		authProvider:     dep.AuthProvider,
		identity:         dep.Identity,
		validator:        dep.Validator,
		cfg:              dep.Config,
		uid:              dep.UID,
		clock:            dep.Clock,
		ins:              dep.Instrument,
		servicePublicKey: dep.Config.GetString("modules.otp.service_public_key"),
		codeDigits:       digits,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// requireAdmin gates the moderation endpoints on the ledger's own role
// registry, so an operator revoked on the ledger loses access here too.
func (s *Usecase) requireAdmin(ctx context.Context, clm *jwt.Claims) error {
	ok, err := s.ledger.HasRole(ctx, "admin", clm.UserEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check ledger role", "user_id", clm.UserID, "error", err)
		return s.mapLedgerError(err)
	}
	if !ok {
		return goerror.NewBusiness("account not allowed", goerror.CodeForbidden)
	}

	return nil
}

// bindingFor derives the opaque ledger key for one identity binding.
func (s *Usecase) bindingFor(userID, providerID string) chain.Hash {
	return chain.BindingKey(userID, s.servicePublicKey, providerID)
}

// commitmentAt derives the chain commitment for one identity at the given
// index. The raw preimage never leaves the process.
func (s *Usecase) commitmentAt(ident *entity.SensitiveIdentity, providerID string, index uint64) chain.Hash {
	return chain.Commitment(chain.DeriveRaw(ident.Username, providerID, ident.SecretKey, index))
}

// signPayload produces an HMAC signature over a canonical rendering of the
// payload fields keyed by the user's secret. Field order is fixed so both
// sides derive the same string; optional context metadata is appended as
// key-sorted pairs.
func (s *Usecase) signPayload(secret string, fields []string, metadata valueobject.JSONMap) (string, error) {
	parts := make([]string, 0, len(fields)+len(metadata))
	parts = append(parts, fields...)

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := json.Marshal(metadata[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, k+"="+string(v))
	}

	sig, err := hash.NewHMACSHA256(secret).Hash(strings.Join(parts, "|"))
	if err != nil {
		return "", err
	}

	return string(sig), nil
}

// mapLedgerError turns gateway errors into API-facing ones. Rejections are
// the caller's problem, replay is a conflict, unavailability is retryable.
func (s *Usecase) mapLedgerError(err error) error {
	switch {
	case errors.Is(err, entity.ErrLedgerReplay):
		return goerror.NewBusiness("code already used", goerror.CodeConflict)
	case errors.Is(err, entity.ErrLedgerRejected):
		return goerror.NewBusiness("invalid otp", goerror.CodeUnauthorized)
	case errors.Is(err, entity.ErrLedgerUnavailable):
		return goerror.NewBusiness("ledger unavailable, retry later", goerror.CodeTimeout)
	default:
		return goerror.NewServer(err)
	}
}

func (s *Usecase) sensitiveIdentity(ctx context.Context, userID string) (*entity.SensitiveIdentity, error) {
	ident, err := s.identity.SensitiveDetails(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user identity not found", "user_id", userID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read user identity", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return ident, nil
}
