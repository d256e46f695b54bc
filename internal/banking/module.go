// Package banking implements accounts, atomic transfers, and OTP-confirmed
// payments.
package banking

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vkng1104/otpchain/internal/banking/inbound"
	"github.com/vkng1104/otpchain/internal/banking/outbound/cache"
	"github.com/vkng1104/otpchain/internal/banking/outbound/db"
	"github.com/vkng1104/otpchain/internal/banking/outbound/mq"
	"github.com/vkng1104/otpchain/internal/banking/outbound/receipt"
	"github.com/vkng1104/otpchain/internal/banking/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/clock"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/goroutine"
	"github.com/vkng1104/otpchain/internal/pkg/idempotency"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/messaging"
	"github.com/vkng1104/otpchain/internal/pkg/router"
	"github.com/vkng1104/otpchain/internal/pkg/storage"
	"github.com/vkng1104/otpchain/internal/pkg/uid"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   *redis.Client              `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	OtpVerifier usecase.OtpVerifier        `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	OID         uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMQ := mq.NewMessaging(dep.Messaging, dep.Instrument)
	receipts := receipt.NewStore(dep.Storage, dep.Config.GetString("modules.banking.receipt_bucket"), dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoCache:     repoCache,
		RepoMessaging: repoMQ,
		Receipts:      receipts,
		OtpVerifier:   dep.OtpVerifier,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		UID:           dep.UID,
		OID:           dep.OID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
