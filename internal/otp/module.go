// Package otp implements hash-chain one-time-password workflows backed by an
// external commitment ledger.
package otp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vkng1104/otpchain/internal/otp/inbound"
	"github.com/vkng1104/otpchain/internal/otp/outbound/cache"
	"github.com/vkng1104/otpchain/internal/otp/outbound/db"
	"github.com/vkng1104/otpchain/internal/otp/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/clock"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/router"
	"github.com/vkng1104/otpchain/internal/pkg/uid"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
)

type Dependency struct {
	DBConn       *pgxpool.Pool                  `validate:"required"`
	CacheConn    *redis.Client                  `validate:"required"`
	Router       *router.Router                 `validate:"required"`
	Ledger       usecase.Ledger                 `validate:"required"`
	AuthProvider usecase.AuthProviderValidator  `validate:"required"`
	Identity     usecase.IdentityReader         `validate:"required"`
	Config       config.Config                  `validate:"required"`
	Instrument   instrument.Instrumentation     `validate:"required"`
	UID          uid.NumberID                   `validate:"required"`
	Clock        clock.Clocker                  `validate:"required"`
	Validator    validator.Validator            `validate:"required"`
}

// New wires the module and returns its usecase so other modules can delegate
// code verification to it.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:       repoDB,
		RepoCache:    repoCache,
		Ledger:       dep.Ledger,
		AuthProvider: dep.AuthProvider,
		Identity:     dep.Identity,
		Validator:    dep.Validator,
		Config:       dep.Config,
		UID:          dep.UID,
		Clock:        dep.Clock,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
