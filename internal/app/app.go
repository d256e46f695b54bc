package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vkng1104/otpchain/internal/otp/outbound/identity"
	"github.com/vkng1104/otpchain/internal/otp/outbound/ledger"
	"github.com/vkng1104/otpchain/internal/pkg/clock"
	"github.com/vkng1104/otpchain/internal/pkg/config"
	"github.com/vkng1104/otpchain/internal/pkg/goroutine"
	"github.com/vkng1104/otpchain/internal/pkg/idempotency"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
	"github.com/vkng1104/otpchain/internal/pkg/jwt"
	"github.com/vkng1104/otpchain/internal/pkg/messaging"
	"github.com/vkng1104/otpchain/internal/pkg/router"
	"github.com/vkng1104/otpchain/internal/pkg/storage"
	"github.com/vkng1104/otpchain/internal/pkg/uid"
	"github.com/vkng1104/otpchain/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage
	ledger    *ledger.Client
	identity  *identity.Client

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initExternalClients()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
