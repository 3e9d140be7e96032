// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/access"
	"github.com/relabs-tech/folio/core/backend/kss"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/notify"
	"github.com/relabs-tech/folio/core/schema"
	"github.com/relabs-tech/folio/core/store"
)

// Defaults for optional Builder fields
const (
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultNotifyTimeout   = 10 * time.Second
)

// Backend is the portfolio REST backend
type Backend struct {
	store         store.Store
	degraded      bool
	validator     *schema.Portfolio
	issuer        *access.Issuer
	notifier      core.Notifier
	uploads       kss.Driver
	router        *mux.Router
	handler       http.Handler
	accessLog     io.Closer
	refreshTTL    time.Duration
	notifyTimeout time.Duration
	corsOrigins   []string

	globalLimiter  *rateLimiter
	contactLimiter *rateLimiter

	notifications sync.WaitGroup
	now           func() time.Time
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Store is the entity store. This is mandatory.
	Store store.Store
	// Degraded reports that Store is the fallback for an unreachable backend.
	Degraded bool
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Issuer signs and verifies access tokens. This is mandatory.
	Issuer *access.Issuer
	// Validator validates request bodies. Defaults to a validator with skill levels.
	Validator *schema.Portfolio
	// Notifier is told about created contacts. This is optional.
	Notifier core.Notifier
	// Uploads stores uploaded images. Without it the upload routes fail with 500.
	Uploads kss.Driver
	// RefreshTokenTTL is the lifetime of refresh tokens, DefaultRefreshTokenTTL if zero.
	RefreshTokenTTL time.Duration
	// NotifyTimeout bounds a single notification, DefaultNotifyTimeout if zero.
	NotifyTimeout time.Duration
	// CORSOrigins are the allowed origins. Empty allows any origin.
	CORSOrigins []string
	// RateLimit applies to every /api route, DefaultRateLimit if zero.
	RateLimit RateLimit
	// ContactRateLimit applies to contact submissions, DefaultContactRateLimit if zero.
	ContactRateLimit RateLimit
}

// New realizes the actual backend and adds its routes to the router
func New(bb *Builder) *Backend {
	if bb.Store == nil {
		panic("Store is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Issuer == nil {
		panic("Issuer is missing")
	}

	b := &Backend{
		store:         bb.Store,
		degraded:      bb.Degraded,
		validator:     bb.Validator,
		issuer:        bb.Issuer,
		notifier:      bb.Notifier,
		uploads:       bb.Uploads,
		router:        bb.Router,
		refreshTTL:    bb.RefreshTokenTTL,
		notifyTimeout: bb.NotifyTimeout,
		corsOrigins:   bb.CORSOrigins,
		now:           time.Now,
	}
	if b.validator == nil {
		b.validator = schema.MustNewPortfolio(true)
	}
	if b.notifier == nil {
		b.notifier = notify.Nop{}
	}
	if b.refreshTTL == 0 {
		b.refreshTTL = DefaultRefreshTokenTTL
	}
	if b.notifyTimeout == 0 {
		b.notifyTimeout = DefaultNotifyTimeout
	}
	b.globalLimiter = newRateLimiter(bb.RateLimit.orDefault(DefaultRateLimit), msgTooManyRequests)
	b.contactLimiter = newRateLimiter(bb.ContactRateLimit.orDefault(DefaultContactRateLimit), msgTooManyContacts)

	b.handleRoutes(b.router)

	accessLog := logger.Default().Logger.Writer()
	b.accessLog = accessLog
	var h http.Handler = b.router
	h = handlers.CompressHandler(h)
	h = b.handleCORS(h)
	h = handlers.CombinedLoggingHandler(accessLog, h)
	h = handlers.ProxyHeaders(h)
	b.handler = h
	return b
}

// ServeHTTP serves the API with the complete middleware chain
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.handler.ServeHTTP(w, r)
}

// Router returns the bare router without the outer middleware chain
func (b *Backend) Router() *mux.Router {
	return b.router
}

// WaitForNotifications blocks until all pending notifications are done
func (b *Backend) WaitForNotifications() {
	b.notifications.Wait()
}

// Close waits for pending notifications and releases the access log writer
func (b *Backend) Close() error {
	b.WaitForNotifications()
	return b.accessLog.Close()
}

// handleRoutes adds all routes below /api
func (b *Backend) handleRoutes(router *mux.Router) {
	logger.Default().Debugln("backend: HandleRoutes")

	router.NotFoundHandler = http.HandlerFunc(routeNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(routeNotFound)
	logger.AddRequestID(router)
	router.Use(recovery)

	// mux skips middlewares for unmatched requests, so the limiter wraps the
	// fallback handlers of the api subrouter as well
	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = b.globalLimiter.Middleware(router.NotFoundHandler)
	api.MethodNotAllowedHandler = b.globalLimiter.Middleware(router.MethodNotAllowedHandler)
	api.Use(b.globalLimiter.Middleware)

	b.handleHealth(api)
	b.handleProjects(api)
	b.handleSkills(api)
	b.handleContacts(api)
	b.handleStats(api)
	b.handleUploads(api)
	b.handleAuth(api)
}
