package server

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	adminhandler "devspaces/internal/admin/handler"
	adminservice "devspaces/internal/admin/service"
	announcementhandler "devspaces/internal/announcement/handler"
	announcementrepo "devspaces/internal/announcement/repository"
	announcementservice "devspaces/internal/announcement/service"
	"devspaces/internal/audit"
	auditrepo "devspaces/internal/audit/repository"
	healthhandler "devspaces/internal/health/handler"
	identityhandler "devspaces/internal/identity/handler"
	identityrepo "devspaces/internal/identity/repository"
	identityservice "devspaces/internal/identity/service"
	membershiprepo "devspaces/internal/membership/repository"
	"devspaces/internal/memstore"
	"devspaces/internal/platform/rbac"
	policyengine "devspaces/internal/policy/engine"
	reporthandler "devspaces/internal/report/handler"
	reportrepo "devspaces/internal/report/repository"
	reportservice "devspaces/internal/report/service"
	"devspaces/internal/security"
	"devspaces/internal/server/middleware"
	taskhandler "devspaces/internal/task/handler"
	taskrepo "devspaces/internal/task/repository"
	taskservice "devspaces/internal/task/service"
	userhandler "devspaces/internal/user/handler"
	userrepo "devspaces/internal/user/repository"
	userservice "devspaces/internal/user/service"
	workspacehandler "devspaces/internal/workspace/handler"
	workspacerepo "devspaces/internal/workspace/repository"
	workspaceservice "devspaces/internal/workspace/service"
)

// Stores is the persistence behind every bounded context.
type Stores struct {
	Users         userrepo.Repository
	Identities    identityrepo.Repository
	Workspaces    workspacerepo.Repository
	Memberships   membershiprepo.Repository
	Tasks         taskrepo.Repository
	Announcements announcementrepo.Repository
	Reports       reportrepo.Repository
	AuditLogs     auditrepo.Repository
}

// PostgresStores returns Stores backed by db.
func PostgresStores(db *sql.DB) Stores {
	return Stores{
		Users:         userrepo.NewPostgresRepository(db),
		Identities:    identityrepo.NewPostgresRepository(db),
		Workspaces:    workspacerepo.NewPostgresRepository(db),
		Memberships:   membershiprepo.NewPostgresRepository(db),
		Tasks:         taskrepo.NewPostgresRepository(db),
		Announcements: announcementrepo.NewPostgresRepository(db),
		Reports:       reportrepo.NewPostgresRepository(db),
		AuditLogs:     auditrepo.NewPostgresRepository(db),
	}
}

// MemoryStores returns Stores backed by an in-process store.
func MemoryStores(s *memstore.Store) Stores {
	return Stores{
		Users:         s.Users(),
		Identities:    s.Identities(),
		Workspaces:    s.Workspaces(),
		Memberships:   s.Memberships(),
		Tasks:         s.Tasks(),
		Announcements: s.Announcements(),
		Reports:       s.Reports(),
		AuditLogs:     s.AuditLogs(),
	}
}

// Options configures the application beyond its stores.
type Options struct {
	Logger         *slog.Logger
	BootstrapEmail string
	BcryptCost     int
	Policy         policyengine.Evaluator
	// Tokens enables bearer access tokens when non-nil.
	Tokens   *security.TokenProvider
	Sessions *scs.SessionManager
	// AuditSink receives a copy of every audit event. May be nil.
	AuditSink      audit.EventSink
	AllowedOrigins []string
	// HealthDB is pinged by /healthz. May be nil.
	HealthDB healthhandler.Pinger
	// LoginRatePerMinute limits credential attempts per client IP; 0 disables the limit.
	LoginRatePerMinute int
	LoginRateBurst     int
	// TrustedProxy trusts X-Real-IP/X-Forwarded-For for the client IP.
	TrustedProxy bool
}

// NewApp wires services and handlers over stores and returns the HTTP handler.
func NewApp(stores Stores, opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Policy == nil {
		return nil, errors.New("server: admin policy evaluator is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = scs.New()
	}

	engine := rbac.NewEngine(stores.Users, stores.Memberships, logger)
	auth := identityservice.NewAuthService(stores.Users, stores.Identities, security.NewHasher(opts.BcryptCost), opts.BootstrapEmail, logger)
	profiles := userservice.NewProfileService(engine, stores.Users)
	workspaces := workspaceservice.NewService(engine, stores.Workspaces, stores.Memberships, stores.Users, logger)
	tasks := taskservice.NewService(engine, stores.Workspaces, stores.Tasks, stores.Memberships, logger)
	announcements := announcementservice.NewService(engine, stores.Workspaces, stores.Announcements, logger)
	reports := reportservice.NewService(engine, stores.Workspaces, stores.Reports)
	admin := adminservice.NewService(adminservice.Deps{
		Authz:         engine,
		Policy:        opts.Policy,
		Users:         stores.Users,
		Workspaces:    stores.Workspaces,
		Members:       stores.Memberships,
		Reports:       stores.Reports,
		Announcements: announcements,
		Audit:         stores.AuditLogs,
		Logger:        logger,
	})

	var (
		issuer    identityhandler.TokenIssuer
		validator middleware.TokenValidator
		checker   healthhandler.PolicyChecker
	)
	if opts.Tokens != nil {
		issuer, validator = opts.Tokens, opts.Tokens
	}
	if c, ok := opts.Policy.(healthhandler.PolicyChecker); ok {
		checker = c
	}
	identity := identityhandler.NewHandler(auth, opts.Sessions, issuer, logger)
	if limiter := middleware.NewRateLimiter(opts.LoginRatePerMinute, opts.LoginRateBurst); limiter != nil {
		identity.WithRateLimit(limiter.Middleware)
	}

	return NewRouter(Deps{
		Logger:         logger,
		Sessions:       opts.Sessions,
		Tokens:         validator,
		Audit:          audit.NewLogger(stores.AuditLogs, opts.AuditSink, middleware.ClientIP, logger),
		AllowedOrigins: opts.AllowedOrigins,
		TrustedProxy:   opts.TrustedProxy,
		Handlers: []Registrar{
			healthhandler.NewHandler(opts.HealthDB, checker, logger),
			identity,
			userhandler.NewHandler(profiles, logger),
			workspacehandler.NewHandler(workspaces, logger),
			taskhandler.NewHandler(tasks, logger),
			announcementhandler.NewHandler(announcements, logger),
			reporthandler.NewHandler(reports, logger),
			adminhandler.NewHandler(admin, logger),
		},
	})
}
