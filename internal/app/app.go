// Package app wires repositories, services, handlers and the router into
// a ready-to-serve HTTP application.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	appointmenthandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	doctorhandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	patienthandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	prescriptionhandler "github.com/jwalitptl/clinic-api/internal/handler/prescription"
	promhandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/router"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	authservice "github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/availability"
	"github.com/jwalitptl/clinic-api/internal/service/directory"
	"github.com/jwalitptl/clinic-api/internal/service/doctor"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/internal/service/prescription"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// Deps are the externally owned resources the application runs on.
type Deps struct {
	Repos repository.Repositories
	// DB is pinged by the readiness probe; nil for the memory driver.
	DB     health.Pinger
	Logger *logger.Logger
	// Registry receives the application metrics and backs /metrics.
	Registry *prometheus.Registry
}

type App struct {
	Router       *router.Router
	Auth         *authservice.Service
	Appointments *appointment.Service
	Doctors      *doctor.Service
	Patients     *patient.Service
	Directory    *directory.Service
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	repos := deps.Repos
	loc := cfg.Scheduling.Location()
	m := metrics.NewMetrics("clinic", "", deps.Registry)

	jwtSvc, err := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiry,
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	hasher := security.NewBcryptHasher(cfg.Scheduling.BcryptCost)

	events := event.NewService(repos.Outbox, deps.Logger)
	authSvc := authservice.NewService(jwtSvc, hasher,
		authservice.NewResolvers(repos.Admins, repos.Doctors, repos.Patients), deps.Logger, m)
	availabilitySvc := availability.NewService(repos.Doctors, repos.Appointments, loc)
	appointmentSvc := appointment.NewService(repos.Appointments, repos.Patients, availabilitySvc, events, deps.Logger, m)
	directorySvc := directory.NewService(repos.Doctors, repos.Appointments, cfg.Scheduling.DirectoryTTL, m)
	doctorSvc := doctor.NewService(repos.Doctors, hasher, directorySvc, deps.Logger)
	patientSvc := patient.NewService(repos.Patients, hasher, directorySvc, deps.Logger)
	prescriptionSvc := prescription.NewService(repos.Prescriptions, repos.Appointments, appointmentSvc,
		validator.New(), events, deps.Logger)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowOrigins
	}

	r, err := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		router.Handlers{
			Auth:    authhandler.NewHandler(authSvc),
			Health:  health.NewHandler(deps.DB),
			Metrics: promhandler.New(deps.Registry),
			Resources: []router.Handler{
				doctorhandler.NewHandler(doctorSvc, directorySvc, availabilitySvc),
				appointmenthandler.NewHandler(appointmentSvc, loc),
				patienthandler.NewHandler(patientSvc, directorySvc),
				prescriptionhandler.NewHandler(prescriptionSvc),
			},
		},
		m,
		router.RouterConfig{
			Mode:             cfg.Server.Mode,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       cors,
			RequestTimeout:   cfg.Server.RequestTimeout,
			MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		},
	)
	if err != nil {
		return nil, err
	}

	return &App{
		Router:       r,
		Auth:         authSvc,
		Appointments: appointmentSvc,
		Doctors:      doctorSvc,
		Patients:     patientSvc,
		Directory:    directorySvc,
	}, nil
}
