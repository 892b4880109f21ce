// Package server exposes the feasibility calculations, the record store and
// the document exports as a JSON HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/piwi3910/MoldQuote/internal/logging"
	"github.com/piwi3910/MoldQuote/internal/metrics"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/store"
)

// Store is the persistence the API needs. *store.Store implements it.
type Store interface {
	Library(ctx context.Context) (model.Library, error)
	Materials(ctx context.Context) ([]model.Material, error)
	Machines(ctx context.Context) ([]model.Machine, error)
	Material(ctx context.Context, id string) (model.Material, error)
	Machine(ctx context.Context, id string) (model.Machine, error)
	SaveMaterial(ctx context.Context, m model.Material) error
	SaveMachine(ctx context.Context, m model.Machine) error

	Projects(ctx context.Context, status model.RFQStatus) ([]store.RFQSummary, error)
	Project(ctx context.Context, id string) (model.Project, error)
	SaveProject(ctx context.Context, p model.Project, changedBy string) error
	DeleteProject(ctx context.Context, id string) error

	ExistingTools(ctx context.Context, tag string) ([]model.ExistingTool, error)
	SaveExistingTool(ctx context.Context, t model.ExistingTool) error
}

// Options configures a Server.
type Options struct {
	Policy         model.Policy
	JWTSecret      string // empty disables authentication
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server serves the MoldQuote API.
type Server struct {
	store   Store
	policy  model.Policy
	log     *logging.Logger
	metrics *metrics.Recorder
	limiter *clientRateLimiter
	auth    *authenticator
}

// New creates a Server. A nil logger discards log output.
func New(st Store, log *logging.Logger, opts Options) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	return &Server{
		store:   st,
		policy:  opts.Policy,
		log:     log,
		metrics: metrics.NewRecorder(),
		limiter: newClientRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst),
		auth:    newAuthenticator([]byte(opts.JWTSecret)),
	}
}

// Routes returns the HTTP handler of the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.recordMetrics)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.limiter.middleware(s.metrics))

		r.Post("/clamping-force", s.handleClampingForce)
		r.Post("/injection-pressure", s.handleInjectionPressure)
		r.Post("/machine-size", s.handleMachineSize)
		r.Post("/shot-volume", s.handleShotVolume)
		r.Post("/barrel-usage", s.handleBarrelUsage)
		r.Post("/screw-ratio", s.handleScrewRatio)
		r.Post("/demand-check", s.handleDemandCheck)
		r.Post("/cavity-recommendation", s.handleCavityRecommendation)
		r.Post("/cycle-time", s.handleCycleTime)
		r.Post("/tool-dimensions", s.handleToolDimensions)
		r.Post("/machine-fit", s.handleMachineFit)

		r.Get("/materials", s.handleListMaterials)
		r.Get("/machines", s.handleListMachines)
		r.Get("/rfqs", s.handleListRFQs)
		r.Get("/rfqs/{id}", s.handleGetRFQ)
		r.Get("/rfqs/{id}/tools/{toolID}/evaluation", s.handleEvaluateTool)
		r.Get("/rfqs/{id}/tools/{toolID}/comparison", s.handleCompareMachines)
		r.Get("/rfqs/{id}/export.xlsx", s.handleExportExcel)
		r.Get("/rfqs/{id}/report.pdf", s.handleReportPDF)
		r.Get("/existing-tools", s.handleListExistingTools)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.middleware)
			r.Post("/materials", s.handleSaveMaterial)
			r.Post("/machines", s.handleSaveMachine)
			r.Put("/rfqs/{id}", s.handlePutRFQ)
			r.Delete("/rfqs/{id}", s.handleDeleteRFQ)
			r.Post("/existing-tools", s.handleSaveExistingTool)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
