package ui

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"surveytab/app"
	"surveytab/internal"
	"surveytab/ui/middleware"
)

// App serves the variable endpoints in the function-style layout the
// dashboard deploys with
type App struct {
	router   *chi.Mux
	services Services
	logger   *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates a new UI application
func NewApp(services Services) *App {
	a := &App{
		router:   chi.NewRouter(),
		services: services,
		logger:   internal.DefaultLogger.With("functions"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(chimiddleware.Logger)
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(chimiddleware.Compress(5))
	a.router.Use(middleware.CORSHandler)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/schema", a.handleSchema)
	a.router.Get("/analysis_table", a.handleAnalysisTable)

	// Deployed function paths; anything under the function ending in
	// /schema answers the schema request
	a.router.Get("/.netlify/functions/analysis_table", a.handleAnalysisTable)
	a.router.Get("/.netlify/functions/analysis_table/*", a.handleFunctionPath)
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start(config Config) error {
	port := config.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting surveytab functions on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}

func (a *App) handleFunctionPath(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(strings.TrimRight(r.URL.Path, "/"), "/schema") {
		a.handleSchema(w, r)
		return
	}
	a.handleAnalysisTable(w, r)
}

func (a *App) handleSchema(w http.ResponseWriter, r *http.Request) {
	resp, err := a.services.Variables.Schema(r.Context())
	if err != nil {
		a.writeJSON(w, StatusFor(err), errorBody(a.logger, err))
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleAnalysisTable(w http.ResponseWriter, r *http.Request) {
	req := app.ParseVariableQuery(r.URL.Query())
	resp, err := a.services.Variables.Table(r.Context(), req)
	if err != nil {
		a.writeJSON(w, StatusFor(err), errorBody(a.logger, err))
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *App) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Warn("encode response: %v", err)
	}
}
