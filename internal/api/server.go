package api

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/auth"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/integrations"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/integrations/csvdir"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/integrations/swm"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/store"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/vehicles"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/webhooks"
)

type Server struct {
	Store  store.Store
	Pub    *webhooks.Publisher
	Keys   *auth.Keys
	Broker EventBroker
	Fleet  integrations.FleetSource

	// Vehicles is the raw upstream client for the passthrough endpoints.
	// It is nil when FLEET_SOURCE points somewhere other than the live API.
	Vehicles *vehicles.Client
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}
	// Broker selection
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	// Fleet source selection
	var fleet integrations.FleetSource
	var client *vehicles.Client
	if os.Getenv("FLEET_SOURCE") == "csv" {
		fleet = csvdir.Adapter{Dir: os.Getenv("FLEET_CSV_DIR")}
	} else {
		cfg := vehicles.ConfigFromEnv()
		client = vehicles.NewClient(cfg, vehicles.NewTokenManager(cfg))
		fleet = swm.Adapter{Client: client}
	}
	return &Server{
		Store:    s,
		Pub:      webhooks.NewPublisher(s),
		Keys:     auth.NewKeysFromEnv(),
		Broker:   broker,
		Fleet:    fleet,
		Vehicles: client,
	}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}

// requireKey enforces bearer API key auth when keys are configured. It
// writes the 401 itself and reports whether the request may proceed.
func (s *Server) requireKey(w http.ResponseWriter, r *http.Request) bool {
	if s.Keys == nil || !s.Keys.Enabled() {
		return true
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		if s.Keys.Verify(strings.TrimSpace(authz[len("Bearer "):])) {
			return true
		}
	}
	writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid API key required", r.URL.Path)
	return false
}
