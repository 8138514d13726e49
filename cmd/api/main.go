package main

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/api"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/metrics"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	metrics.RegisterDefault()

	srvDeps, err := api.NewServer()
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Optimization. Uploads are expensive; cap their rate independently of
	// anything a reverse proxy does.
	mux.Handle("/optimize-routes", rateLimit(http.HandlerFunc(srvDeps.OptimizeHandler)))

	// Runs
	mux.HandleFunc("/runs", srvDeps.RunsHandler)
	mux.HandleFunc("/runs/", srvDeps.RunByIDHandler) // includes /events/stream and /ws

	// Clusters
	mux.HandleFunc("/clusters", srvDeps.ClustersHandler)
	mux.HandleFunc("/clusters/", srvDeps.ClusterByIDHandler)

	// Fleet
	mux.HandleFunc("/vehicles", srvDeps.VehiclesHandler)
	mux.HandleFunc("/vehicles/", srvDeps.VehicleByIDHandler)

	// Subscriptions
	mux.HandleFunc("/subscriptions", srvDeps.SubscriptionsHandler)
	mux.HandleFunc("/subscriptions/", srvDeps.SubscriptionByIDHandler)

	// Admin
	mux.HandleFunc("/admin/webhook-deliveries", srvDeps.WebhookDeliveriesHandler)
	mux.HandleFunc("/debug/info", srvDeps.DebugJSON)

	// Health and metrics
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Docs
	mux.HandleFunc("/openapi.yaml", srvDeps.OpenAPIHandler)
	mux.HandleFunc("/docs", srvDeps.DocsHandler)
	mux.HandleFunc("/swagger", srvDeps.SwaggerHandler)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if srvDeps.Pub != nil {
		worker := srvDeps.NewWebhookWorker()
		worker.Start()
	}
	if srvDeps.Vehicles != nil {
		srvDeps.Vehicles.StartAutoRefresh(ctx)
	}

	log.Printf("API listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps the SSE stream usable through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps the WebSocket upgrade usable through the wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		path := metricPath(r.URL.Path)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(dur.Seconds())
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}

func rateLimit(next http.Handler) http.Handler {
	rps := 2.0
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	burst := 5
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricPath collapses per-resource IDs so labels stay low-cardinality.
func metricPath(p string) string {
	for _, prefix := range []string{"/runs/", "/clusters/", "/vehicles/", "/subscriptions/"} {
		if strings.HasPrefix(p, prefix) {
			return prefix + ":id"
		}
	}
	return p
}
