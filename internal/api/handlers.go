package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/geo"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/metrics"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/opt"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/store"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/vehicles"
)

const maxUploadBytes = 64 << 20

// OptimizeHandler handles POST /optimize-routes. It accepts multipart
// uploads of the road and building layers plus the ward number, runs the
// pipeline, persists the run and returns the per-vehicle assignments.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid multipart form", err.Error(), r.URL.Path)
		return
	}
	wardNo := strings.TrimSpace(r.FormValue("ward_no"))
	if wardNo == "" {
		writeProblem(w, http.StatusBadRequest, "Missing ward_no", "ward_no form field is required", r.URL.Path)
		return
	}

	roadsRaw, err := formFileBytes(r, "roads")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing roads file", err.Error(), r.URL.Path)
		return
	}
	buildingsRaw, err := formFileBytes(r, "buildings")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing buildings file", err.Error(), r.URL.Path)
		return
	}

	roads, err := geo.ParseRoads(roadsRaw)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid roads GeoJSON", err.Error(), r.URL.Path)
		return
	}
	points, err := geo.ParseBuildings(buildingsRaw)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid buildings GeoJSON", err.Error(), r.URL.Path)
		return
	}

	// Ward boundary is optional; when present it is echoed in the response
	// for the visualization layer.
	var wardBounds *model.ClusterBounds
	if wardRaw, err := formFileBytes(r, "ward"); err == nil {
		if b, err := geo.ParseWardBounds(wardRaw); err == nil {
			wardBounds = &b
		}
	}

	fleet, err := s.fleetForRequest(r, wardNo)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid vehicles CSV", err.Error(), r.URL.Path)
		return
	}

	start := time.Now()
	out, err := opt.Optimize(points, fleet, roads)
	metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var inErr *opt.InputError
		if errors.As(err, &inErr) {
			metrics.OptimizeRuns.WithLabelValues("rejected").Inc()
			writeProblem(w, http.StatusBadRequest, "Optimization rejected", inErr.Error(), r.URL.Path)
			return
		}
		metrics.OptimizeRuns.WithLabelValues("error").Inc()
		writeProblem(w, http.StatusInternalServerError, "Optimization failed", err.Error(), r.URL.Path)
		return
	}
	metrics.OptimizeRuns.WithLabelValues("ok").Inc()
	metrics.DegradedSegments.Add(float64(out.Result.DegradedSegments))
	metrics.SkippedGeometries.Add(float64(out.Result.SkippedGeometries))
	metrics.HousesAssigned.Observe(float64(out.Result.TotalHouses))

	run := model.Run{
		ID:           uuid.New().String(),
		WardNo:       wardNo,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Result:       out.Result,
		DemandPoints: points,
		Clusters:     out.Clusters,
		Roads:        roads,
	}
	if err := s.Store.SaveRun(r.Context(), run); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save run failed", err.Error(), r.URL.Path)
		return
	}

	summary := map[string]any{
		"active_vehicles":    run.Result.ActiveVehicles,
		"total_houses":       run.Result.TotalHouses,
		"total_trips":        run.Result.TotalTrips,
		"degraded_segments":  run.Result.DegradedSegments,
		"skipped_geometries": run.Result.SkippedGeometries,
		"excluded_vehicles":  run.Result.ExcludedVehicles,
	}
	s.Broker.Publish(run.ID, SSEEvent{Type: "run.completed", Data: map[string]any{"run_id": run.ID, "ward_no": wardNo, "summary": summary}})
	s.Pub.Emit(r.Context(), "run.completed", map[string]any{"run_id": run.ID, "ward_no": wardNo, "summary": summary})

	resp := map[string]any{
		"message":           "Routes optimized successfully",
		"run_id":            run.ID,
		"ward_no":           wardNo,
		"summary":           summary,
		"route_assignments": run.Result.RouteAssignments,
	}
	if wardBounds != nil {
		resp["ward_bounds"] = wardBounds
	}
	writeJSON(w, http.StatusOK, resp)
}

// fleetForRequest resolves the vehicle list for an optimization request:
// an uploaded CSV wins, then the configured fleet source filtered by ward,
// then the static fallback fleet.
func (s *Server) fleetForRequest(r *http.Request, wardNo string) ([]model.Vehicle, error) {
	if f, _, err := r.FormFile("vehicles"); err == nil {
		defer func() { _ = f.Close() }()
		return vehicles.ParseCSV(f)
	}
	if s.Fleet != nil {
		if vs, err := s.Fleet.ByWard(r.Context(), wardNo); err == nil && len(vs) > 0 {
			return vs, nil
		}
		if vs, err := s.Fleet.Fetch(r.Context()); err == nil && len(vs) > 0 {
			return vs, nil
		}
	}
	return vehicles.FallbackFleet(), nil
}

func formFileBytes(r *http.Request, field string) ([]byte, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("form file %q: %w", field, err)
	}
	defer func() { _ = f.Close() }()
	if hdr.Size > maxUploadBytes {
		return nil, fmt.Errorf("form file %q exceeds size limit", field)
	}
	return io.ReadAll(f)
}

// RunsHandler handles GET /runs
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	wardNo := r.URL.Query().Get("ward_no")
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListRuns(r.Context(), wardNo, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List runs failed", err.Error(), r.URL.Path)
		return
	}
	// Strip heavy payloads from the index view.
	summaries := make([]map[string]any, 0, len(items))
	for _, run := range items {
		summaries = append(summaries, map[string]any{
			"run_id":       run.ID,
			"ward_no":      run.WardNo,
			"created_at":   run.CreatedAt,
			"total_houses": run.Result.TotalHouses,
			"total_trips":  run.Result.TotalTrips,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": summaries, "nextCursor": next})
}

// RunByIDHandler handles GET /runs/{id} and GET /runs/{id}/events/stream
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing run id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
		s.runEventStream(w, r, id)
		return
	}
	if len(parts) > 1 && parts[1] == "ws" {
		s.RunWSHandler(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	run, err := s.Store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Run not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Get run failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) runEventStream(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"run_id\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"run_id\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// ClustersHandler handles GET /clusters: road segments and bounds for every
// cluster of a run (the latest run for the ward unless run_id is given).
func (s *Server) ClustersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	run, ok := s.runForQuery(w, r)
	if !ok {
		return
	}
	g, vehicleByCluster := s.rebuildRun(run)
	out := make([]model.ClusterRoads, 0, len(run.Clusters))
	for ci := range run.Clusters {
		out = append(out, clusterRoads(g, run, ci, vehicleByCluster))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   run.ID,
		"ward_no":  run.WardNo,
		"clusters": out,
	})
}

// ClusterByIDHandler handles GET /clusters/{id}
func (s *Server) ClusterByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/clusters/")
	ci, err := strconv.Atoi(idStr)
	if err != nil || ci < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid cluster id", idStr, r.URL.Path)
		return
	}
	run, ok := s.runForQuery(w, r)
	if !ok {
		return
	}
	if ci >= len(run.Clusters) {
		writeProblem(w, http.StatusNotFound, "Cluster not found", fmt.Sprintf("run has %d clusters", len(run.Clusters)), r.URL.Path)
		return
	}
	g, vehicleByCluster := s.rebuildRun(run)
	writeJSON(w, http.StatusOK, clusterRoads(g, run, ci, vehicleByCluster))
}

// runForQuery loads the run named by ?run_id, or the latest run for
// ?ward_no, writing the error response itself on failure.
func (s *Server) runForQuery(w http.ResponseWriter, r *http.Request) (model.Run, bool) {
	var run model.Run
	var err error
	if id := r.URL.Query().Get("run_id"); id != "" {
		run, err = s.Store.GetRun(r.Context(), id)
	} else {
		run, err = s.Store.LatestRun(r.Context(), r.URL.Query().Get("ward_no"))
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Run not found", "no optimization run available", r.URL.Path)
			return model.Run{}, false
		}
		writeProblem(w, http.StatusInternalServerError, "Load run failed", err.Error(), r.URL.Path)
		return model.Run{}, false
	}
	return run, true
}

// rebuildRun rehydrates the road graph from the stored run and indexes the
// assigned vehicle per cluster.
func (s *Server) rebuildRun(run model.Run) (*roadnet.Graph, map[int]model.Vehicle) {
	g := roadnet.Build(run.Roads)
	byCluster := map[int]model.Vehicle{}
	for _, ra := range run.Result.RouteAssignments {
		for _, trip := range ra.Trips {
			if _, seen := byCluster[trip.ClusterID]; !seen {
				byCluster[trip.ClusterID] = ra.VehicleInfo
			}
		}
	}
	return g, byCluster
}

func clusterRoads(g *roadnet.Graph, run model.Run, ci int, vehicleByCluster map[int]model.Vehicle) model.ClusterRoads {
	segs, bounds := opt.ClusterRoadSegments(g, run.DemandPoints, run.Clusters[ci])
	return model.ClusterRoads{
		ClusterID:      ci,
		VehicleInfo:    vehicleByCluster[ci],
		BuildingsCount: len(run.Clusters[ci]),
		Roads:          segs,
		TotalSegments:  len(segs),
		Bounds:         bounds,
	}
}

// VehiclesHandler handles GET /vehicles (live fleet passthrough)
func (s *Server) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	if s.Fleet == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Fleet source unavailable", "", r.URL.Path)
		return
	}
	var (
		items []model.Vehicle
		err   error
	)
	if ward := r.URL.Query().Get("ward_no"); ward != "" {
		items, err = s.Fleet.ByWard(r.Context(), ward)
	} else {
		items, err = s.Fleet.Fetch(r.Context())
	}
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fleet fetch failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "source": s.Fleet.Name()})
}

// VehicleByIDHandler handles GET /vehicles/{id} and PUT /vehicles/{id}/status
func (s *Server) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireKey(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/vehicles/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing vehicle id", r.URL.Path)
		return
	}
	if s.Vehicles == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Live fleet API not configured", "", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) > 1 && parts[1] == "status" {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", "status field required", r.URL.Path)
			return
		}
		if err := s.Vehicles.UpdateStatus(r.Context(), id, body.Status); err != nil {
			writeProblem(w, http.StatusBadGateway, "Status update failed", err.Error(), r.URL.Path)
			return
		}
		s.Pub.Emit(r.Context(), "vehicle.updated", map[string]any{"vehicle_id": id, "status": body.Status})
		writeJSON(w, http.StatusOK, map[string]any{"vehicle_id": id, "status": body.Status})
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	v, err := s.Vehicles.ByID(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Vehicle fetch failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SubscriptionsHandler handles POST/GET /subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireKey(w, r) {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		items, next, err := s.Store.ListSubscriptions(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/subscriptions/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebhookDeliveriesHandler handles GET /admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireKey(w, r) {
		return
	}
	status := r.URL.Query().Get("status")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, err := s.Store.ListWebhookDeliveries(r.Context(), status, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using the Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
