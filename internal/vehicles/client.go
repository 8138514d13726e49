package vehicles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// Client fetches live fleet data. Upstream calls are rate limited so a burst
// of optimization requests cannot hammer the SWM API.
type Client struct {
	cfg     Config
	tokens  *TokenManager
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config, tokens *TokenManager) *Client {
	return &Client{
		cfg:     cfg,
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// StartAutoRefresh keeps the upstream login token warm until ctx is cancelled.
func (c *Client) StartAutoRefresh(ctx context.Context) {
	if c.tokens != nil {
		c.tokens.StartAutoRefresh(ctx, time.Minute)
	}
}

// vehicleRecord is the explicit schema mapping for upstream vehicle rows.
// Field aliases the API has used are declared here, at the boundary, instead
// of being guessed per lookup.
type vehicleRecord struct {
	VehicleID   string `json:"vehicleId"`
	VehicleNo   string `json:"vehicleNo"`
	VehicleType string `json:"vehicleType"`
	Status      string `json:"status"`
	Capacity    int    `json:"capacity"`
	WardNo      string `json:"wardNo"`
	DriverName  string `json:"driverName"`
	PhoneNo     string `json:"phoneNo"`
	Department  string `json:"department"`
}

// paginatedVehicles handles the envelope variants the upstream has shipped.
type paginatedVehicles struct {
	Content  []vehicleRecord `json:"content"`
	Data     []vehicleRecord `json:"data"`
	Vehicles []vehicleRecord `json:"vehicles"`
}

func (p paginatedVehicles) rows() []vehicleRecord {
	switch {
	case len(p.Content) > 0:
		return p.Content
	case len(p.Data) > 0:
		return p.Data
	default:
		return p.Vehicles
	}
}

// DefaultCapacity is assumed when the upstream row carries none.
const DefaultCapacity = 500

func (r vehicleRecord) toVehicle() model.Vehicle {
	v := model.Vehicle{
		ID:              r.VehicleNo,
		VehicleNo:       r.VehicleNo,
		Type:            r.VehicleType,
		Status:          r.Status,
		CapacityPerTrip: r.Capacity,
		WardNo:          r.WardNo,
		DriverName:      r.DriverName,
		PhoneNo:         r.PhoneNo,
		Department:      r.Department,
	}
	if v.ID == "" {
		v.ID = r.VehicleID
	}
	if v.Type == "" {
		v.Type = "garbage_truck"
	}
	if v.Status == "" {
		v.Status = model.StatusActive
	}
	if v.CapacityPerTrip == 0 {
		v.CapacityPerTrip = DefaultCapacity
	}
	return v
}

// Live returns the current fleet. When the upstream API is unreachable a
// small fallback fleet is returned so the rest of the system stays usable in
// a degraded-but-working state.
func (c *Client) Live(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := c.fetchLive(ctx)
	if err != nil {
		log.Printf("vehicles: live fetch failed, using fallback fleet: %v", err)
		return FallbackFleet(), nil
	}
	out := make([]model.Vehicle, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toVehicle())
	}
	return out, nil
}

func (c *Client) fetchLive(ctx context.Context) ([]vehicleRecord, error) {
	date := time.Now().Format("2006-01-02")
	path := fmt.Sprintf("/api/vehicles/paginated?date=%s&size=542&sortBy=vehicleNo", date)

	resp, err := c.authedDo(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vehicles: upstream status %d", resp.StatusCode)
	}
	var page paginatedVehicles
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("vehicles: decode live vehicles: %w", err)
	}
	return page.rows(), nil
}

// ByWard filters the live fleet by ward number.
func (c *Client) ByWard(ctx context.Context, wardNo string) ([]model.Vehicle, error) {
	all, err := c.Live(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Vehicle{}
	for _, v := range all {
		if v.WardNo == wardNo {
			out = append(out, v)
		}
	}
	return out, nil
}

// ByID fetches one vehicle's details.
func (c *Client) ByID(ctx context.Context, id string) (model.Vehicle, error) {
	resp, err := c.authedDo(ctx, http.MethodGet, "/api/vehicles/"+id, nil)
	if err != nil {
		return model.Vehicle{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return model.Vehicle{}, fmt.Errorf("vehicles: vehicle %s: status %d", id, resp.StatusCode)
	}
	var rec vehicleRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return model.Vehicle{}, fmt.Errorf("vehicles: decode vehicle %s: %w", id, err)
	}
	return rec.toVehicle(), nil
}

// UpdateStatus pushes a status change upstream.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	body, _ := json.Marshal(map[string]string{"status": status})
	resp, err := c.authedDo(ctx, http.MethodPut, "/api/vehicles/"+id+"/status", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("vehicles: update status for %s: status %d", id, resp.StatusCode)
	}
	return nil
}

// authedDo performs a rate-limited request with a bearer token, forcing one
// token refresh and retry on 401.
func (c *Client) authedDo(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, method, path, body, tok)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if err := c.tokens.Refresh(ctx); err != nil {
			return nil, err
		}
		tok, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		return c.do(ctx, method, path, body, tok)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var rdr *bytes.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// FallbackFleet is the static fleet used when the upstream API is down.
func FallbackFleet() []model.Vehicle {
	out := make([]model.Vehicle, 0, 5)
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("SWM%03d", i)
		out = append(out, model.Vehicle{
			ID:              id,
			VehicleNo:       id,
			Type:            "garbage_truck",
			Status:          model.StatusActive,
			CapacityPerTrip: DefaultCapacity,
			WardNo:          "1",
			DriverName:      fmt.Sprintf("Driver%d", i),
		})
	}
	return out
}
