package vehicles

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginResponseTokenVariants(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"token":"a"}`, "a"},
		{`{"accessToken":"b"}`, "b"},
		{`{"authToken":"c"}`, "c"},
		{`{"jwt":"d"}`, "d"},
		{`{"data":{"token":"e"}}`, "e"},
		{`{"data":{"accessToken":"f"}}`, "f"},
		{`{"token":"a","accessToken":"b"}`, "a"},
		{`{}`, ""},
	}
	for _, tc := range cases {
		var lr loginResponse
		require.NoError(t, json.Unmarshal([]byte(tc.body), &lr))
		assert.Equal(t, tc.want, lr.token(), "body %s", tc.body)
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	payload, _ := json.Marshal(map[string]int64{"exp": exp})
	tok := "x." + base64.RawURLEncoding.EncodeToString(payload) + ".y"
	assert.Equal(t, time.Unix(exp, 0), tokenExpiry(tok))

	assert.True(t, tokenExpiry("not-a-jwt").IsZero())
	assert.True(t, tokenExpiry("a.!!!.c").IsZero())
}

func TestTokenManagerRefreshAndCache(t *testing.T) {
	logins := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "user", creds["loginId"])
		require.Equal(t, "pass", creds["password"])
		logins++
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-1"})
	}))
	defer srv.Close()

	m := NewTokenManager(Config{BaseURL: srv.URL, Username: "user", Password: "pass"})
	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Second call reuses the cached token.
	tok, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, logins)
}

func TestTokenManagerMissingCredentials(t *testing.T) {
	m := NewTokenManager(Config{BaseURL: "http://example.invalid"})
	_, err := m.Token(context.Background())
	require.Error(t, err)
}

func TestVehicleRecordDefaults(t *testing.T) {
	v := vehicleRecord{VehicleID: "ABC123"}.toVehicle()
	assert.Equal(t, "ABC123", v.ID)
	assert.Equal(t, "garbage_truck", v.Type)
	assert.Equal(t, "active", v.Status)
	assert.Equal(t, DefaultCapacity, v.CapacityPerTrip)

	v = vehicleRecord{VehicleNo: "TS01", VehicleID: "ignored", VehicleType: "compactor", Status: "OFFLINE", Capacity: 900}.toVehicle()
	assert.Equal(t, "TS01", v.ID)
	assert.Equal(t, "compactor", v.Type)
	assert.Equal(t, "OFFLINE", v.Status)
	assert.Equal(t, 900, v.CapacityPerTrip)
}

func TestPaginatedEnvelopeVariants(t *testing.T) {
	rec := vehicleRecord{VehicleNo: "X"}
	assert.Len(t, paginatedVehicles{Content: []vehicleRecord{rec}}.rows(), 1)
	assert.Len(t, paginatedVehicles{Data: []vehicleRecord{rec, rec}}.rows(), 2)
	assert.Len(t, paginatedVehicles{Vehicles: []vehicleRecord{rec}}.rows(), 1)
	assert.Empty(t, paginatedVehicles{}.rows())
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL, Username: "user", Password: "pass"}
	return NewClient(cfg, NewTokenManager(cfg)), srv
}

func TestClientLiveAndByWard(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "t"})
		case strings.HasPrefix(r.URL.Path, "/api/vehicles/paginated"):
			require.Equal(t, "Bearer t", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{"content": []map[string]any{
				{"vehicleNo": "SWM101", "wardNo": "7", "capacity": 600},
				{"vehicleNo": "SWM102", "wardNo": "8"},
			}})
		default:
			http.NotFound(w, r)
		}
	}))

	all, err := c.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 600, all[0].CapacityPerTrip)
	assert.Equal(t, DefaultCapacity, all[1].CapacityPerTrip)

	ward7, err := c.ByWard(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, ward7, 1)
	assert.Equal(t, "SWM101", ward7[0].ID)
}

func TestClientFallsBackWhenUpstreamDown(t *testing.T) {
	cfg := Config{BaseURL: "http://127.0.0.1:1", Username: "user", Password: "pass"}
	c := NewClient(cfg, NewTokenManager(cfg))

	fleet, err := c.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, fleet, 5)
	assert.Equal(t, "SWM001", fleet[0].ID)
	assert.Equal(t, DefaultCapacity, fleet[0].CapacityPerTrip)
}

func TestClientRetriesOnceOn401(t *testing.T) {
	tokens := 0
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/login":
			tokens++
			_ = json.NewEncoder(w).Encode(map[string]string{"token": fmt.Sprintf("t%d", tokens)})
		case strings.HasPrefix(r.URL.Path, "/api/vehicles/SWM200"):
			calls++
			if r.Header.Get("Authorization") == "Bearer t1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"vehicleNo": "SWM200", "status": "ACTIVE"})
		default:
			http.NotFound(w, r)
		}
	}))

	v, err := c.ByID(context.Background(), "SWM200")
	require.NoError(t, err)
	assert.Equal(t, "SWM200", v.ID)
	assert.Equal(t, 2, tokens)
	assert.Equal(t, 2, calls)
}

func TestParseCSV(t *testing.T) {
	data := strings.NewReader(strings.Join([]string{
		"Vehicle_ID,Vehicle_Type,Status,Capacity,Ward_No,Driver_Name",
		"SWM010,compactor,active,450,12,Ramesh",
		"SWM011,,,,12,",
		",tipper,active,100,12,ignored",
	}, "\n"))

	got, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "SWM010", got[0].ID)
	assert.Equal(t, "compactor", got[0].Type)
	assert.Equal(t, 450, got[0].CapacityPerTrip)
	assert.Equal(t, "12", got[0].WardNo)
	assert.Equal(t, "Ramesh", got[0].DriverName)

	// Blank optional columns fall back to defaults.
	assert.Equal(t, "garbage_truck", got[1].Type)
	assert.Equal(t, "active", got[1].Status)
	assert.Equal(t, DefaultCapacity, got[1].CapacityPerTrip)
}

func TestParseCSVHeaderAliases(t *testing.T) {
	data := strings.NewReader("vehicleNo,capacity_per_trip,wardNo\nSWM020,700,3\n")
	got, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SWM020", got[0].ID)
	assert.Equal(t, 700, got[0].CapacityPerTrip)
	assert.Equal(t, "3", got[0].WardNo)
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("driver_name,phoneNo\nX,1\n"))
	require.Error(t, err)

	_, err = ParseCSV(strings.NewReader("vehicle_id,capacity\nSWM1,lots\n"))
	require.Error(t, err)
}
