// Package main runs a demo WebSocket client for run events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const demoRoads = `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"LineString","coordinates":[[78.400,17.400],[78.410,17.400],[78.420,17.400]]},"properties":{"name":"Demo Road A"}},
{"type":"Feature","geometry":{"type":"LineString","coordinates":[[78.420,17.400],[78.430,17.400]]},"properties":{"name":"Demo Road B"}}]}`

const demoBuildings = `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.401,17.401]},"properties":{}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.411,17.401]},"properties":{}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.421,17.401]},"properties":{}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.429,17.401]},"properties":{}}]}`

const demoVehicles = "vehicle_id,capacity,ward_no\nDEMO01,2,7\nDEMO02,2,7\n"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	apiKey := os.Getenv("API_KEY")

	runID := runOptimize(base, apiKey)
	log.Printf("Run ID: %s", runID)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/runs/" + runID + "/ws"}
	hdr := http.Header{}
	if apiKey != "" {
		hdr.Set("Authorization", "Bearer "+apiKey)
	}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	select {
	case <-time.After(3 * time.Second):
	case <-done:
	}
}

func runOptimize(base, apiKey string) string {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("ward_no", "7")
	for _, f := range []struct{ field, name, content string }{
		{"roads", "roads.geojson", demoRoads},
		{"buildings", "buildings.geojson", demoBuildings},
		{"vehicles", "vehicles.csv", demoVehicles},
	} {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			log.Fatal(err)
		}
	}
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, base+"/optimize-routes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("optimize returned %d", resp.StatusCode)
	}
	var optResp struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&optResp); err != nil {
		log.Fatal(err)
	}
	if optResp.RunID == "" {
		log.Fatal("no run id returned")
	}
	return optResp.RunID
}
