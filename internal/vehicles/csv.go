package vehicles

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// csvColumns maps the header aliases seen in uploaded vehicle CSVs onto
// canonical column names. The mapping is resolved once per file from the
// header row; rows never get their fields guessed individually.
var csvColumns = map[string]string{
	"vehicle_id":          "id",
	"vehicleid":           "id",
	"vehicleno":           "id",
	"vehicle_number":      "id",
	"registration_number": "id",
	"vehicle_type":        "type",
	"vehicletype":         "type",
	"type":                "type",
	"status":              "status",
	"capacity":            "capacity",
	"vehiclecapacity":     "capacity",
	"capacity_per_trip":   "capacity",
	"ward":                "ward",
	"ward_no":             "ward",
	"wardno":              "ward",
	"wardnumber":          "ward",
	"drivername":          "driver",
	"driver_name":         "driver",
	"phoneno":             "phone",
	"department":          "department",
}

// ParseCSV reads an uploaded vehicles CSV into the domain model.
func ParseCSV(r io.Reader) ([]model.Vehicle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("vehicles csv: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if canonical, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, taken := cols[canonical]; !taken {
				cols[canonical] = i
			}
		}
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("vehicles csv: no vehicle id column in header %v", header)
	}

	field := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []model.Vehicle
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vehicles csv: line %d: %w", line, err)
		}
		v := model.Vehicle{
			ID:         field(row, "id"),
			Type:       field(row, "type"),
			Status:     field(row, "status"),
			WardNo:     field(row, "ward"),
			DriverName: field(row, "driver"),
			PhoneNo:    field(row, "phone"),
			Department: field(row, "department"),
		}
		if v.ID == "" {
			continue
		}
		if v.Type == "" {
			v.Type = "garbage_truck"
		}
		if v.Status == "" {
			v.Status = model.StatusActive
		}
		if cap := field(row, "capacity"); cap != "" {
			n, err := strconv.Atoi(cap)
			if err != nil {
				return nil, fmt.Errorf("vehicles csv: line %d: bad capacity %q", line, cap)
			}
			v.CapacityPerTrip = n
		} else {
			v.CapacityPerTrip = DefaultCapacity
		}
		out = append(out, v)
	}
	return out, nil
}
