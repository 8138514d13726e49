// Package csvdir reads fleet data from CSV files dropped into a directory,
// for deployments where the fleet system exports rather than serves an API.
package csvdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/integrations"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/vehicles"
)

type Adapter struct {
	Dir string
}

func (a Adapter) Name() string { return "csv-dir" }

// Fetch parses the newest CSV file in the directory.
func (a Adapter) Fetch(ctx context.Context) ([]model.Vehicle, error) {
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		return nil, fmt.Errorf("csvdir: %w", err)
	}
	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if m := info.ModTime().UnixNano(); newest == "" || m > newestMod {
			newest, newestMod = e.Name(), m
		}
	}
	if newest == "" {
		return nil, fmt.Errorf("csvdir: no csv files in %s", a.Dir)
	}
	f, err := os.Open(filepath.Join(a.Dir, newest))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	out, err := vehicles.ParseCSV(f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a Adapter) ByWard(ctx context.Context, wardNo string) ([]model.Vehicle, error) {
	all, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return integrations.FilterWard(all, wardNo), nil
}
