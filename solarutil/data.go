/*
Copyright © 2025 the SolarPlants authors.
This file is part of SolarPlants.

SolarPlants is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SolarPlants is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SolarPlants.  If not, see <http://www.gnu.org/licenses/>.
*/

package solarutil

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/solarplants"
)

const dataTimeLayout = "2006-01-02 15:04:05"

// loaderCacheSize is the number of parsed datasets kept in memory.
const loaderCacheSize = 4

// Loader reads the land-inventory and solar-resource datasets. Parsed
// datasets are cached, so repeated loads of the same file are free.
type Loader struct {
	// ct converts dataset coordinates to long/lat. It is nil when the
	// dataset is already in long/lat.
	ct proj.Transformer

	landCache     *requestcache.Cache
	resourceCache *requestcache.Cache
}

// NewLoader creates a dataset loader. datasetProj is the Proj4
// specification of the coordinate system the land-inventory centroids
// are stored in; the empty string means long/lat.
func NewLoader(datasetProj string) (*Loader, error) {
	l := new(Loader)
	if datasetProj != "" {
		datasetSR, err := proj.Parse(datasetProj)
		if err != nil {
			return nil, fmt.Errorf("solarutil: while parsing dataset projection: %v", err)
		}
		longlatSR, err := proj.Parse("+proj=longlat")
		if err != nil {
			return nil, err
		}
		l.ct, err = datasetSR.NewTransform(longlatSR)
		if err != nil {
			return nil, fmt.Errorf("solarutil: while creating coordinate transform: %v", err)
		}
	}
	l.landCache = requestcache.NewCache(
		func(ctx context.Context, request interface{}) (interface{}, error) {
			return l.readLandInventory(request.(string))
		}, 1, requestcache.Deduplicate(), requestcache.Memory(loaderCacheSize))
	l.resourceCache = requestcache.NewCache(
		func(ctx context.Context, request interface{}) (interface{}, error) {
			return readResourceSeries(request.(string))
		}, 1, requestcache.Deduplicate(), requestcache.Memory(loaderCacheSize))
	return l, nil
}

// LandInventory loads the land-inventory dataset at path. The dataset
// is a CSV file with the columns subregion, area_m2, slope_deg,
// land_use, irradiance_wm2, x, and y, one row per land parcel.
func (l *Loader) LandInventory(ctx context.Context, path string) ([]solarplants.LandUnit, error) {
	result, err := l.landCache.NewRequest(ctx, path, "land_"+path).Result()
	if err != nil {
		return nil, err
	}
	return result.([]solarplants.LandUnit), nil
}

// ResourceSeries loads the hourly solar-resource dataset at path. The
// dataset is a CSV file with the columns subregion, bin, time(UTC),
// dni_wm2, ghi_wm2, and temperature_c; the rows of each subregion-bin
// group must be consecutive hours in ascending order.
func (l *Loader) ResourceSeries(ctx context.Context, path string) (
	map[string]map[solarplants.BinIndex]*solarplants.ResourceSeries, error) {
	result, err := l.resourceCache.NewRequest(ctx, path, "resource_"+path).Result()
	if err != nil {
		return nil, err
	}
	return result.(map[string]map[solarplants.BinIndex]*solarplants.ResourceSeries), nil
}

func openCSV(path string, wantCols int) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("solarutil: while opening dataset: %v", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = wantCols
	if _, err := r.Read(); err != nil { // Skip the header row.
		f.Close()
		return nil, nil, fmt.Errorf("solarutil: while reading dataset header in %s: %v", path, err)
	}
	return r, f, nil
}

func (l *Loader) readLandInventory(path string) ([]solarplants.LandUnit, error) {
	r, f, err := openCSV(path, 7)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []solarplants.LandUnit
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("solarutil: while reading %s: %v", path, err)
		}
		fields, err := parseFloats(rec[1:2], rec[2:3], rec[4:7])
		if err != nil {
			return nil, fmt.Errorf("solarutil: %s line %d: %v", path, line, err)
		}
		u := solarplants.LandUnit{
			Subregion:  rec[0],
			Area:       fields[0],
			Slope:      fields[1],
			LandUse:    rec[3],
			Irradiance: fields[2],
			Centroid:   geom.Point{X: fields[3], Y: fields[4]},
		}
		if l.ct != nil {
			g, err := u.Centroid.Transform(l.ct)
			if err != nil {
				return nil, fmt.Errorf("solarutil: %s line %d: while converting centroid: %v",
					path, line, err)
			}
			u.Centroid = g.(geom.Point)
		}
		units = append(units, u)
	}
	return units, nil
}

// resourceRows accumulates the raw column values of one subregion-bin
// group before the series arrays are built.
type resourceRows struct {
	times          []time.Time
	dni, ghi, temp []float64
}

func readResourceSeries(path string) (
	map[string]map[solarplants.BinIndex]*solarplants.ResourceSeries, error) {
	r, f, err := openCSV(path, 6)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type key struct {
		subregion string
		bin       solarplants.BinIndex
	}
	groups := make(map[key]*resourceRows)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("solarutil: while reading %s: %v", path, err)
		}
		bin, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("solarutil: %s line %d: invalid bin index %q", path, line, rec[1])
		}
		ts, err := time.ParseInLocation(dataTimeLayout, rec[2], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("solarutil: %s line %d: %v", path, line, err)
		}
		vals, err := parseFloats(rec[3:6])
		if err != nil {
			return nil, fmt.Errorf("solarutil: %s line %d: %v", path, line, err)
		}
		k := key{rec[0], solarplants.BinIndex(bin)}
		g := groups[k]
		if g == nil {
			g = new(resourceRows)
			groups[k] = g
		}
		g.times = append(g.times, ts)
		g.dni = append(g.dni, vals[0])
		g.ghi = append(g.ghi, vals[1])
		g.temp = append(g.temp, vals[2])
	}

	out := make(map[string]map[solarplants.BinIndex]*solarplants.ResourceSeries)
	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].subregion != keys[j].subregion {
			return keys[i].subregion < keys[j].subregion
		}
		return keys[i].bin < keys[j].bin
	})
	for _, k := range keys {
		g := groups[k]
		for i := 1; i < len(g.times); i++ {
			if g.times[i].Sub(g.times[i-1]) != time.Hour {
				return nil, fmt.Errorf("solarutil: %s: series %s bin %d has a gap at %v",
					path, k.subregion, k.bin, g.times[i])
			}
		}
		rs := &solarplants.ResourceSeries{
			Start:       g.times[0],
			DNI:         denseFrom(g.dni),
			GHI:         denseFrom(g.ghi),
			AmbientTemp: denseFrom(g.temp),
		}
		if out[k.subregion] == nil {
			out[k.subregion] = make(map[solarplants.BinIndex]*solarplants.ResourceSeries)
		}
		out[k.subregion][k.bin] = rs
	}
	return out, nil
}

func denseFrom(vals []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(vals))
	copy(a.Elements, vals)
	return a
}

// parseFloats parses the concatenation of the given string slices as
// floating-point values.
func parseFloats(fields ...[]string) ([]float64, error) {
	var out []float64
	for _, fs := range fields {
		for _, s := range fs {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid numeric field %q", s)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// HierarchyFromUnits derives the fine-to-coarse region relation from
// the subregion identifiers in the land inventory. NUTS identifiers
// nest by truncation, so a subregion's parent is its identifier with
// the last character removed.
func HierarchyFromUnits(units []solarplants.LandUnit) *solarplants.RegionHierarchy {
	parent := make(map[string]string)
	for _, u := range units {
		if len(u.Subregion) > 1 {
			parent[u.Subregion] = u.Subregion[:len(u.Subregion)-1]
		}
	}
	return solarplants.NewRegionHierarchy(parent)
}
