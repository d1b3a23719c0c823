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

package solarplants

import (
	"fmt"
	"sort"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// BinWidth is the width of one irradiance bin [W/m²]. Land is grouped
// for selection by its representative irradiance rounded down to the
// nearest BinWidth step.
const BinWidth = 100.

// BinIndex identifies an irradiance bin: bin i covers the half-open
// interval [i·BinWidth, (i+1)·BinWidth) W/m². Bin boundaries are fixed
// and non-overlapping, so the index doubles as a deterministic sort
// key for the selector.
type BinIndex int

// BinFor returns the bin that irradiance [W/m²] falls into.
func BinFor(irradiance float64) BinIndex {
	if irradiance < 0 {
		return 0
	}
	return BinIndex(irradiance / BinWidth)
}

// Lower returns the lower bound of the bin [W/m²].
func (b BinIndex) Lower() float64 { return float64(b) * BinWidth }

// RegionHierarchy maps fine (NUTS3-equivalent) subregions to the
// coarse (NUTS2-equivalent) regions that contain them. Every fine
// subregion belongs to exactly one coarse region.
type RegionHierarchy struct {
	parent   map[string]string
	children map[string][]string
}

// NewRegionHierarchy creates a hierarchy from a fine→coarse mapping.
func NewRegionHierarchy(parent map[string]string) *RegionHierarchy {
	h := &RegionHierarchy{
		parent:   make(map[string]string, len(parent)),
		children: make(map[string][]string),
	}
	for fine, coarse := range parent {
		h.parent[fine] = coarse
		h.children[coarse] = append(h.children[coarse], fine)
	}
	for _, fines := range h.children {
		sort.Strings(fines)
	}
	return h
}

// Coarse returns the coarse region containing the given fine
// subregion.
func (h *RegionHierarchy) Coarse(fine string) (string, bool) {
	c, ok := h.parent[fine]
	return c, ok
}

// Subregions returns the fine subregions of a coarse region in
// ascending identifier order.
func (h *RegionHierarchy) Subregions(coarse string) []string {
	return h.children[coarse]
}

// LandUnit is the smallest addressable parcel of land within a fine
// subregion. Units are created once when the static datasets are
// loaded and never mutated afterwards; the selector works on its own
// copy of the remaining area per bin.
type LandUnit struct {
	Subregion  string
	Centroid   geom.Point
	Area       float64 `desc:"Parcel area" units:"m²"`
	Slope      float64 `desc:"Terrain slope" units:"degrees"`
	LandUse    string
	Irradiance float64 `desc:"Representative mean irradiance" units:"W/m²"`
}

// EligibilityFilter holds the selection-criteria thresholds applied
// when land units are folded into the inventory.
type EligibilityFilter struct {
	MaxSlope         float64 // [degrees]
	ExcludedLandUses []string
}

// Eligible reports whether u passes the slope and land-use filters.
func (f *EligibilityFilter) Eligible(u LandUnit) bool {
	if f == nil {
		return true
	}
	if f.MaxSlope > 0 && u.Slope > f.MaxSlope {
		return false
	}
	for _, lu := range f.ExcludedLandUses {
		if u.LandUse == lu {
			return false
		}
	}
	return true
}

// ResourceSeries holds the hourly solar-resource time series for one
// irradiance bin. The arrays all start at Start and have one value per
// hour.
type ResourceSeries struct {
	Start time.Time

	DNI         *sparse.DenseArray `desc:"Direct normal irradiance" units:"W/m²"`
	GHI         *sparse.DenseArray `desc:"Global horizontal irradiance" units:"W/m²"`
	AmbientTemp *sparse.DenseArray `desc:"Ambient air temperature" units:"°C"`
}

// Len returns the number of hours in the series, or zero if no
// variable is present.
func (r *ResourceSeries) Len() int {
	if r == nil || r.GHI == nil {
		return 0
	}
	return r.GHI.Shape[0]
}

// slice returns the [offset, offset+n) hour range of a, or an error if
// a is absent or too short.
func resourceSlice(a *sparse.DenseArray, name string, offset, n int) ([]float64, error) {
	if a == nil {
		return nil, fmt.Errorf("variable %s is absent", name)
	}
	if offset < 0 || offset+n > a.Shape[0] {
		return nil, fmt.Errorf("variable %s covers %d hours, need hours [%d, %d)",
			name, a.Shape[0], offset, offset+n)
	}
	return a.Elements[offset : offset+n], nil
}

// AnnualGHI returns the annual global horizontal irradiation
// represented by the series [kWh/m²/yr], scaled to a full year if the
// series is shorter or longer.
func (r *ResourceSeries) AnnualGHI() float64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	return r.GHI.Sum() / float64(n) * 8760 / 1000
}

// IrradianceBin is the unit of greedy land selection: all eligible
// land of one fine subregion whose representative irradiance falls in
// one BinWidth interval. CSP and PV technologies draw from the same
// area pool, so land claimed by one family is unavailable to the
// other.
type IrradianceBin struct {
	Subregion string
	Index     BinIndex
	Area      float64 `desc:"Total eligible area" units:"m²"`
	Resource  *ResourceSeries
}

// binKey orders bins for deterministic iteration.
type binKey struct {
	subregion string
	index     BinIndex
}

// Inventory is the eligible land supply of one coarse region,
// partitioned by fine subregion and irradiance bin.
type Inventory struct {
	Region    string
	Hierarchy *RegionHierarchy

	bins map[binKey]*IrradianceBin
}

// BuildInventory folds eligible land units into per-subregion
// irradiance bins for the given coarse region. Units that fail the
// eligibility filter are dropped; a unit whose subregion does not
// belong to the region causes an InconsistentHierarchyError. The
// resource argument supplies the representative hourly series per
// (subregion, bin); bins without a series are still created so that
// their area shows up in the totals, but the selector never draws
// from them and the pipeline reports them as a warning.
func BuildInventory(h *RegionHierarchy, region string, units []LandUnit,
	filter *EligibilityFilter, resource map[string]map[BinIndex]*ResourceSeries) (*Inventory, error) {

	inv := &Inventory{
		Region:    region,
		Hierarchy: h,
		bins:      make(map[binKey]*IrradianceBin),
	}
	for _, u := range units {
		coarse, ok := h.Coarse(u.Subregion)
		if !ok || coarse != region {
			return nil, &InconsistentHierarchyError{Subregion: u.Subregion, Region: region}
		}
		if !filter.Eligible(u) {
			continue
		}
		k := binKey{u.Subregion, BinFor(u.Irradiance)}
		b, ok := inv.bins[k]
		if !ok {
			b = &IrradianceBin{Subregion: k.subregion, Index: k.index}
			if byBin, ok := resource[k.subregion]; ok {
				b.Resource = byBin[k.index]
			}
			inv.bins[k] = b
		}
		b.Area += u.Area
	}
	return inv, nil
}

// Bin returns the bin for the given subregion and index, if present.
func (inv *Inventory) Bin(subregion string, index BinIndex) (*IrradianceBin, bool) {
	b, ok := inv.bins[binKey{subregion, index}]
	return b, ok
}

// Bins returns all bins sorted by descending bin index, tie-broken by
// ascending subregion identifier. This is the candidate order used by
// the selector.
func (inv *Inventory) Bins() []*IrradianceBin {
	out := make([]*IrradianceBin, 0, len(inv.bins))
	for _, b := range inv.bins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index > out[j].Index
		}
		return out[i].Subregion < out[j].Subregion
	})
	return out
}

// TotalArea returns the total eligible area per fine subregion [m²].
func (inv *Inventory) TotalArea() map[string]float64 {
	out := make(map[string]float64)
	for _, b := range inv.bins {
		out[b.Subregion] += b.Area
	}
	return out
}
