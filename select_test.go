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
	"reflect"
	"testing"
)

// twoSubregionInventory is the reference scenario: subregion ES411
// has 1,000,000 m² in the 700 W/m² bin and ES412 has 500,000 m² in
// the 600 W/m² bin.
func twoSubregionInventory(t *testing.T) *Inventory {
	t.Helper()
	h := testHierarchy()
	units := []LandUnit{
		{Subregion: "ES411", Area: 1e6, Irradiance: 700},
		{Subregion: "ES412", Area: 5e5, Irradiance: 600},
	}
	resource := map[string]map[BinIndex]*ResourceSeries{
		"ES411": {7: constSeries(48, 650, 700, 15)},
		"ES412": {6: constSeries(48, 550, 600, 15)},
	}
	inv, err := BuildInventory(h, "ES41", units, nil, resource)
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

func TestSelectHighestBinFirst(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{AreaDemand(CSPParabolicTrough, 8e5)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	res := sel[CSPParabolicTrough]
	if res == nil {
		t.Fatal("no selection result")
	}
	// 800,000 m² fit entirely in ES411's higher-irradiance bin; ES412
	// stays untouched.
	want := []Draw{{Subregion: "ES411", Bin: 7, Area: 8e5}}
	if !reflect.DeepEqual(res.Draws, want) {
		t.Errorf("draws:\nhave %v\nwant %v", res.Draws, want)
	}
	if res.UnderSupplied {
		t.Error("selection should be fully supplied")
	}
	if res.Area.Value() != 8e5 {
		t.Errorf("achieved area = %g, want 8e5", res.Area.Value())
	}
}

func TestSelectSpillsToNextBin(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 1.2e6)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	want := []Draw{
		{Subregion: "ES411", Bin: 7, Area: 1e6},
		{Subregion: "ES412", Bin: 6, Area: 2e5},
	}
	if !reflect.DeepEqual(sel[PVFixed].Draws, want) {
		t.Errorf("draws:\nhave %v\nwant %v", sel[PVFixed].Draws, want)
	}
}

// CSP allocation completes before PV allocation; the shared pool means
// PV only sees what CSP left behind.
func TestSelectCSPShadowsPV(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{
		AreaDemand(CSPParabolicTrough, 8e5),
		AreaDemand(PVFixed, 1e6),
	}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	wantPV := []Draw{
		{Subregion: "ES411", Bin: 7, Area: 2e5},
		{Subregion: "ES412", Bin: 6, Area: 5e5},
	}
	if !reflect.DeepEqual(sel[PVFixed].Draws, wantPV) {
		t.Errorf("PV draws:\nhave %v\nwant %v", sel[PVFixed].Draws, wantPV)
	}
	if !sel[PVFixed].UnderSupplied {
		t.Error("PV should be under-supplied after CSP consumed the shared pool")
	}
	if sel[PVFixed].Area.Value() != 7e5 {
		t.Errorf("PV achieved area = %g, want 7e5", sel[PVFixed].Area.Value())
	}
	if sel[CSPParabolicTrough].UnderSupplied {
		t.Error("CSP should be fully supplied")
	}
}

func TestSelectZeroDemand(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 0)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	res := sel[PVFixed]
	if len(res.Draws) != 0 {
		t.Errorf("zero demand should produce no draws, have %v", res.Draws)
	}
	if res.UnderSupplied {
		t.Error("zero demand is met by definition")
	}
}

func TestSelectNeverOverdraws(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 1e9)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	res := sel[PVFixed]
	var total float64
	for _, d := range res.Draws {
		b, ok := inv.Bin(d.Subregion, d.Bin)
		if !ok {
			t.Fatalf("draw references missing bin %v", d)
		}
		if d.Area > b.Area {
			t.Errorf("draw %v exceeds bin area %g", d, b.Area)
		}
		total += d.Area
	}
	if total > 1e9 {
		t.Errorf("total drawn %g exceeds demand", total)
	}
	if !res.UnderSupplied {
		t.Error("want under-supplied flag")
	}
	if res.Area.Value() != 1.5e6 {
		t.Errorf("achieved area = %g, want the whole inventory (1.5e6)", res.Area.Value())
	}
}

func TestSelectRequireFullSupply(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 1e9)}, params)
	if err != nil {
		t.Fatal(err)
	}
	_, err = (&Selector{RequireFullSupply: true}).Select(inv, demands, params)
	if _, ok := err.(*InsufficientSupplyError); !ok {
		t.Errorf("want InsufficientSupplyError, have %v", err)
	}
}

func TestSelectMinGHIThreshold(t *testing.T) {
	params := testParams(t)
	h := testHierarchy()
	units := []LandUnit{
		{Subregion: "ES411", Area: 1e6, Irradiance: 700},
		{Subregion: "ES412", Area: 1e6, Irradiance: 600},
	}
	// ES412's series only amounts to 876 kWh/m²/yr, below every
	// technology's threshold.
	resource := map[string]map[BinIndex]*ResourceSeries{
		"ES411": {7: constSeries(48, 650, 700, 15)},
		"ES412": {6: constSeries(48, 90, 100, 15)},
	}
	inv, err := BuildInventory(h, "ES41", units, nil, resource)
	if err != nil {
		t.Fatal(err)
	}
	demands, err := ResolveDemands([]Demand{AreaDemand(CSPParabolicTrough, 1.5e6)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	res := sel[CSPParabolicTrough]
	want := []Draw{{Subregion: "ES411", Bin: 7, Area: 1e6}}
	if !reflect.DeepEqual(res.Draws, want) {
		t.Errorf("draws:\nhave %v\nwant %v", res.Draws, want)
	}
	if !res.UnderSupplied {
		t.Error("want under-supplied: the below-threshold bin must not be drawn")
	}
}

// A bin without a resource series is never drawn, even when the
// technology accepts any irradiation level.
func TestSelectSkipsResourcelessBins(t *testing.T) {
	params, err := ResolveParams(Override{
		Technology: PVFixed,
		MinGHI:     fptr(0),
	})
	if err != nil {
		t.Fatal(err)
	}
	h := testHierarchy()
	units := []LandUnit{
		{Subregion: "ES411", Area: 1e6, Irradiance: 700},
		{Subregion: "ES412", Area: 1e6, Irradiance: 600},
	}
	// ES412 has eligible land but no series to simulate it with.
	resource := map[string]map[BinIndex]*ResourceSeries{
		"ES411": {7: constSeries(48, 650, 700, 15)},
	}
	inv, err := BuildInventory(h, "ES41", units, nil, resource)
	if err != nil {
		t.Fatal(err)
	}
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 1.5e6)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	res := sel[PVFixed]
	want := []Draw{{Subregion: "ES411", Bin: 7, Area: 1e6}}
	if !reflect.DeepEqual(res.Draws, want) {
		t.Errorf("draws:\nhave %v\nwant %v", res.Draws, want)
	}
	if !res.UnderSupplied {
		t.Error("want under-supplied: the resource-less bin must not be drawn")
	}
}

// Identical inputs give byte-identical selection results.
func TestSelectDeterminism(t *testing.T) {
	params := testParams(t)
	demandSet := []Demand{
		AreaDemand(CSPParabolicTrough, 6e5),
		AreaDemand(CSPPowerTower, 2e5),
		AreaDemand(PVFixed, 4e5),
		AreaDemand(PVSingleAxisTracking, 3e5),
	}
	run := func() map[Technology]*SelectionResult {
		inv := twoSubregionInventory(t)
		demands, err := ResolveDemands(demandSet, params)
		if err != nil {
			t.Fatal(err)
		}
		sel, err := (&Selector{}).Select(inv, demands, params)
		if err != nil {
			t.Fatal(err)
		}
		return sel
	}
	a, b := run(), run()
	for tech := range a {
		if !reflect.DeepEqual(a[tech].Draws, b[tech].Draws) {
			t.Errorf("%s: draws differ between identical runs", tech)
		}
	}
	if len(a) != len(b) {
		t.Error("result sets differ between identical runs")
	}
}
