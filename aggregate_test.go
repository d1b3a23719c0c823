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
	"math"
	"testing"
	"time"
)

func TestAggregateSumsSubregions(t *testing.T) {
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
	w := testWindow(t, testStart, testStart.Add(23*time.Hour))
	sim := &Simulator{Params: params, Window: w}
	profiles, err := sim.Simulate(inv, sel, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Aggregate("ES41", w, profiles, sel, params)
	if err != nil {
		t.Fatal(err)
	}

	// The coarse-region hourly value equals the sum of its
	// fine-subregion hourly values for every hour in the window.
	tot := r.Total[PVFixed]
	if len(tot) != w.Hours() {
		t.Fatalf("total has %d hours, want %d", len(tot), w.Hours())
	}
	for h := range tot {
		var sum float64
		for _, p := range profiles {
			sum += p.Energy[h]
		}
		if math.Abs(tot[h]-sum) > 1e-12 {
			t.Errorf("hour %d: total %g != subregion sum %g", h, tot[h], sum)
		}
	}

	// Both subregions contributed.
	if r.SubregionTotal(PVFixed, "ES411") == nil || r.SubregionTotal(PVFixed, "ES412") == nil {
		t.Error("missing per-subregion series")
	}
	if r.SubregionTotal(PVFixed, "ES413") != nil {
		t.Error("unexpected series for subregion with no generation")
	}
}

func TestAggregateOpex(t *testing.T) {
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
	w := testWindow(t, testStart, testStart.Add(2*time.Hour))
	sim := &Simulator{Params: params, Window: w}
	profiles, err := sim.Simulate(inv, sel, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Aggregate("ES41", w, profiles, sel, params)
	if err != nil {
		t.Fatal(err)
	}
	tp, err := params.Get(CSPParabolicTrough)
	if err != nil {
		t.Fatal(err)
	}
	// OPEX = operating-cost rate × achieved capacity [MW].
	wantMW := 8e5 * tp.PowerDensity / 1e6
	want := wantMW * tp.OpexRate
	if math.Abs(r.AnnualOPEX[CSPParabolicTrough]-want) > 1e-9 {
		t.Errorf("OPEX = %g, want %g", r.AnnualOPEX[CSPParabolicTrough], want)
	}
}

func TestAggregateLengthMismatch(t *testing.T) {
	params := testParams(t)
	w := testWindow(t, testStart, testStart.Add(2*time.Hour))
	profiles := []*GenerationProfile{{
		Technology: PVFixed,
		Subregion:  "ES411",
		Window:     w,
		Energy:     []float64{1, 2}, // window has 3 hours
	}}
	if _, err := Aggregate("ES41", w, profiles, nil, params); err == nil {
		t.Error("want error for profile/window length mismatch")
	}
}
