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
	"strings"
	"testing"
	"time"
)

func testWindow(t *testing.T, start, end time.Time) Window {
	t.Helper()
	w, err := NewWindow(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWindow(t *testing.T) {
	w := testWindow(t, testStart, testStart.Add(24*time.Hour))
	if w.Hours() != 25 { // bounds are inclusive
		t.Errorf("Hours() = %d, want 25", w.Hours())
	}
	times := w.Times()
	if len(times) != 25 || !times[24].Equal(testStart.Add(24*time.Hour)) {
		t.Errorf("Times() malformed: len=%d last=%v", len(times), times[len(times)-1])
	}
	if _, err := NewWindow(testStart.Add(time.Hour), testStart); err == nil {
		t.Error("want error for end before start")
	}
	if _, err := NewWindow(testStart.Add(30*time.Minute), testStart.Add(time.Hour)); err == nil {
		t.Error("want error for sub-hour bound")
	}
	oneHour := testWindow(t, testStart, testStart)
	if oneHour.Hours() != 1 {
		t.Errorf("single-hour window Hours() = %d, want 1", oneHour.Hours())
	}
}

func TestCSPThermalModel(t *testing.T) {
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
	sim := &Simulator{Params: params, Window: testWindow(t, testStart, testStart.Add(2*time.Hour))}
	profiles, err := sim.Simulate(inv, sel, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 {
		t.Fatalf("have %d profiles, want 1", len(profiles))
	}
	p := profiles[0]
	if p.Subregion != "ES411" || p.Technology != CSPParabolicTrough {
		t.Fatalf("unexpected profile %s/%s", p.Technology, p.Subregion)
	}
	// thermal = DNI × (area × aperture fraction) × ηopt × ηth / 1e6
	// = 650 × 800,000×0.5 × 0.65 × 0.45 / 1e6 MWh.
	want := 650 * 8e5 * 0.5 * 0.65 * 0.45 / 1e6
	for h, e := range p.Energy {
		if math.Abs(e-want) > 1e-9 {
			t.Errorf("hour %d: thermal = %g MWh, want %g", h, e, want)
		}
	}
}

func TestPVElectricalModel(t *testing.T) {
	params := testParams(t)
	tp, err := params.Get(PVFixed)
	if err != nil {
		t.Fatal(err)
	}
	const (
		area = 1e5
		ghi  = 700.
		temp = 15.
	)
	got := pvElectrical(tp, area, []float64{ghi}, []float64{temp})

	// Losses apply in order: reflection, spectral, temperature.
	poa := ghi * tp.TiltFactor
	p := poa / 1000 * area * tp.PowerDensity * tp.SystemEfficiency
	p *= 1 - tp.ReflectionLoss
	p *= 1 - tp.SpectralLoss
	tmod := temp + (tp.NOCT-20)/800*poa
	p *= 1 + tp.TempCoefficient*(tmod-25)
	want := p / 1e6
	if math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("PV energy = %g MWh, want %g", got[0], want)
	}
}

func TestPVTrackingGain(t *testing.T) {
	params := testParams(t)
	fixed, err := params.Get(PVFixed)
	if err != nil {
		t.Fatal(err)
	}
	tracking, err := params.Get(PVSingleAxisTracking)
	if err != nil {
		t.Fatal(err)
	}
	// Same irradiance and temperature: per watt of capacity, the
	// tracking system sees more plane-of-array irradiance.
	ef := pvElectrical(fixed, 1e5, []float64{500}, []float64{20})[0] / fixed.PowerDensity
	et := pvElectrical(tracking, 1e5, []float64{500}, []float64{20})[0] / tracking.PowerDensity
	if et <= ef {
		t.Errorf("tracking output per W (%g) should exceed fixed (%g)", et, ef)
	}
}

func TestTempDerateClamped(t *testing.T) {
	tp := defaultParams[PVFixed]
	if d := tempDerate(tp, 1e4, 1000); d != 0 {
		t.Errorf("extreme heat: derate = %g, want 0", d)
	}
	if d := tempDerate(tp, -40, 0); d != 1 {
		t.Errorf("extreme cold: derate = %g, want clamp at 1", d)
	}
}

// The output length equals exactly the number of hours in the
// requested window.
func TestSimulateWindowLength(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 5e5)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	// 25-hour window starting 13 hours into the 48-hour series.
	w := testWindow(t, testStart.Add(13*time.Hour), testStart.Add(37*time.Hour))
	sim := &Simulator{Params: params, Window: w}
	profiles, err := sim.Simulate(inv, sel, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range profiles {
		if len(p.Energy) != 25 {
			t.Errorf("%s/%s: %d hours, want 25", p.Technology, p.Subregion, len(p.Energy))
		}
	}
}

// A window beyond the end of the series is a missing-data condition,
// not a zero-fill.
func TestSimulateWindowBeyondSeries(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t) // series are 48 hours long
	demands, err := ResolveDemands([]Demand{AreaDemand(PVFixed, 5e5)}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	w := testWindow(t, testStart.Add(40*time.Hour), testStart.Add(80*time.Hour))
	sim := &Simulator{Params: params, Window: w}
	_, err = sim.Simulate(inv, sel, nil)
	if _, ok := err.(*MissingResourceDataError); !ok {
		t.Errorf("want MissingResourceDataError, have %v", err)
	}
}

// A draw with a gap in its required series is excluded with a warning;
// the rest of the run continues.
func TestSimulatePartialMissingResource(t *testing.T) {
	params := testParams(t)
	h := testHierarchy()
	units := []LandUnit{
		{Subregion: "ES411", Area: 1e6, Irradiance: 700},
		{Subregion: "ES412", Area: 1e6, Irradiance: 600},
	}
	broken := constSeries(48, 550, 600, 15)
	broken.DNI = nil // no direct irradiance for ES412
	resource := map[string]map[BinIndex]*ResourceSeries{
		"ES411": {7: constSeries(48, 650, 700, 15)},
		"ES412": {6: broken},
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

	msgLog := make(chan string, 10)
	sim := &Simulator{Params: params, Window: testWindow(t, testStart, testStart.Add(5*time.Hour))}
	profiles, err := sim.Simulate(inv, sel, msgLog)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0].Subregion != "ES411" {
		t.Fatalf("want only the ES411 profile, have %v", profiles)
	}
	select {
	case msg := <-msgLog:
		if !strings.Contains(msg, "ES412") {
			t.Errorf("warning does not name the excluded subregion: %q", msg)
		}
	default:
		t.Error("want a warning for the excluded draw")
	}

	// When every draw of a technology is missing data, the run fails.
	for _, byBin := range resource {
		for _, r := range byBin {
			r.DNI = nil
		}
	}
	inv2, err := BuildInventory(h, "ES41", units, nil, resource)
	if err != nil {
		t.Fatal(err)
	}
	sel2, err := (&Selector{}).Select(inv2, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	_, err = sim.Simulate(inv2, sel2, nil)
	if _, ok := err.(*MissingResourceDataError); !ok {
		t.Errorf("want MissingResourceDataError when all draws are excluded, have %v", err)
	}
}

// Zero demand produces no profiles for that technology.
func TestSimulateZeroDemandNoInvocation(t *testing.T) {
	params := testParams(t)
	inv := twoSubregionInventory(t)
	demands, err := ResolveDemands([]Demand{
		AreaDemand(CSPParabolicTrough, 8e5),
		AreaDemand(PVFixed, 0),
	}, params)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := (&Selector{}).Select(inv, demands, params)
	if err != nil {
		t.Fatal(err)
	}
	sim := &Simulator{Params: params, Window: testWindow(t, testStart, testStart.Add(2*time.Hour))}
	profiles, err := sim.Simulate(inv, sel, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range profiles {
		if p.Technology == PVFixed {
			t.Errorf("zero-demand technology produced a profile: %v", p)
		}
	}
}
