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
	"io"
	"time"
)

// Version gives the model version number.
const Version = "0.1.0"

// Model holds the state of one estimation run. A run is a single-pass
// batch computation: demands are resolved into area targets, land is
// selected, generation is simulated per fine subregion, and the
// results are aggregated to the coarse region. The pipeline either
// completes or fails as a whole; partial results are never kept.
type Model struct {
	InitFuncs    []DomainManipulator
	RunFuncs     []DomainManipulator
	CleanupFuncs []DomainManipulator

	// Inputs, set by init functions.
	Region    string
	Hierarchy *RegionHierarchy
	Params    *ParamSet
	Window    Window
	Inventory *Inventory

	// Intermediate state.
	Demands   map[Technology]*ResolvedDemand
	Selection map[Technology]*SelectionResult
	Profiles  []*GenerationProfile

	// Results holds the aggregated output once the run completes.
	Results *RegionResults

	// msgLog receives warning and progress messages if non-nil.
	msgLog chan string
}

// DomainManipulator is a function that operates on the model state,
// for example by resolving demand, selecting land, or simulating
// generation.
type DomainManipulator func(m *Model) error

// Init initializes the model by running the init functions.
func (m *Model) Init() error {
	for _, f := range m.InitFuncs {
		if err := f(m); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the model run functions.
func (m *Model) Run() error {
	for _, f := range m.RunFuncs {
		if err := f(m); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup runs the cleanup functions.
func (m *Model) Cleanup() error {
	for _, f := range m.CleanupFuncs {
		if err := f(m); err != nil {
			return err
		}
	}
	return nil
}

// SetMessageChan specifies a channel for warning and progress
// messages. The caller is responsible for draining the channel.
func (m *Model) SetMessageChan(c chan string) { m.msgLog = c }

func (m *Model) message(format string, args ...interface{}) {
	if m.msgLog != nil {
		m.msgLog <- fmt.Sprintf(format, args...)
	}
}

// SetupRegion returns a function that sets the run's coarse region,
// hierarchy, parameters, and window.
func SetupRegion(region string, h *RegionHierarchy, params *ParamSet, w Window) DomainManipulator {
	return func(m *Model) error {
		if len(h.Subregions(region)) == 0 {
			return fmt.Errorf("solarplants: region %s has no subregions", region)
		}
		m.Region = region
		m.Hierarchy = h
		m.Params = params
		m.Window = w
		return nil
	}
}

// SetupInventory returns a function that builds the land inventory
// from pre-loaded land units and resource series. Bins that ended up
// without a resource series are reported on the message channel; their
// area is never selected.
func SetupInventory(units []LandUnit, filter *EligibilityFilter,
	resource map[string]map[BinIndex]*ResourceSeries) DomainManipulator {
	return func(m *Model) error {
		inv, err := BuildInventory(m.Hierarchy, m.Region, units, filter, resource)
		if err != nil {
			return err
		}
		for _, b := range inv.Bins() {
			if b.Resource == nil {
				m.message("no resource series for %s bin %d: %g m² unavailable for selection",
					b.Subregion, b.Index, b.Area)
			}
		}
		m.Inventory = inv
		return nil
	}
}

// CalcAreaDemand returns a function that resolves the demand targets
// into required land areas.
func CalcAreaDemand(demands []Demand) DomainManipulator {
	return func(m *Model) error {
		resolved, err := ResolveDemands(demands, m.Params)
		if err != nil {
			return err
		}
		m.Demands = resolved
		for _, tech := range DefaultPriority {
			if d, ok := resolved[tech]; ok {
				m.message("%s: target area %g m²", tech, d.AreaM2())
			}
		}
		return nil
	}
}

// SelectAreas returns a function that allocates land to each
// technology with the given selector.
func SelectAreas(s *Selector) DomainManipulator {
	return func(m *Model) error {
		sel, err := s.Select(m.Inventory, m.Demands, m.Params)
		if err != nil {
			return err
		}
		for _, tech := range DefaultPriority {
			if r, ok := sel[tech]; ok && r.UnderSupplied {
				m.message("%s: supply exhausted at %g m²", tech, r.Area.Value())
			}
		}
		m.Selection = sel
		return nil
	}
}

// SimulateGeneration returns a function that produces the hourly
// generation profiles for the selected land.
func SimulateGeneration() DomainManipulator {
	return func(m *Model) error {
		sim := &Simulator{Params: m.Params, Window: m.Window}
		profiles, err := sim.Simulate(m.Inventory, m.Selection, m.msgLog)
		if err != nil {
			return err
		}
		m.Profiles = profiles
		return nil
	}
}

// AggregateRegion returns a function that sums the subregion profiles
// into the coarse-region results.
func AggregateRegion() DomainManipulator {
	return func(m *Model) error {
		res, err := Aggregate(m.Region, m.Window, m.Profiles, m.Selection, m.Params)
		if err != nil {
			return err
		}
		m.Results = res
		return nil
	}
}

// Log writes run status messages to w.
func Log(w io.Writer) DomainManipulator {
	startTime := time.Now()
	return func(m *Model) error {
		fmt.Fprintf(w, "region=%s window=[%v, %v] walltime=%v\n",
			m.Region, m.Window.Start, m.Window.End, time.Since(startTime))
		return nil
	}
}

// NewModel assembles the standard pipeline for one run. Additional
// init, run, and cleanup functions, if any, are appended after the
// defaults.
func NewModel(region string, h *RegionHierarchy, params *ParamSet, w Window,
	units []LandUnit, filter *EligibilityFilter,
	resource map[string]map[BinIndex]*ResourceSeries,
	demands []Demand, sel *Selector,
	addInit, addRun, addCleanup []DomainManipulator) *Model {

	m := &Model{
		InitFuncs: append([]DomainManipulator{
			SetupRegion(region, h, params, w),
			SetupInventory(units, filter, resource),
		}, addInit...),
		RunFuncs: append([]DomainManipulator{
			CalcAreaDemand(demands),
			SelectAreas(sel),
			SimulateGeneration(),
			AggregateRegion(),
		}, addRun...),
		CleanupFuncs: addCleanup,
	}
	return m
}
