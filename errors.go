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

import "fmt"

// InvalidUnitError reports a demand specification that does not supply
// exactly one of investment, capacity, and area, or supplies a
// negative value.
type InvalidUnitError struct {
	Technology Technology
	Reason     string
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("solarplants: invalid demand unit for %s: %s", e.Technology, e.Reason)
}

// MissingResourceDataError reports that the hourly resource series for
// an irradiance bin is absent or does not cover the requested time
// window. The affected land is excluded from the simulation rather
// than zero-filled.
type MissingResourceDataError struct {
	Subregion string
	Bin       BinIndex
	Reason    string
}

func (e *MissingResourceDataError) Error() string {
	return fmt.Sprintf("solarplants: missing resource data for bin %d in %s: %s",
		e.Bin, e.Subregion, e.Reason)
}

// InconsistentHierarchyError reports a fine subregion that does not
// belong to the run's coarse region.
type InconsistentHierarchyError struct {
	Subregion string
	Region    string
}

func (e *InconsistentHierarchyError) Error() string {
	return fmt.Sprintf("solarplants: subregion %s does not belong to region %s",
		e.Subregion, e.Region)
}

// InsufficientSupplyError reports that the eligible land in the region
// cannot satisfy a technology's area target. It is only returned when
// the selector is configured to require full supply; by default the
// shortfall is reported through the UnderSupplied flag of the
// selection result instead.
type InsufficientSupplyError struct {
	Technology Technology
	Demanded   float64 // [m²]
	Achieved   float64 // [m²]
}

func (e *InsufficientSupplyError) Error() string {
	return fmt.Sprintf("solarplants: insufficient land for %s: demanded %g m², achieved %g m²",
		e.Technology, e.Demanded, e.Achieved)
}
