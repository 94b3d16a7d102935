/*
 * colors.go, part of mapex.
 *
 * Copyright 2024 Raul Mera <rmeraa{at}academicosdotutadotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package pymol

import (
	"sort"

	"github.com/samber/lo"
)

// Category is a pharmacophore feature type.
type Category string

const (
	Donors       Category = "Donors"
	Acceptors    Category = "Acceptors"
	Hydrophobics Category = "Hydrophobics"
)

// RGB is a color, each component between 0 and 1.
type RGB [3]float64

// Valid returns true if all components are in [0,1].
func (c RGB) Valid() bool {
	for _, v := range c {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// DefaultColors returns a new copy of the default color for each category.
func DefaultColors() map[Category]RGB {
	return map[Category]RGB{
		Donors:       {0, 0.9, 0},
		Acceptors:    {0.9, 0, 0},
		Hydrophobics: {1, 0.9, 0},
	}
}

// Pharmacophore gives the positions of the features of each category.
type Pharmacophore map[Category][][3]float64

var standardOrder = []Category{Donors, Acceptors, Hydrophobics}

// Categories returns the categories in P, the standard ones first
// (Donors, Acceptors, Hydrophobics), followed by any others sorted by name.
func (P Pharmacophore) Categories() []Category {
	present := lo.Keys(P)
	ret := lo.Filter(standardOrder, func(c Category, _ int) bool { return lo.Contains(present, c) })
	others := lo.Without(present, standardOrder...)
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })
	return append(ret, others...)
}

// label is the name of the viewer object holding the spheres of a category.
func label(c Category) string {
	return "P-" + string(c)
}
