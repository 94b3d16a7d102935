/*
 * hydrogens.go, part of mapex.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"math"

	v3 "github.com/rmera/mapex/v3"
)

// tetrahedral angle measured from the axis opposite to the heavy neighbors.
var hOffAxis = (180.0 - 109.47) * math.Pi / 180.0

// AddHydrogens turns the implicit hydrogens of every atom into explicit
// hydrogen atoms, appended at the end of the topology and bonded to their
// parent. If the molecule already has conformations, each new hydrogen gets
// an approximate position in each of them, at a single-bond distance from
// its parent and pointing away from the parent's other neighbors.
// It returns the number of hydrogens added.
func (M *Molecule) AddHydrogens() int {
	heavy := M.Len()
	added := make([][][3]float64, len(M.Coords)) //new positions, per conformer
	total := 0
	for i := 0; i < heavy; i++ {
		at := M.Atoms[i]
		n := at.ImplicitH
		if n <= 0 {
			continue
		}
		neighbors := M.Neighbors(i)
		for k := 0; k < n; k++ {
			h := &Atom{Name: "H", Symbol: "H", Mass: Mass("H")}
			idx := M.AddAtom(h)
			M.Bonds = append(M.Bonds, &Bond{At1: i, At2: idx, Order: 1})
			for c, coords := range M.Coords {
				added[c] = append(added[c], hPosition(coords, i, neighbors, at.Symbol, k, n))
			}
		}
		at.ImplicitH = 0
		total += n
	}
	if total == 0 {
		return 0
	}
	for c, coords := range M.Coords {
		hs := v3.Zeros(len(added[c]))
		for j, pos := range added[c] {
			hs.SetVec(j, pos)
		}
		M.Coords[c] = v3.Stack(coords, hs)
	}
	M.ResetIds()
	return total
}

// hPosition places the kth of n hydrogens on the atom with index parent.
func hPosition(coords *v3.Matrix, parent int, neighbors []int, symbol string, k, n int) [3]float64 {
	p := coords.Vec(parent)
	axis := [3]float64{1, 0, 0}
	if len(neighbors) > 0 {
		axis = v3.Unit(v3.Sub(p, coords.Centroid(neighbors...)))
	}
	length := BondLength(symbol, "H")
	if n == 1 && len(neighbors) > 0 {
		return v3.Add(p, v3.Scale(length, axis))
	}
	p1 := v3.Perpendicular(axis)
	p2 := v3.Cross(axis, p1)
	phi := 2 * math.Pi * float64(k) / float64(n)
	radial := v3.Add(v3.Scale(math.Cos(phi), p1), v3.Scale(math.Sin(phi), p2))
	dir := v3.Add(v3.Scale(math.Cos(hOffAxis), axis), v3.Scale(math.Sin(hOffAxis), radial))
	return v3.Add(p, v3.Scale(length, v3.Unit(dir)))
}

// removableH returns true for a hydrogen that can be folded back into its
// parent's implicit hydrogen count: a plain hydrogen with exactly one
// neighbor, which is not itself a hydrogen.
func (M *Molecule) removableH(i int) (int, bool) {
	at := M.Atoms[i]
	if at.Symbol != "H" || at.Isotope != 0 || at.Charge != 0 {
		return -1, false
	}
	n := M.Neighbors(i)
	if len(n) != 1 || M.Atoms[n[0]].Symbol == "H" {
		return -1, false
	}
	return n[0], true
}

// RemoveHydrogens removes explicit hydrogens, adding them to the implicit
// hydrogen count of the atom they were bonded to. Isotopic, charged,
// unbonded and H-H bonded hydrogens are kept. The coordinates of the
// remaining atoms are kept for every conformation.
// It returns the number of hydrogens removed.
func (M *Molecule) RemoveHydrogens() int {
	keep := make([]int, 0, M.Len())
	newindex := make([]int, M.Len())
	removed := 0
	for i := range M.Atoms {
		if parent, ok := M.removableH(i); ok {
			M.Atoms[parent].ImplicitH++
			newindex[i] = -1
			removed++
			continue
		}
		newindex[i] = len(keep)
		keep = append(keep, i)
	}
	if removed == 0 {
		return 0
	}
	atoms := make([]*Atom, 0, len(keep))
	for _, i := range keep {
		atoms = append(atoms, M.Atoms[i])
	}
	bonds := make([]*Bond, 0, len(M.Bonds))
	for _, b := range M.Bonds {
		if newindex[b.At1] < 0 || newindex[b.At2] < 0 {
			continue
		}
		b.At1, b.At2 = newindex[b.At1], newindex[b.At2]
		bonds = append(bonds, b)
	}
	for c, coords := range M.Coords {
		M.Coords[c] = coords.SomeVecs(keep)
	}
	M.Atoms = atoms
	M.Bonds = bonds
	M.ResetIds()
	return removed
}

// ExplicitHydrogens returns the number of hydrogen atoms present in the topology.
func (T *Topology) ExplicitHydrogens() int {
	n := 0
	for _, at := range T.Atoms {
		if at.Symbol == "H" {
			n++
		}
	}
	return n
}
