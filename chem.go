/*
 * chem.go, part of mapex.
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
	"github.com/cockroachdb/errors"

	v3 "github.com/rmera/mapex/v3"
)

/**Note: Many functions here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is most likely wrong and should
 * crash. Most panics are related to using the function on a nil object or trying to access out-of-bounds
 * fields**/

// Atom contains the atom information except for the coordinates, which are kept
// in one matrix per conformation.
type Atom struct {
	Name      string
	Id        int //1-based, as in MOL files
	Symbol    string
	Charge    int //formal charge
	Isotope   int //0 means natural abundance
	Aromatic  bool
	ImplicitH int //hydrogens implied but not present as atoms.
	Mass      float64
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	n := *A
	return &n
}

// Bond connects two atoms, given by their 0-based indexes in the topology.
type Bond struct {
	At1   int
	At2   int
	Order float64 //1.5 means aromatic
}

// Aromatic returns true if the bond is aromatic.
func (B *Bond) Aromatic() bool {
	return B.Order == AromaticOrder
}

// Cross returns the index of the atom at the other side of the bond from origin.
func (B *Bond) Cross(origin int) int {
	if origin == B.At1 {
		return B.At2
	}
	if origin == B.At2 {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!")
}

// AromaticOrder is the bond order assigned to aromatic bonds.
const AromaticOrder = 1.5

/*****Topology type***/

// Topology contains information about a molecule which is not expected to change
// between conformations (i.e. everything except for coordinates).
type Topology struct {
	Atoms  []*Atom
	Bonds  []*Bond
	name   string
	charge int
	multi  int
}

// NewTopology returns a topology with the given atoms, total charge and
// multiplicity. A multiplicity of 0 is taken as a singlet.
func NewTopology(charge, multi int, ats []*Atom) *Topology {
	if ats == nil {
		ats = make([]*Atom, 0, 10)
	}
	if multi == 0 {
		multi = 1
	}
	return &Topology{Atoms: ats, charge: charge, multi: multi}
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

// Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

// SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

// SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

// Name returns the display name of the molecule.
func (T *Topology) Name() string {
	return T.name
}

// SetName sets the display name of the molecule.
func (T *Topology) SetName(name string) {
	T.name = name
}

// AddAtom appends an atom at the end of the topology and returns its index.
func (T *Topology) AddAtom(at *Atom) int {
	T.Atoms = append(T.Atoms, at)
	return len(T.Atoms) - 1
}

// AddBond bonds atoms i and j with the given order. It returns an error if
// either index is out of range, if i==j, or if the atoms are already bonded.
func (T *Topology) AddBond(i, j int, order float64) error {
	errid := "Topology/AddBond"
	if i < 0 || j < 0 || i >= T.Len() || j >= T.Len() {
		return errors.Newf("%s: atom index out of range (%d, %d) for %d atoms", errid, i, j, T.Len())
	}
	if i == j {
		return errors.Newf("%s: can't bond atom %d to itself", errid, i)
	}
	if T.Bond(i, j) != nil {
		return errors.Newf("%s: atoms %d and %d are already bonded", errid, i, j)
	}
	T.Bonds = append(T.Bonds, &Bond{At1: i, At2: j, Order: order})
	return nil
}

// Bond returns the bond between atoms i and j, or nil if they are not bonded.
func (T *Topology) Bond(i, j int) *Bond {
	for _, b := range T.Bonds {
		if (b.At1 == i && b.At2 == j) || (b.At1 == j && b.At2 == i) {
			return b
		}
	}
	return nil
}

// Neighbors returns the indexes of the atoms bonded to atom i.
func (T *Topology) Neighbors(i int) []int {
	ret := make([]int, 0, 4)
	for _, b := range T.Bonds {
		if b.At1 == i || b.At2 == i {
			ret = append(ret, b.Cross(i))
		}
	}
	return ret
}

// BondOrderSum returns the sum of the orders of the bonds of atom i.
func (T *Topology) BondOrderSum(i int) float64 {
	var s float64
	for _, b := range T.Bonds {
		if b.At1 == i || b.At2 == i {
			s += b.Order
		}
	}
	return s
}

// ResetIds sets the current order of atoms as Id for all atoms.
func (T *Topology) ResetIds() {
	for key := range T.Atoms {
		T.Atoms[key].Id = key + 1
	}
}

// Copy returns a deep copy of the topology.
func (T *Topology) Copy() *Topology {
	top := NewTopology(T.charge, T.multi, make([]*Atom, T.Len()))
	top.name = T.name
	for key, val := range T.Atoms {
		top.Atoms[key] = val.Copy()
	}
	top.Bonds = make([]*Bond, len(T.Bonds))
	for key, val := range T.Bonds {
		b := *val
		top.Bonds[key] = &b
	}
	return top
}

/**Type Molecule**/

// Molecule contains all the info for a molecule in many conformations.
// Each element of Coords holds the coordinates of one conformation, one atom per
// vector. Energies, if not nil, holds one energy per conformation, in kcal/mol.
type Molecule struct {
	*Topology
	Coords   []*v3.Matrix
	Energies []float64
}

// NewMolecule makes a molecule with the given topology and conformations.
// It returns error if any conformation has a number of vectors different
// from the number of atoms in the topology.
func NewMolecule(top *Topology, coords ...*v3.Matrix) (*Molecule, error) {
	if top == nil {
		return nil, errors.New("NewMolecule: supplied a nil topology")
	}
	mol := &Molecule{Topology: top, Coords: make([]*v3.Matrix, 0, len(coords))}
	for _, c := range coords {
		if err := mol.AddConformer(c); err != nil {
			return nil, errors.Wrap(err, "NewMolecule")
		}
	}
	return mol, nil
}

// ConformerCount returns the number of stored conformations.
func (M *Molecule) ConformerCount() int {
	return len(M.Coords)
}

// Conformer returns the coordinates for the ith conformation.
func (M *Molecule) Conformer(i int) (*v3.Matrix, error) {
	if i < 0 || i >= len(M.Coords) {
		return nil, errors.Newf("Molecule/Conformer: conformer %d requested for molecule %q with %d conformers", i, M.Name(), len(M.Coords))
	}
	return M.Coords[i], nil
}

// AddConformer appends a conformation to the molecule.
func (M *Molecule) AddConformer(c *v3.Matrix) error {
	if c == nil || c.NVecs() != M.Len() {
		n := 0
		if c != nil {
			n = c.NVecs()
		}
		return errors.Newf("Molecule/AddConformer: conformer has %d vectors, molecule %q has %d atoms", n, M.Name(), M.Len())
	}
	M.Coords = append(M.Coords, c)
	return nil
}

// ClearConformers removes all stored conformations and energies.
func (M *Molecule) ClearConformers() {
	M.Coords = M.Coords[:0]
	M.Energies = nil
}

// Copy returns a deep copy of the molecule.
func (M *Molecule) Copy() *Molecule {
	r := &Molecule{Topology: M.Topology.Copy(), Coords: make([]*v3.Matrix, len(M.Coords))}
	for i, c := range M.Coords {
		r.Coords[i] = c.Copy()
	}
	if M.Energies != nil {
		r.Energies = append([]float64(nil), M.Energies...)
	}
	return r
}

// Corrupted checks whether the molecule is internally consistent.
func (M *Molecule) Corrupted() error {
	for i, c := range M.Coords {
		if c.NVecs() != M.Len() {
			return errors.Newf("Molecule/Corrupted: conformer %d has %d vectors, molecule has %d atoms", i, c.NVecs(), M.Len())
		}
	}
	if M.Energies != nil && len(M.Energies) != len(M.Coords) {
		return errors.Newf("Molecule/Corrupted: %d energies for %d conformers", len(M.Energies), len(M.Coords))
	}
	for i, b := range M.Bonds {
		if b.At1 < 0 || b.At2 < 0 || b.At1 >= M.Len() || b.At2 >= M.Len() {
			return errors.Newf("Molecule/Corrupted: bond %d references atoms out of range", i)
		}
	}
	return nil
}
