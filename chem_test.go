/*
 * chem_test.go, part of mapex.
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

package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v3 "github.com/rmera/mapex/v3"
)

func propanol(Te *testing.T) *Topology {
	top := NewTopology(0, 0, nil)
	for _, s := range []string{"C", "C", "C", "O"} {
		top.AddAtom(&Atom{Symbol: s})
	}
	top.SetName("propanol")
	require.NoError(Te, top.AddBond(0, 1, 1))
	require.NoError(Te, top.AddBond(1, 2, 1))
	require.NoError(Te, top.AddBond(2, 3, 1))
	return top
}

func TestTopologyBonds(Te *testing.T) {
	top := propanol(Te)
	assert.Equal(Te, 1, top.Multi())
	assert.Equal(Te, []int{0, 2}, top.Neighbors(1))
	assert.Equal(Te, 2.0, top.BondOrderSum(2))
	assert.NotNil(Te, top.Bond(3, 2))
	assert.Nil(Te, top.Bond(0, 3))
	assert.Equal(Te, 0, top.Bond(1, 0).Cross(1))
	assert.Error(Te, top.AddBond(1, 0, 2), "already bonded")
	assert.Error(Te, top.AddBond(1, 1, 1), "self bond")
	assert.Error(Te, top.AddBond(0, 4, 1), "out of range")

	top.ResetIds()
	assert.Equal(Te, 4, top.Atom(3).Id)

	cp := top.Copy()
	cp.Atoms[0].Symbol = "N"
	cp.Bonds[0].Order = 2
	cp.SetName("other")
	assert.Equal(Te, "C", top.Atom(0).Symbol)
	assert.Equal(Te, 1.0, top.Bonds[0].Order)
	assert.Equal(Te, "propanol", top.Name())
}

func TestMoleculeConformers(Te *testing.T) {
	top := propanol(Te)
	_, err := NewMolecule(top, v3.Zeros(3))
	assert.Error(Te, err)
	_, err = NewMolecule(nil)
	assert.Error(Te, err)

	mol, err := NewMolecule(top, v3.Zeros(4), v3.Zeros(4))
	require.NoError(Te, err)
	assert.Equal(Te, 2, mol.ConformerCount())
	_, err = mol.Conformer(2)
	assert.Error(Te, err)
	assert.Error(Te, mol.AddConformer(nil))

	mol.Energies = []float64{1, 2}
	require.NoError(Te, mol.Corrupted())
	cp := mol.Copy()
	cp.Coords[0].SetVec(0, [3]float64{1, 1, 1})
	cp.Energies[0] = 5
	assert.Equal(Te, [3]float64{0, 0, 0}, mol.Coords[0].Vec(0))
	assert.Equal(Te, 1.0, mol.Energies[0])

	mol.Energies = []float64{1}
	assert.Error(Te, mol.Corrupted())
	mol.ClearConformers()
	assert.Zero(Te, mol.ConformerCount())
	assert.Nil(Te, mol.Energies)
	require.NoError(Te, mol.Corrupted())
}
