/*
 * mol_test.go, part of mapex.
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
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v3 "github.com/rmera/mapex/v3"
)

func maxDeviation(a, b *v3.Matrix) float64 {
	m := 0.0
	for i := 0; i < a.NVecs(); i++ {
		if d := v3.Norm(v3.Sub(a.Vec(i), b.Vec(i))); d > m {
			m = d
		}
	}
	return m
}

// acetate returns a charged molecule with an aromatic-free connection table
// and two conformations.
func acetate(Te *testing.T) *Molecule {
	top := NewTopology(-1, 1, []*Atom{
		{Symbol: "C"}, {Symbol: "C"}, {Symbol: "O"}, {Symbol: "O", Charge: -1},
	})
	top.SetName("acetate")
	require.NoError(Te, top.AddBond(0, 1, 1))
	require.NoError(Te, top.AddBond(1, 2, 2))
	require.NoError(Te, top.AddBond(1, 3, 1))
	c1, _ := v3.NewMatrix([]float64{0, 0, 0, 1.5, 0, 0, 2.1, 1.1, 0, 2.1, -1.1, 0})
	c2, _ := v3.NewMatrix([]float64{0, 0, 0.1, 1.5, 0, 0.1, 2.1, 1.1, 0.1, 2.1, -1.1, 0.1})
	mol, err := NewMolecule(top, c1, c2)
	require.NoError(Te, err)
	mol.Energies = []float64{-1.5, -1.2}
	return mol
}

func TestMolBlock(Te *testing.T) {
	mol := acetate(Te)
	mb, err := MolBlock(mol, mol.Coords[0])
	require.NoError(Te, err)
	lines := strings.Split(mb, "\n")
	assert.Equal(Te, "acetate", lines[0])
	assert.Equal(Te, "  4  3  0  0  0  0  0  0  0  0999 V2000", lines[3])
	assert.Equal(Te, "    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0", lines[5])
	assert.Equal(Te, "  2  3  2  0", lines[9])
	assert.Contains(Te, mb, "M  CHG  1   4  -1\n")
	assert.True(Te, strings.HasSuffix(mb, "M  END\n"))

	_, err = MolBlock(mol, v3.Zeros(2))
	assert.Error(Te, err)
}

func TestSDFRoundTrip(Te *testing.T) {
	mol := acetate(Te)
	var buf bytes.Buffer
	require.NoError(Te, SDFWrite(&buf, mol))
	assert.Equal(Te, 2, strings.Count(buf.String(), "$$$$"))
	mols, err := SDFRead(&buf)
	require.NoError(Te, err)
	require.Len(Te, mols, 1, "conformers of one molecule must be merged")
	r := mols[0]
	assert.Equal(Te, "acetate", r.Name())
	assert.Equal(Te, 2, r.ConformerCount())
	assert.Equal(Te, -1, r.Charge())
	assert.Equal(Te, -1, r.Atom(3).Charge)
	assert.Equal(Te, 2.0, r.Bond(1, 2).Order)
	assert.InDeltaSlice(Te, mol.Energies, r.Energies, 1e-6)
	for i := range mol.Coords {
		assert.Less(Te, maxDeviation(mol.Coords[i], r.Coords[i]), 1e-4)
	}
}

func TestSDFReadSeparatesMolecules(Te *testing.T) {
	a := acetate(Te)
	b := acetate(Te)
	b.SetName("other")
	b.Energies = nil
	var buf bytes.Buffer
	require.NoError(Te, SDFWrite(&buf, a))
	require.NoError(Te, SDFWrite(&buf, b))
	mols, err := SDFRead(&buf)
	require.NoError(Te, err)
	require.Len(Te, mols, 2)
	assert.Equal(Te, "other", mols[1].Name())
	assert.Nil(Te, mols[1].Energies)
}

func TestSDFAromaticAndAtomCharges(Te *testing.T) {
	//an atom-block charge code (3 -> +1) on an aromatic ring fragment
	sdf := `ring
  test

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.4000    0.0000    0.0000 N   0  3  0  0  0  0  0  0  0  0  0  0
    2.1000    1.2000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  4  0
  2  3  4  0
M  END
$$$$
`
	mols, err := SDFRead(strings.NewReader(sdf))
	require.NoError(Te, err)
	m := mols[0]
	assert.Equal(Te, 1, m.Atom(1).Charge)
	assert.Equal(Te, 1, m.Charge())
	assert.True(Te, m.Atom(0).Aromatic)
	assert.True(Te, m.Bond(0, 1).Aromatic())
	assert.Nil(Te, m.Energies)
}

func TestSDFReadErrors(Te *testing.T) {
	_, err := SDFRead(strings.NewReader(""))
	assert.Error(Te, err)
	_, err = SDFRead(strings.NewReader("x\n\n\n  1  0  0  0  0  0  0  0  0  0999 V3000\n"))
	assert.Error(Te, err)
	_, err = SDFRead(strings.NewReader("x\n\n\n  2  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C   0  0\n"))
	assert.Error(Te, err)
}

func TestXYZFrames(Te *testing.T) {
	mol := acetate(Te)
	var buf bytes.Buffer
	require.NoError(Te, XYZWrite(&buf, mol.Coords[0], mol, "-12.5"))
	require.NoError(Te, XYZWrite(&buf, mol.Coords[1], mol, "-12.0"))
	fr, err := XYZReadFrames(&buf)
	require.NoError(Te, err)
	assert.Equal(Te, []string{"C", "C", "O", "O"}, fr.Symbols)
	require.Len(Te, fr.Frames, 2)
	assert.Equal(Te, "-12.0", strings.TrimSpace(fr.Comments[1]))
	assert.Less(Te, maxDeviation(mol.Coords[1], fr.Frames[1]), 1e-5)

	_, err = XYZReadFrames(strings.NewReader("2\n\nC 0 0 0\n"))
	assert.Error(Te, err)
	_, err = XYZReadFrames(strings.NewReader("1\n\nC 0 0 0\n1\n\nO 0 0 0\n"))
	assert.Error(Te, err, "frames with different atoms")
}

func TestCompressedFiles(Te *testing.T) {
	dir := Te.TempDir()
	mol := acetate(Te)
	for _, name := range []string{"confs.sdf", "confs.sdf.gz", "sub/confs.sdf.zst"} {
		fname := filepath.Join(dir, name)
		require.NoError(Te, SDFFileWrite(fname, mol), name)
		mols, err := SDFFileRead(fname)
		require.NoError(Te, err, name)
		require.Len(Te, mols, 1)
		assert.Equal(Te, 2, mols[0].ConformerCount(), name)
	}
	assert.Equal(Te, "confs.sdf", StripCompression("confs.sdf.gz"))
	assert.Equal(Te, "confs.sdf", StripCompression("confs.sdf"))

	xyz := filepath.Join(dir, "mol.xyz.gz")
	require.NoError(Te, XYZFileWrite(xyz, mol.Coords[0], mol))
	fr, err := XYZFileReadFrames(xyz)
	require.NoError(Te, err)
	assert.Len(Te, fr.Frames, 1)
}
