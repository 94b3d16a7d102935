/*
 * programs_test.go, part of mapex.
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

package conformer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chem "github.com/rmera/mapex"
	"github.com/rmera/mapex/smiles"
	v3 "github.com/rmera/mapex/v3"
)

// The external programs are replaced by small shell scripts that produce
// the files the real programs would.

func fakeProgram(Te *testing.T, body string) string {
	if runtime.GOOS == "windows" {
		Te.Skip("fake programs are shell scripts")
	}
	path := filepath.Join(Te.TempDir(), "fakeprog")
	require.NoError(Te, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// explicitEthanol returns ethanol with explicit hydrogens and no conformations.
func explicitEthanol(Te *testing.T) *chem.Molecule {
	mol, err := smiles.Parse("CCO")
	require.NoError(Te, err)
	mol.SetName("ethanol")
	mol.AddHydrogens()
	return mol
}

// withConformers returns a copy of mol with n conformations.
func withConformers(Te *testing.T, mol *chem.Molecule, n int) *chem.Molecule {
	r := mol.Copy()
	for k := 0; k < n; k++ {
		c := v3.Zeros(r.Len())
		for i := 0; i < r.Len(); i++ {
			c.SetVec(i, [3]float64{float64(i), float64(k), 0.5})
		}
		require.NoError(Te, r.AddConformer(c))
	}
	return r
}

func TestOBabelEmbed(Te *testing.T) {
	mol := explicitEthanol(Te)
	fixture := filepath.Join(Te.TempDir(), "fixture.sdf")
	require.NoError(Te, chem.SDFFileWrite(fixture, withConformers(Te, mol, 3)))

	work := Te.TempDir()
	ob := NewOBabelHandle()
	ob.SetCommand(fakeProgram(Te, fmt.Sprintf("echo \"$@\" > args.txt\ncp %s \"$3\"", fixture)))
	ob.SetWorkDir(work)
	ob.SetKeepFiles(true)
	confs, energies, err := ob.Embed(context.Background(), mol, 2)
	require.NoError(Te, err)
	require.Len(Te, confs, 2, "extra conformers are dropped")
	assert.Nil(Te, energies)
	assert.Equal(Te, [3]float64{4, 1, 0.5}, confs[1].Vec(4))

	args, err := os.ReadFile(filepath.Join(work, "args.txt"))
	require.NoError(Te, err)
	assert.Equal(Te, "mapex.mol -O mapex_confs.sdf --gen3d --conformer --nconf 2 --writeconformers --score energy --ff MMFF94", strings.TrimSpace(string(args)))
	input, err := os.ReadFile(filepath.Join(work, "mapex.mol"))
	require.NoError(Te, err)
	assert.True(Te, bytes.HasPrefix(input, []byte("ethanol\n")))
}

func TestOBabelSingleConformer(Te *testing.T) {
	ob := NewOBabelHandle()
	ob.SetWorkDir(Te.TempDir())
	args, err := ob.BuildInput(explicitEthanol(Te), 1)
	require.NoError(Te, err)
	assert.NotContains(Te, args, "--conformer")
	assert.Contains(Te, args, "--gen3d")
	_, err = ob.BuildInput(explicitEthanol(Te), 0)
	assert.Error(Te, err)
}

func TestOBabelFailures(Te *testing.T) {
	mol := explicitEthanol(Te)
	ob := NewOBabelHandle()
	ob.SetCommand(fakeProgram(Te, "echo broken >&2\nexit 3"))
	_, _, err := ob.Embed(context.Background(), mol, 2)
	assert.Error(Te, err)

	//conformers for a different molecule
	other, err := smiles.Parse("CCN")
	require.NoError(Te, err)
	other.AddHydrogens()
	fixture := filepath.Join(Te.TempDir(), "other.sdf")
	require.NoError(Te, chem.SDFFileWrite(fixture, withConformers(Te, other, 2)))
	ob.SetCommand(fakeProgram(Te, fmt.Sprintf("cp %s \"$3\"", fixture)))
	_, _, err = ob.Embed(context.Background(), mol, 2)
	assert.Error(Te, err)

	ob.SetCommand(filepath.Join(Te.TempDir(), "does-not-exist"))
	_, _, err = ob.Embed(context.Background(), mol, 2)
	assert.Error(Te, err)
}

// crestFixture writes a CREST ensemble for mol, where frame k has atom i at
// (i, k, 0.5), whatever conformations mol already has.
func crestFixture(Te *testing.T, mol *chem.Molecule, energies ...string) string {
	bare := mol.Copy()
	bare.ClearConformers()
	full := withConformers(Te, bare, len(energies))
	var buf bytes.Buffer
	for i, e := range energies {
		require.NoError(Te, chem.XYZWrite(&buf, full.Coords[i], full, e))
	}
	fixture := filepath.Join(Te.TempDir(), "crest_conformers.xyz")
	require.NoError(Te, os.WriteFile(fixture, buf.Bytes(), 0o644))
	return fixture
}

func TestCrestEmbed(Te *testing.T) {
	mol := withConformers(Te, explicitEthanol(Te), 1)
	fixture := crestFixture(Te, mol, "  -11.50000000", "  -11.49000000", "  -11.40000000")
	work := filepath.Join(Te.TempDir(), "crest")
	cr := NewCrestHandle()
	cr.SetnCPU(4)
	cr.EThres = 3
	cr.SetWorkDir(work)
	cr.SetKeepFiles(true)
	cr.SetCommand(fakeProgram(Te, fmt.Sprintf("echo \"$@\" > args.txt\ncp %s crest_conformers.xyz\necho ' CREST terminated normally.'", fixture)))
	confs, energies, err := cr.Embed(context.Background(), mol, 2)
	require.NoError(Te, err)
	require.Len(Te, confs, 2)
	require.Len(Te, energies, 2)
	assert.InDelta(Te, -11.5*chem.H2Kcal, energies[0], 1e-6)
	v := confs[1].Vec(2)
	assert.InDeltaSlice(Te, []float64{2, 1, 0.5}, v[:], 1e-6)
	//the starting geometry is not part of the result.
	v = confs[0].Vec(2)
	assert.InDeltaSlice(Te, []float64{2, 0, 0.5}, v[:], 1e-6)
	assert.Equal(Te, 1, mol.ConformerCount())

	args, err := os.ReadFile(filepath.Join(work, "args.txt"))
	require.NoError(Te, err)
	assert.Equal(Te, "mapex.xyz --chrg 0 --uhf 0 -T 4 --gfn2 --ewin 3.0", strings.TrimSpace(string(args)))
	_, err = os.Stat(filepath.Join(work, "mapex.xyz"))
	assert.NoError(Te, err)
}

func TestCrestSeedAndTermination(Te *testing.T) {
	mol := explicitEthanol(Te)
	fixture := crestFixture(Te, mol, "-11.5")
	seed := &fakeEmbedder{}
	cr := NewCrestHandle()
	cr.Seed = seed
	cr.SetCommand(fakeProgram(Te, fmt.Sprintf("cp %s crest_conformers.xyz\necho 'CREST terminated normally.'", fixture)))
	confs, _, err := cr.Embed(context.Background(), mol, 5)
	require.NoError(Te, err)
	assert.Len(Te, confs, 1, "CREST may find fewer conformers than requested")
	assert.Equal(Te, 1, seed.calls)

	cr.SetCommand(fakeProgram(Te, fmt.Sprintf("cp %s crest_conformers.xyz", fixture)))
	_, _, err = cr.Embed(context.Background(), mol, 1)
	assert.ErrorContains(Te, err, "didn't finish normally")

	cr.Seed = nil
	_, _, err = cr.Embed(context.Background(), mol, 1)
	assert.Error(Te, err)
}

func TestCrestThroughGenerator(Te *testing.T) {
	//the generator hands CREST the molecule with explicit hydrogens, so
	//the fixture is written for that molecule.
	fixture := crestFixture(Te, explicitEthanol(Te), "-11.5", "-11.4")
	cr := NewCrestHandle()
	cr.Seed = &fakeEmbedder{}
	cr.SetCommand(fakeProgram(Te, fmt.Sprintf("cp %s crest_conformers.xyz\necho 'CREST terminated normally.'", fixture)))
	mols, err := NewGenerator(NewToolkit(cr)).Generate(context.Background(), SmilesSet{{"ethanol", "CCO"}}, 2)
	require.NoError(Te, err)
	require.Len(Te, mols, 1)
	assert.Equal(Te, 3, mols[0].Len())
	assert.Equal(Te, 2, mols[0].ConformerCount())
	assert.Len(Te, mols[0].Energies, 2)
}

func TestSearchBackwards(Te *testing.T) {
	f := filepath.Join(Te.TempDir(), "out")
	require.NoError(Te, os.WriteFile(f, []byte("first line\nmiddle\nCREST terminated normally.\n\n"), 0o644))
	assert.Equal(Te, "CREST terminated normally.", searchBackwards("terminated", f))
	assert.Equal(Te, "first line", searchBackwards("first", f))
	assert.Equal(Te, "", searchBackwards("absent", f))
	assert.Equal(Te, "", searchBackwards("x", filepath.Join(Te.TempDir(), "none")))
}
