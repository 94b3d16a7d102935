/*
 * generator_test.go, part of mapex.
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
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	chem "github.com/rmera/mapex"
	v3 "github.com/rmera/mapex/v3"
)

// fakeEmbedder returns achieve conformations (n if achieve is 0), where atom
// i of conformation k is at (i, k, 0).
type fakeEmbedder struct {
	achieve int
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, mol *chem.Molecule, n int) ([]*v3.Matrix, []float64, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.achieve > 0 {
		n = f.achieve
	}
	confs := make([]*v3.Matrix, n)
	energies := make([]float64, n)
	for k := range confs {
		confs[k] = v3.Zeros(mol.Len())
		for i := 0; i < mol.Len(); i++ {
			confs[k].SetVec(i, [3]float64{float64(i), float64(k), 0})
		}
		energies[k] = float64(-k)
	}
	return confs, energies, nil
}

func TestGenerateRealToolkit(Te *testing.T) {
	emb := &fakeEmbedder{}
	gen := NewGenerator(NewToolkit(emb))
	set := SmilesSet{{"ethanol", "CCO"}, {"benzene", "c1ccccc1"}, {"acetate", "CC(=O)[O-]"}}
	var progress []string
	gen.Progress = func(done, total int, id string) {
		assert.Equal(Te, 3, total)
		assert.Equal(Te, len(progress)+1, done)
		progress = append(progress, id)
	}
	mols, err := gen.Generate(context.Background(), set, 4)
	require.NoError(Te, err)
	require.Len(Te, mols, 3)
	assert.Equal(Te, []string{"ethanol", "benzene", "acetate"}, progress)
	for i, mol := range mols {
		assert.Equal(Te, set[i].ID, mol.Name())
		assert.Equal(Te, 4, mol.ConformerCount())
		assert.Zero(Te, mol.ExplicitHydrogens())
		require.NoError(Te, mol.Corrupted())
		assert.Len(Te, mol.Energies, 4)
	}
	assert.Equal(Te, 3, mols[0].Len())
	assert.Equal(Te, []int{3, 2, 1}, []int{mols[0].Atom(0).ImplicitH, mols[0].Atom(1).ImplicitH, mols[0].Atom(2).ImplicitH})
	//heavy atoms keep their own coordinates after the hydrogens are removed
	assert.Equal(Te, [3]float64{2, 3, 0}, mols[0].Coords[3].Vec(2))
	assert.Equal(Te, -1, mols[2].Charge())
}

func TestGenerateParseErrorFailsBatch(Te *testing.T) {
	emb := &fakeEmbedder{}
	gen := NewGenerator(NewToolkit(emb))
	mols, err := gen.Generate(context.Background(), SmilesSet{{"ok", "CC"}, {"bad", "C1CC"}, {"never", "O"}}, 2)
	assert.Nil(Te, mols)
	var perr *ParseError
	require.True(Te, errors.As(err, &perr))
	assert.Equal(Te, "bad", perr.ID)
	assert.Equal(Te, "C1CC", perr.SMILES)
	assert.Contains(Te, err.Error(), `"bad"`)
	assert.Equal(Te, 1, emb.calls, "no molecule after the failing one is processed")
}

func TestGenerateTooFewConformers(Te *testing.T) {
	gen := NewGenerator(NewToolkit(&fakeEmbedder{achieve: 2}))
	mols, err := gen.Generate(context.Background(), SmilesSet{{"strained", "C12C3C1C23"}}, 5)
	assert.Nil(Te, mols)
	var gerr *GenerationError
	require.True(Te, errors.As(err, &gerr))
	assert.Equal(Te, "strained", gerr.ID)
	assert.Equal(Te, 5, gerr.Requested)
	assert.Equal(Te, 2, gerr.Achieved)
	assert.Nil(Te, gerr.Unwrap())
}

func TestGenerateEmbedderFailure(Te *testing.T) {
	cause := errors.New("obabel not found")
	gen := NewGenerator(NewToolkit(&fakeEmbedder{err: cause}))
	_, err := gen.Generate(context.Background(), SmilesSet{{"m", "CC"}}, 1)
	var gerr *GenerationError
	require.True(Te, errors.As(err, &gerr))
	assert.True(Te, errors.Is(err, cause))
}

func TestGenerateInputErrors(Te *testing.T) {
	gen := NewGenerator(NewToolkit(&fakeEmbedder{}))
	cases := []struct {
		set SmilesSet
		n   int
	}{
		{SmilesSet{{"a", "C"}}, 0},
		{SmilesSet{{"a", "C"}, {"a", "CC"}}, 1},
		{SmilesSet{{"", "C"}}, 1},
	}
	for _, c := range cases {
		_, err := gen.Generate(context.Background(), c.set, c.n)
		var ierr *InputError
		assert.True(Te, errors.As(err, &ierr), "%v", c)
	}
	mols, err := gen.Generate(context.Background(), nil, 3)
	require.NoError(Te, err)
	assert.Empty(Te, mols)
}

func TestGenerateCancelled(Te *testing.T) {
	emb := &fakeEmbedder{}
	gen := NewGenerator(NewToolkit(emb))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.Generate(ctx, SmilesSet{{"a", "C"}}, 1)
	assert.ErrorIs(Te, err, context.Canceled)
	assert.Zero(Te, emb.calls)
}

// fakeHandle lets the generator be tested without any chemistry.
type fakeHandle struct {
	name     string
	explicit bool
	confs    int
	achieve  int
}

func (h *fakeHandle) SetName(name string) { h.name = name }
func (h *fakeHandle) Name() string { return h.name }
func (h *fakeHandle) AddHydrogens() int {
	h.explicit = true
	return 1
}
func (h *fakeHandle) RemoveHydrogens() int {
	h.explicit = false
	return 1
}
func (h *fakeHandle) EmbedConformers(ctx context.Context, n int) (int, error) {
	if !h.explicit {
		return 0, errors.New("embedding without hydrogens")
	}
	h.confs = n
	if h.achieve > 0 {
		h.confs = h.achieve
	}
	return h.confs, nil
}
func (h *fakeHandle) ConformerCount() int { return h.confs }
func (h *fakeHandle) Molecule() *chem.Molecule {
	mol, _ := chem.NewMolecule(chem.NewTopology(0, 1, nil))
	mol.SetName(h.name)
	return mol
}

type fakeToolkit struct {
	handles []*fakeHandle
}

func (t *fakeToolkit) Parse(s string) (Handle, error) {
	if s == "" {
		return nil, nil
	}
	h := &fakeHandle{}
	if s == "short" {
		h.achieve = 1
	}
	t.handles = append(t.handles, h)
	return h, nil
}

func TestGenerateFakeToolkit(Te *testing.T) {
	tk := &fakeToolkit{}
	core, logs := observer.New(zap.DebugLevel)
	gen := &Generator{Toolkit: tk, Log: zap.New(core)}
	mols, err := gen.Generate(context.Background(), SmilesSet{{"x", "X"}, {"y", "Y"}}, 3)
	require.NoError(Te, err)
	require.Len(Te, mols, 2)
	assert.Equal(Te, "y", mols[1].Name())
	for _, h := range tk.handles {
		assert.False(Te, h.explicit, "hydrogens must be removed at the end")
		assert.Equal(Te, 3, h.confs)
	}
	assert.Equal(Te, 2, logs.FilterMessage("conformers generated").Len())

	_, err = gen.Generate(context.Background(), SmilesSet{{"x", "X"}, {"s", "short"}}, 3)
	var gerr *GenerationError
	require.True(Te, errors.As(err, &gerr))
	assert.Equal(Te, 1, gerr.Achieved)

	_, err = gen.Generate(context.Background(), SmilesSet{{"nil", ""}}, 3)
	var perr *ParseError
	require.True(Te, errors.As(err, &perr), "a toolkit returning no molecule is a parse error")
}
