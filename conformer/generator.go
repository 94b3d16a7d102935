/*
 * generator.go, part of mapex.
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

// Package conformer generates sets of 3D conformations for molecules given
// as SMILES strings. The embedding itself is done by external programs
// (OpenBabel, CREST) through the Embedder interface.
package conformer

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	chem "github.com/rmera/mapex"
)

// Entry is one molecule to be processed: an identifier and its SMILES string.
type Entry struct {
	ID     string
	SMILES string
}

// SmilesSet is an ordered set of molecules. The molecules returned by
// Generate follow its order.
type SmilesSet []Entry

// Validate checks that every entry has a non-empty, unique identifier.
func (S SmilesSet) Validate() error {
	seen := make(map[string]bool, len(S))
	for i, e := range S {
		if e.ID == "" {
			return &InputError{Msg: fmt.Sprintf("entry %d has an empty identifier", i)}
		}
		if seen[e.ID] {
			return &InputError{Msg: fmt.Sprintf("duplicated identifier %q", e.ID)}
		}
		seen[e.ID] = true
	}
	return nil
}

// ProgressFunc is called after each molecule is finished, with the number of
// molecules done so far, the total, and the identifier of the last one.
type ProgressFunc func(done, total int, id string)

// Generator produces conformations for sets of molecules. The zero value is
// not usable, use NewGenerator.
type Generator struct {
	Toolkit  Toolkit
	Progress ProgressFunc //can be nil
	Log      *zap.Logger  //can be nil
}

// NewGenerator returns a Generator that uses the given toolkit.
func NewGenerator(tk Toolkit) *Generator {
	return &Generator{Toolkit: tk}
}

// Generate returns one molecule per entry of set, in the same order, each
// with exactly numConfs conformations and no explicit hydrogens.
// The whole batch fails on the first error: no partial results are returned.
// Errors are *InputError, *ParseError or *GenerationError, or the context's error.
func (G *Generator) Generate(ctx context.Context, set SmilesSet, numConfs int) ([]*chem.Molecule, error) {
	if G.Toolkit == nil {
		return nil, errors.New("Generator/Generate: no toolkit set")
	}
	if numConfs < 1 {
		return nil, &InputError{Msg: fmt.Sprintf("number of conformers must be at least 1, got %d", numConfs)}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	log := G.Log
	if log == nil {
		log = zap.NewNop()
	}
	ret := make([]*chem.Molecule, 0, len(set))
	for i, e := range set {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mol, err := G.generateOne(ctx, e, numConfs)
		if err != nil {
			return nil, err
		}
		log.Debug("conformers generated",
			zap.String("id", e.ID),
			zap.Int("atoms", mol.Len()),
			zap.Int("conformers", mol.ConformerCount()))
		ret = append(ret, mol)
		if G.Progress != nil {
			G.Progress(i+1, len(set), e.ID)
		}
	}
	return ret, nil
}

func (G *Generator) generateOne(ctx context.Context, e Entry, numConfs int) (*chem.Molecule, error) {
	h, err := G.Toolkit.Parse(e.SMILES)
	if err != nil || h == nil {
		if err == nil {
			err = errors.New("toolkit returned no molecule")
		}
		return nil, &ParseError{ID: e.ID, SMILES: e.SMILES, Err: err}
	}
	h.SetName(e.ID)
	h.AddHydrogens()
	n, err := h.EmbedConformers(ctx, numConfs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &GenerationError{ID: e.ID, Requested: numConfs, Achieved: n, Err: err}
	}
	if n != numConfs {
		return nil, &GenerationError{ID: e.ID, Requested: numConfs, Achieved: n}
	}
	h.RemoveHydrogens()
	return h.Molecule(), nil
}
