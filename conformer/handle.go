/*
 * handle.go, part of mapex.
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

	"github.com/cockroachdb/errors"

	chem "github.com/rmera/mapex"
	"github.com/rmera/mapex/smiles"
	v3 "github.com/rmera/mapex/v3"
)

// Handle is what the Generator needs from a molecule.
type Handle interface {
	SetName(name string)
	Name() string
	AddHydrogens() int
	RemoveHydrogens() int
	//EmbedConformers replaces the stored conformations with up to n new ones
	//and returns how many were obtained.
	EmbedConformers(ctx context.Context, n int) (int, error)
	ConformerCount() int
	Molecule() *chem.Molecule
}

// Toolkit builds molecule handles from SMILES strings.
type Toolkit interface {
	Parse(smiles string) (Handle, error)
}

// Embedder produces 3D conformations for a molecule with explicit hydrogens.
// Each returned matrix has one row per atom of mol, in the same order.
// energies can be nil, otherwise it has one element per conformation.
type Embedder interface {
	Embed(ctx context.Context, mol *chem.Molecule, n int) (confs []*v3.Matrix, energies []float64, err error)
}

// NewToolkit returns a Toolkit that parses SMILES with package smiles and
// embeds conformations with e.
func NewToolkit(e Embedder) Toolkit {
	return &toolkit{embedder: e}
}

type toolkit struct {
	embedder Embedder
}

func (t *toolkit) Parse(s string) (Handle, error) {
	mol, err := smiles.Parse(s)
	if err != nil {
		return nil, err
	}
	return &molHandle{mol: mol, embedder: t.embedder}, nil
}

type molHandle struct {
	mol      *chem.Molecule
	embedder Embedder
}

func (h *molHandle) SetName(name string) { h.mol.SetName(name) }
func (h *molHandle) Name() string { return h.mol.Name() }
func (h *molHandle) AddHydrogens() int { return h.mol.AddHydrogens() }
func (h *molHandle) RemoveHydrogens() int { return h.mol.RemoveHydrogens() }
func (h *molHandle) ConformerCount() int { return h.mol.ConformerCount() }
func (h *molHandle) Molecule() *chem.Molecule { return h.mol }

func (h *molHandle) EmbedConformers(ctx context.Context, n int) (int, error) {
	errid := "molHandle/EmbedConformers"
	if h.embedder == nil {
		return 0, errors.Newf("%s: no embedder set", errid)
	}
	confs, energies, err := h.embedder.Embed(ctx, h.mol, n)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", errid)
	}
	h.mol.ClearConformers()
	for i, c := range confs {
		if err := h.mol.AddConformer(c); err != nil {
			return 0, errors.Wrapf(err, "%s: conformer %d", errid, i)
		}
	}
	if len(energies) == len(confs) && len(confs) > 0 {
		h.mol.Energies = energies
	}
	return h.mol.ConformerCount(), nil
}
