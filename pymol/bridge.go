/*
 * bridge.go, part of mapex.
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

// Package pymol shows molecules and pharmacophore models in PyMOL, through
// its XML-RPC server.
//
// A Bridge validates its arguments before contacting the viewer, so
// invalid calls have no effect on the viewer state.
package pymol

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	chem "github.com/rmera/mapex"
)

// DefaultImagePath is where rendered images are saved unless otherwise set.
const DefaultImagePath = "examples/molecule_complex.png"

// SphereRadius is the radius of the pharmacophore spheres, in A.
const SphereRadius = 0.6

// Bridge displays sets of molecules, with a chosen conformation each, and
// pharmacophore models in a viewer.
type Bridge struct {
	Dialer    Dialer
	ImagePath string      //DefaultImagePath if empty
	Log       *zap.Logger //can be nil
}

// NewBridge returns a bridge that connects to the viewer through d.
func NewBridge(d Dialer) *Bridge {
	return &Bridge{Dialer: d, ImagePath: DefaultImagePath}
}

// Show displays the conformation chromosome[i] of each molecule mols[i], and,
// if ph is not nil, a sphere for each pharmacophore point. cols gives the color
// for each pharmacophore category, DefaultColors() is used if it's nil.
// If render is true, the resulting view is saved to the bridge's image path,
// which is overwritten if it exists.
// Invalid arguments give a *ValidationError or a *MissingColorError, and a
// viewer that can't be reached gives an *UnavailableError. In those cases
// nothing is sent to the viewer and no image is written.
func (B *Bridge) Show(ctx context.Context, mols []*chem.Molecule, chromosome []int, ph Pharmacophore, cols map[Category]RGB, render bool) error {
	errid := "Bridge/Show"
	if cols == nil {
		cols = DefaultColors()
	}
	if err := validate(mols, chromosome, ph, cols); err != nil {
		return err
	}
	log := B.Log
	if log == nil {
		log = zap.NewNop()
	}
	//MOL blocks are built before connecting, so errors there have no side effects either.
	blocks := make([]string, len(mols))
	for i, mol := range mols {
		mb, err := chem.MolBlock(mol, mol.Coords[chromosome[i]])
		if err != nil {
			return errors.Wrapf(err, "%s: molecule %d", errid, i)
		}
		blocks[i] = mb
	}
	var image string
	if render {
		var err error
		image, err = B.imagePath()
		if err != nil {
			return errors.Wrapf(err, "%s", errid)
		}
	}
	if B.Dialer == nil {
		return errors.Newf("%s: no dialer set", errid)
	}
	v, err := B.Dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer v.Close()
	for i, mol := range mols {
		if err := v.ShowMolecule(ctx, blocks[i], mol.Name()); err != nil {
			return errors.Wrapf(err, "%s: showing %q", errid, mol.Name())
		}
		log.Debug("molecule shown", zap.String("name", mol.Name()), zap.Int("conformer", chromosome[i]))
	}
	for _, c := range ph.Categories() {
		points := ph[c]
		colors := lo.Times(len(points), func(int) RGB { return cols[c] })
		if err := v.AddPharmacophore(ctx, points, label(c), colors, SphereRadius); err != nil {
			return errors.Wrapf(err, "%s: pharmacophore %s", errid, c)
		}
		log.Debug("pharmacophore shown", zap.String("category", string(c)), zap.Int("points", len(points)))
	}
	if !render {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(image), 0o755); err != nil {
		return errors.Wrapf(err, "%s: image directory", errid)
	}
	if err := v.SaveImage(ctx, image); err != nil {
		return errors.Wrapf(err, "%s: saving image", errid)
	}
	log.Info("image saved", zap.String("path", image))
	return nil
}

// imagePath returns the absolute image path, as the viewer runs in its own
// working directory.
func (B *Bridge) imagePath() (string, error) {
	p := B.ImagePath
	if p == "" {
		p = DefaultImagePath
	}
	return filepath.Abs(p)
}

func validate(mols []*chem.Molecule, chromosome []int, ph Pharmacophore, cols map[Category]RGB) error {
	if len(chromosome) != len(mols) {
		return &ValidationError{Msg: fmt.Sprintf("chromosome has %d entries for %d molecules", len(chromosome), len(mols))}
	}
	for i, mol := range mols {
		if mol == nil {
			return &ValidationError{Msg: fmt.Sprintf("molecule %d is nil", i)}
		}
		if c := chromosome[i]; c < 0 || c >= mol.ConformerCount() {
			return &ValidationError{Msg: fmt.Sprintf("conformer %d requested for molecule %d (%q), which has %d", c, i, mol.Name(), mol.ConformerCount())}
		}
	}
	for _, c := range ph.Categories() {
		col, ok := cols[c]
		if !ok {
			return &MissingColorError{Category: c}
		}
		if !col.Valid() {
			return &ValidationError{Msg: fmt.Sprintf("color %v for category %q out of the [0,1] range", col, string(c))}
		}
	}
	return nil
}
