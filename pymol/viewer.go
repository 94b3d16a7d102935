/*
 * viewer.go, part of mapex.
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

import "context"

// Viewer is a connection to a running molecular viewer.
type Viewer interface {
	//ShowMolecule loads a molecule, given as a MOL block, under the given
	//name, without hiding other objects, and zooms on it.
	ShowMolecule(ctx context.Context, molblock, name string) error
	//AddPharmacophore draws one sphere per point, in a group with the given label.
	//colors has one element per point.
	AddPharmacophore(ctx context.Context, points [][3]float64, label string, colors []RGB, radius float64) error
	//SaveImage saves the current view as an image.
	SaveImage(ctx context.Context, path string) error
	Close() error
}

// Dialer connects to a viewer. It should return an *UnavailableError if the
// viewer can't be reached.
type Dialer interface {
	Dial(ctx context.Context) (Viewer, error)
}
