/*
 * errors.go, part of mapex.
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

import "fmt"

// UnavailableError means that no viewer could be reached. Nothing was shown
// and no image was written.
type UnavailableError struct {
	Addr string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("pymol: viewer not available at %s (%v). Start PyMOL in server mode with 'pymol -R'", e.Addr, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ValidationError reports invalid arguments, detected before contacting the viewer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "pymol: " + e.Msg
}

// MissingColorError means that a pharmacophore category has no color assigned.
type MissingColorError struct {
	Category Category
}

func (e *MissingColorError) Error() string {
	return fmt.Sprintf("pymol: no color given for pharmacophore category %q", string(e.Category))
}
