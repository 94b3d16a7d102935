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

package conformer

import "fmt"

// InputError is returned when the arguments to Generate are invalid,
// before any molecule is processed.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return "conformer: invalid input: " + e.Msg
}

// ParseError is returned when the SMILES string for a molecule can't be parsed.
type ParseError struct {
	ID     string
	SMILES string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("conformer: can't parse SMILES %q for molecule %q: %v", e.SMILES, e.ID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError is returned when fewer conformations than requested were
// embedded for a molecule. If the embedding program itself failed, Err holds
// the cause and Achieved is 0.
type GenerationError struct {
	ID        string
	Requested int
	Achieved  int
	Err       error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conformer: embedding failed for molecule %q (%d of %d conformers): %v", e.ID, e.Achieved, e.Requested, e.Err)
	}
	return fmt.Sprintf("conformer: only %d of %d conformers embedded for molecule %q", e.Achieved, e.Requested, e.ID)
}

func (e *GenerationError) Unwrap() error { return e.Err }
