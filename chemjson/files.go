/*
 * files.go, part of mapex.
 *
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
 *
 */

package chemjson

import (
	"bufio"

	"github.com/cockroachdb/errors"

	chem "github.com/rmera/mapex"
)

// WriteFile writes mols to the file name, compressed according to the
// extension (.gz or .zst), or uncompressed otherwise.
func WriteFile(name string, mols []*chem.Molecule) error {
	out, err := chem.OpenWriter(name)
	if err != nil {
		return errors.Wrap(err, "chemjson/WriteFile")
	}
	w := bufio.NewWriter(out)
	if jerr := Encode(w, mols); jerr != nil {
		out.Close()
		return jerr
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return errors.Wrap(err, "chemjson/WriteFile")
	}
	return errors.Wrap(out.Close(), "chemjson/WriteFile")
}

// ReadFile reads all the molecules in a file written by WriteFile.
func ReadFile(name string) ([]*chem.Molecule, error) {
	in, err := chem.OpenReader(name)
	if err != nil {
		return nil, errors.Wrap(err, "chemjson/ReadFile")
	}
	defer in.Close()
	mols, jerr := Decode(bufio.NewReader(in))
	if jerr != nil {
		return nil, jerr
	}
	return mols, nil
}
