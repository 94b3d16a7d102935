/*
 * json.go, part of mapex.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chemjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	chem "github.com/rmera/mapex"
	v3 "github.com/rmera/mapex/v3"
)

// A ready-to-serialize container for coordinates
type Coords struct {
	Coords []float64
}

// An easily JSON-serializable error type,
type Error struct {
	IsError       bool   //If this is false (no error) all the other fields will be at their zero-values.
	InHeader      bool   //If error, was it in the header?
	InMolecule    bool   //Was it reading or writing a molecule?
	InPostProcess bool   //was it in preparing the output?
	Molecule      int    //Which molecule?
	Function      string //which go function gave the error
	Message       string //the error itself
}

// Error implements the error interface
func (J *Error) Error() string {
	return J.Message
}

// Serializes the error. Panics on failure.
func (J *Error) Marshal() []byte {
	ret, err2 := json.Marshal(J)
	if err2 != nil {
		panic(strings.Join([]string{J.Error(), err2.Error()}, " - "))
	}
	return ret
}

// Takes an error and some additional info to create a json-marshal-ble error
func NewError(where, function string, err error) *Error {
	jerr := new(Error)
	jerr.IsError = true
	switch where {
	case "header":
		jerr.InHeader = true
	case "postprocess":
		jerr.InPostProcess = true
	default:
		jerr.InMolecule = true
	}
	jerr.Function = function
	jerr.Message = fmt.Sprintf("%s: %s", function, err.Error())
	return jerr
}

// Info is the first line of a stream, and describes the molecules that follow.
type Info struct {
	Molecules         int
	Names             []string
	Charges           []int
	Multis            []int
	AtomsPerMolecule  []int
	BondsPerMolecule  []int
	FramesPerMolecule []int
	Energies          [][]float64 //nil for molecules without energies
}

// Send Marshals the info and writes to out, returns an error or nil
func (J *Info) Send(out io.Writer) *Error {
	enc := json.NewEncoder(out)
	if err := enc.Encode(J); err != nil {
		return NewError("postprocess", "Info.Send", err)
	}
	return nil
}

func (J *Info) check() error {
	n := J.Molecules
	for _, l := range []int{len(J.Names), len(J.Charges), len(J.Multis), len(J.AtomsPerMolecule), len(J.BondsPerMolecule), len(J.FramesPerMolecule)} {
		if l != n {
			return errors.Newf("header for %d molecules has fields of length %d", n, l)
		}
	}
	if J.Energies != nil && len(J.Energies) != n {
		return errors.Newf("header for %d molecules has energies for %d", n, len(J.Energies))
	}
	return nil
}

// DecodeInfo reads the header of a stream.
func DecodeInfo(stream *bufio.Reader) (*Info, *Error) {
	line, err := stream.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, NewError("header", "DecodeInfo", err)
	}
	ret := new(Info)
	if err = json.Unmarshal(line, ret); err != nil {
		return nil, NewError("header", "DecodeInfo", err)
	}
	if err = ret.check(); err != nil {
		return nil, NewError("header", "DecodeInfo", err)
	}
	return ret, nil
}

// Encode writes the header and all the molecules, with all their conformations, to out.
func Encode(out io.Writer, mols []*chem.Molecule) *Error {
	info := &Info{Molecules: len(mols)}
	anyE := false
	for _, m := range mols {
		info.Names = append(info.Names, m.Name())
		info.Charges = append(info.Charges, m.Charge())
		info.Multis = append(info.Multis, m.Multi())
		info.AtomsPerMolecule = append(info.AtomsPerMolecule, m.Len())
		info.BondsPerMolecule = append(info.BondsPerMolecule, len(m.Bonds))
		info.FramesPerMolecule = append(info.FramesPerMolecule, m.ConformerCount())
		info.Energies = append(info.Energies, m.Energies)
		if m.Energies != nil {
			anyE = true
		}
	}
	if !anyE {
		info.Energies = nil
	}
	if err := info.Send(out); err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for i, m := range mols {
		if err := SendMolecule(m, enc); err != nil {
			err.Molecule = i
			return err
		}
	}
	return nil
}

// Decode reads a stream written by Encode.
func Decode(stream *bufio.Reader) ([]*chem.Molecule, *Error) {
	info, err := DecodeInfo(stream)
	if err != nil {
		return nil, err
	}
	mols := make([]*chem.Molecule, 0, info.Molecules)
	for i := 0; i < info.Molecules; i++ {
		mol, err := DecodeMolecule(stream, info.AtomsPerMolecule[i], info.BondsPerMolecule[i], info.FramesPerMolecule[i])
		if err != nil {
			err.Molecule = i
			return nil, err
		}
		mol.SetName(info.Names[i])
		mol.SetCharge(info.Charges[i])
		mol.SetMulti(info.Multis[i])
		if info.Energies != nil && info.Energies[i] != nil {
			if len(info.Energies[i]) != mol.ConformerCount() {
				jerr := NewError("header", "Decode", errors.Newf("%d energies for %d frames", len(info.Energies[i]), mol.ConformerCount()))
				jerr.Molecule = i
				return nil, jerr
			}
			mol.Energies = info.Energies[i]
		}
		mols = append(mols, mol)
	}
	return mols, nil
}

// DecodeMolecule Decodes a JSON molecule into a mapex molecule. Can handle several frames (all of which need to have the same amount of atoms).
func DecodeMolecule(stream *bufio.Reader, atomnumber, bondnumber, frames int) (*chem.Molecule, *Error) {
	const funcname = "DecodeMolecule" //for the error
	atoms := make([]*chem.Atom, 0, atomnumber)
	for i := 0; i < atomnumber; i++ {
		line, err := stream.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, NewError("molecule", funcname, errors.Wrapf(err, "atom %d", i))
		}
		at := new(chem.Atom)
		if err = json.Unmarshal(line, at); err != nil {
			return nil, NewError("molecule", funcname, err)
		}
		atoms = append(atoms, at)
	}
	top := chem.NewTopology(0, 1, atoms)
	for i := 0; i < bondnumber; i++ {
		line, err := stream.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, NewError("molecule", funcname, errors.Wrapf(err, "bond %d", i))
		}
		b := new(chem.Bond)
		if err = json.Unmarshal(line, b); err != nil {
			return nil, NewError("molecule", funcname, err)
		}
		if err = top.AddBond(b.At1, b.At2, b.Order); err != nil {
			return nil, NewError("molecule", funcname, err)
		}
	}
	mol, err := chem.NewMolecule(top)
	if err != nil {
		return nil, NewError("molecule", funcname, err)
	}
	for i := 0; i < frames; i++ {
		coords, jerr := DecodeCoords(stream, atomnumber)
		if jerr != nil {
			return nil, NewError("molecule", funcname, errors.Wrapf(jerr, "frame %d", i+1))
		}
		if err := mol.AddConformer(coords); err != nil {
			return nil, NewError("molecule", funcname, err)
		}
	}
	return mol, nil
}

// Decodecoords decodes streams from a bufio.Reader containing 3*atomnumber JSON floats into a v3.Matrix with atomnumber rows.
func DecodeCoords(stream *bufio.Reader, atomnumber int) (*v3.Matrix, *Error) {
	const funcname = "DecodeCoords"
	rawcoords := make([]float64, 0, 3*atomnumber)
	for i := 0; i < atomnumber; i++ {
		line, err := stream.ReadBytes('\n') //Using this function allocates a lot without need. There is no function that takes a []bytes AND a limit. I might write one at some point.
		if err != nil && len(line) == 0 {
			return nil, NewError("molecule", funcname, errors.Wrapf(err, "atom %d", i))
		}
		ctemp := new(Coords)
		if err = json.Unmarshal(line, ctemp); err != nil {
			return nil, NewError("molecule", funcname, err)
		}
		if len(ctemp.Coords) != 3 {
			return nil, NewError("molecule", funcname, errors.Newf("atom %d has %d coordinates", i, len(ctemp.Coords)))
		}
		rawcoords = append(rawcoords, ctemp.Coords...)
	}
	coords, err := v3.NewMatrix(rawcoords)
	if err != nil {
		return nil, NewError("molecule", funcname, err)
	}
	return coords, nil
}

// SendMolecule encodes the atoms, bonds and all the conformations of mol and writes them with enc.
func SendMolecule(mol *chem.Molecule, enc *json.Encoder) *Error {
	if err := EncodeAtoms(mol, enc); err != nil {
		return err
	}
	for _, b := range mol.Bonds {
		if err := enc.Encode(b); err != nil {
			return NewError("postprocess", "SendMolecule", err)
		}
	}
	for _, coords := range mol.Coords {
		if err := EncodeCoords(coords, enc); err != nil {
			return err
		}
	}
	return nil
}

// Encodes a mapex Atomer into a JSON
func EncodeAtoms(mol chem.Atomer, enc *json.Encoder) *Error {
	const funcname = "EncodeAtoms"
	if mol == nil {
		return nil //Its assumed to be intentional.
	}
	for i := 0; i < mol.Len(); i++ {
		if err := enc.Encode(mol.Atom(i)); err != nil {
			return NewError("postprocess", funcname, err)
		}
	}
	return nil
}

// Encodes a set of coordinates into JSON
func EncodeCoords(coords *v3.Matrix, enc *json.Encoder) *Error {
	c := new(Coords)
	for i := 0; i < coords.NVecs(); i++ {
		v := coords.Vec(i)
		c.Coords = v[:]
		if err := enc.Encode(c); err != nil {
			return NewError("postprocess", "chemjson.EncodeCoords", err)
		}
	}
	return nil
}
