/*
 * mol.go, part of mapex.
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

package chem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	v3 "github.com/rmera/mapex/v3"
)

// MDL MOL files (V2000 connection tables) are how molecules travel to and
// from external programs: OpenBabel reads and writes them, and PyMOL loads
// them through its RPC interface.

const sdfDelimiter = "$$$$"

// energyTag is the SD data field used to store conformer energies.
const energyTag = "Energy"

func molBondType(order float64) int {
	switch {
	case order == AromaticOrder:
		return 4
	case order >= 3:
		return 3
	case order >= 2:
		return 2
	default:
		return 1
	}
}

// MolBlock returns the V2000 MOL block for mol with the coordinates coords.
func MolBlock(mol BondLister, coords *v3.Matrix) (string, error) {
	var b strings.Builder
	if err := writeMolBlock(&b, mol, coords); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeMolBlock(out io.Writer, mol BondLister, coords *v3.Matrix) error {
	errid := "MolBlock"
	if coords == nil || coords.NVecs() != mol.Len() {
		return errors.Newf("%s: coordinates don't match the %d atoms of %q", errid, mol.Len(), mol.Name())
	}
	bonds := mol.BondList()
	if mol.Len() > 999 || len(bonds) > 999 {
		return errors.Newf("%s: %q is too large for a V2000 connection table", errid, mol.Name())
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%s\n", strings.ReplaceAll(mol.Name(), "\n", " "))
	fmt.Fprintf(w, "  mapex           3D\n\n")
	fmt.Fprintf(w, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", mol.Len(), len(bonds))
	charged := make([]int, 0)
	isotopes := make([]int, 0)
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		c := coords.Vec(i)
		fmt.Fprintf(w, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n", c[0], c[1], c[2], at.Symbol)
		if at.Charge != 0 {
			charged = append(charged, i)
		}
		if at.Isotope != 0 {
			isotopes = append(isotopes, i)
		}
	}
	for _, b := range bonds {
		fmt.Fprintf(w, "%3d%3d%3d  0\n", b.At1+1, b.At2+1, molBondType(b.Order))
	}
	//At most 8 entries per property line.
	for start := 0; start < len(charged); start += 8 {
		end := min(start+8, len(charged))
		fmt.Fprintf(w, "M  CHG%3d", end-start)
		for _, i := range charged[start:end] {
			fmt.Fprintf(w, " %3d %3d", i+1, mol.Atom(i).Charge)
		}
		fmt.Fprintln(w)
	}
	for start := 0; start < len(isotopes); start += 8 {
		end := min(start+8, len(isotopes))
		fmt.Fprintf(w, "M  ISO%3d", end-start)
		for _, i := range isotopes[start:end] {
			fmt.Fprintf(w, " %3d %3d", i+1, mol.Atom(i).Isotope)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "M  END\n")
	return errors.Wrap(w.Flush(), errid)
}

// SDFWrite writes every conformation of mol as one record of an SD file.
// If the molecule has energies, they are written as an "Energy" data field.
func SDFWrite(out io.Writer, mol *Molecule) error {
	errid := "SDFWrite"
	if err := mol.Corrupted(); err != nil {
		return errors.Wrap(err, errid)
	}
	for i, c := range mol.Coords {
		if err := writeMolBlock(out, mol, c); err != nil {
			return errors.Wrapf(err, "%s: conformer %d", errid, i)
		}
		if mol.Energies != nil {
			if _, err := fmt.Fprintf(out, "> <%s>\n%.6f\n\n", energyTag, mol.Energies[i]); err != nil {
				return errors.Wrap(err, errid)
			}
		}
		if _, err := fmt.Fprintf(out, "%s\n", sdfDelimiter); err != nil {
			return errors.Wrap(err, errid)
		}
	}
	return nil
}

// SDFFileWrite writes all conformations of all molecules to the SD file fname.
// The file is compressed according to its extension.
func SDFFileWrite(fname string, mols ...*Molecule) error {
	out, err := OpenWriter(fname)
	if err != nil {
		return errors.Wrap(err, "SDFFileWrite")
	}
	for _, m := range mols {
		if err := SDFWrite(out, m); err != nil {
			out.Close()
			return err
		}
	}
	return errors.Wrap(out.Close(), "SDFFileWrite")
}

type molRecord struct {
	top    *Topology
	coords *v3.Matrix
	energy float64
	hasE   bool
}

// chargeCodes maps the V2000 atom-line charge field to formal charges.
var chargeCodes = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func fixedInt(line string, from, to int) (int, error) {
	if len(line) < to {
		to = len(line)
	}
	if from >= to {
		return 0, nil
	}
	s := strings.TrimSpace(line[from:to])
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func fixedFloat(line string, from, to int) (float64, error) {
	if len(line) < to {
		return 0, errors.Newf("line too short: %q", line)
	}
	return strconv.ParseFloat(strings.TrimSpace(line[from:to]), 64)
}

// readMolRecord reads one SD record. It returns io.EOF if no record is left.
func readMolRecord(sc *bufio.Scanner, recno int) (*molRecord, error) {
	errid := fmt.Sprintf("SDFRead: record %d", recno)
	header := make([]string, 0, 3)
	for len(header) < 3 {
		if !sc.Scan() {
			if strings.TrimSpace(strings.Join(header, "")) == "" {
				return nil, io.EOF
			}
			return nil, errors.Newf("%s: truncated header", errid)
		}
		header = append(header, sc.Text())
	}
	if !sc.Scan() {
		return nil, errors.Newf("%s: missing counts line", errid)
	}
	counts := sc.Text()
	if !strings.Contains(counts, "V2000") {
		return nil, errors.Newf("%s: only V2000 connection tables are supported", errid)
	}
	natoms, err1 := fixedInt(counts, 0, 3)
	nbonds, err2 := fixedInt(counts, 3, 6)
	if err1 != nil || err2 != nil || natoms <= 0 {
		return nil, errors.Newf("%s: bad counts line %q", errid, counts)
	}
	top := NewTopology(0, 1, make([]*Atom, 0, natoms))
	top.SetName(strings.TrimSpace(header[0]))
	coords := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		if !sc.Scan() {
			return nil, errors.Newf("%s: truncated atom block", errid)
		}
		line := sc.Text()
		var c [3]float64
		var err error
		for j := 0; j < 3; j++ {
			if c[j], err = fixedFloat(line, 10*j, 10*j+10); err != nil {
				return nil, errors.Wrapf(err, "%s: atom %d", errid, i+1)
			}
		}
		coords.SetVec(i, c)
		if len(line) < 34 {
			return nil, errors.Newf("%s: atom %d: line too short", errid, i+1)
		}
		symbol := strings.TrimSpace(line[31:34])
		at := &Atom{Name: symbol, Id: i + 1, Symbol: symbol, Mass: Mass(symbol)}
		if code, err := fixedInt(line, 36, 39); err == nil {
			at.Charge = chargeCodes[code]
		}
		top.AddAtom(at)
	}
	for i := 0; i < nbonds; i++ {
		if !sc.Scan() {
			return nil, errors.Newf("%s: truncated bond block", errid)
		}
		line := sc.Text()
		a1, err1 := fixedInt(line, 0, 3)
		a2, err2 := fixedInt(line, 3, 6)
		bt, err3 := fixedInt(line, 6, 9)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, errors.Newf("%s: bad bond line %q", errid, line)
		}
		order := float64(bt)
		if bt == 4 {
			order = AromaticOrder
		}
		if err := top.AddBond(a1-1, a2-1, order); err != nil {
			return nil, errors.Wrap(err, errid)
		}
		if bt == 4 {
			top.Atoms[a1-1].Aromatic = true
			top.Atoms[a2-1].Aromatic = true
		}
	}
	rec := &molRecord{top: top, coords: coords}
	chgreset := false
	charge := 0
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "M  END"):
		case strings.HasPrefix(line, "M  CHG"), strings.HasPrefix(line, "M  ISO"):
			iso := strings.HasPrefix(line, "M  ISO")
			if !iso && !chgreset {
				//M  CHG lines supersede the atom block charges.
				for _, at := range top.Atoms {
					at.Charge = 0
				}
				chgreset = true
			}
			f := strings.Fields(line[6:])
			for k := 1; k+1 < len(f); k += 2 {
				idx, err1 := strconv.Atoi(f[k])
				val, err2 := strconv.Atoi(f[k+1])
				if err1 != nil || err2 != nil || idx < 1 || idx > natoms {
					return nil, errors.Newf("%s: bad property line %q", errid, line)
				}
				if iso {
					top.Atoms[idx-1].Isotope = val
				} else {
					top.Atoms[idx-1].Charge = val
				}
			}
		case strings.HasPrefix(line, "> ") && strings.Contains(line, "<"+energyTag+">"):
			if sc.Scan() {
				if e, err := strconv.ParseFloat(strings.TrimSpace(sc.Text()), 64); err == nil {
					rec.energy, rec.hasE = e, true
				}
			}
		case strings.TrimSpace(line) == sdfDelimiter:
			for _, at := range top.Atoms {
				charge += at.Charge
			}
			top.SetCharge(charge)
			return rec, nil
		}
	}
	for _, at := range top.Atoms {
		charge += at.Charge
	}
	top.SetCharge(charge)
	return rec, sc.Err()
}

// sameConnectionTable returns true if a and b have the same atoms and bonds, in the same order.
func sameConnectionTable(a, b *Topology) bool {
	if a.Len() != b.Len() || len(a.Bonds) != len(b.Bonds) {
		return false
	}
	for i := range a.Atoms {
		if a.Atoms[i].Symbol != b.Atoms[i].Symbol {
			return false
		}
	}
	for i := range a.Bonds {
		if a.Bonds[i].At1 != b.Bonds[i].At1 || a.Bonds[i].At2 != b.Bonds[i].At2 {
			return false
		}
	}
	return true
}

// SDFRead reads all records in an SD stream. Consecutive records with the
// same name and the same connection table are taken as conformations of one
// molecule, which is how conformer generators write their output.
func SDFRead(in io.Reader) ([]*Molecule, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	mols := make([]*Molecule, 0, 1)
	var cur *Molecule
	allE := true
	for recno := 1; ; recno++ {
		rec, err := readMolRecord(sc, recno)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if cur == nil || cur.Name() != rec.top.Name() || !sameConnectionTable(cur.Topology, rec.top) {
			if cur != nil && !allE {
				cur.Energies = nil
			}
			cur = &Molecule{Topology: rec.top}
			allE = true
			mols = append(mols, cur)
		}
		cur.Coords = append(cur.Coords, rec.coords)
		allE = allE && rec.hasE
		cur.Energies = append(cur.Energies, rec.energy)
	}
	if cur != nil && !allE {
		cur.Energies = nil
	}
	if len(mols) == 0 {
		return nil, errors.New("SDFRead: no molecules found")
	}
	return mols, nil
}

// SDFFileRead reads all molecules from the SD file fname.
func SDFFileRead(fname string) ([]*Molecule, error) {
	in, err := OpenReader(fname)
	if err != nil {
		return nil, errors.Wrap(err, "SDFFileRead")
	}
	defer in.Close()
	return SDFRead(in)
}
