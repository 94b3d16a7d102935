/*
 * files.go, part of mapex.
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

// XYZWrite writes the coordinates coords of the atoms in mol to out, in XYZ format,
// using comment as the second line of the frame.
func XYZWrite(out io.Writer, coords *v3.Matrix, mol Atomer, comment string) error {
	errid := "XYZWrite"
	if coords.NVecs() != mol.Len() {
		return errors.Newf("%s: %d coordinates for %d atoms", errid, coords.NVecs(), mol.Len())
	}
	bout := bufio.NewWriter(out)
	fmt.Fprintf(bout, "%-4d\n", mol.Len())
	fmt.Fprintf(bout, "%s\n", strings.ReplaceAll(comment, "\n", " "))
	for i := 0; i < mol.Len(); i++ {
		c := coords.Vec(i)
		fmt.Fprintf(bout, "%-2s  %12.6f%12.6f%12.6f\n", mol.Atom(i).Symbol, c[0], c[1], c[2])
	}
	if err := bout.Flush(); err != nil {
		return errors.Wrap(err, errid)
	}
	return nil
}

// XYZFileWrite writes the given coordinates to a new XYZ file. If the file
// exists, it will be overwritten. Compression is chosen from the file extension.
func XYZFileWrite(name string, coords *v3.Matrix, mol Atomer) error {
	out, err := OpenWriter(name)
	if err != nil {
		return errors.Wrap(err, "XYZFileWrite")
	}
	if err := XYZWrite(out, coords, mol, ""); err != nil {
		out.Close()
		return err
	}
	return errors.Wrap(out.Close(), "XYZFileWrite")
}

// XYZFrames is the content of a multi-frame XYZ file.
type XYZFrames struct {
	Symbols  []string
	Frames   []*v3.Matrix
	Comments []string
}

// XYZReadFrames reads all frames of a multi-frame XYZ stream. All frames must
// have the same number of atoms and the same element sequence.
func XYZReadFrames(in io.Reader) (*XYZFrames, error) {
	errid := "XYZReadFrames"
	ret := &XYZFrames{}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineno := 0
	next := func() (string, bool) {
		ok := sc.Scan()
		lineno++
		return sc.Text(), ok
	}
	for {
		line, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		natoms, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || natoms <= 0 {
			return nil, errors.Newf("%s: line %d: expected an atom count, got %q", errid, lineno, line)
		}
		comment, ok := next()
		if !ok {
			return nil, errors.Newf("%s: frame %d truncated", errid, len(ret.Frames)+1)
		}
		coords := v3.Zeros(natoms)
		symbols := make([]string, natoms)
		for i := 0; i < natoms; i++ {
			line, ok = next()
			if !ok {
				return nil, errors.Newf("%s: frame %d truncated", errid, len(ret.Frames)+1)
			}
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return nil, errors.Newf("%s: line %d ill formed: %q", errid, lineno, line)
			}
			symbols[i] = fields[0]
			var c [3]float64
			for j := 0; j < 3; j++ {
				c[j], err = strconv.ParseFloat(fields[j+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "%s: line %d", errid, lineno)
				}
			}
			coords.SetVec(i, c)
		}
		if ret.Symbols == nil {
			ret.Symbols = symbols
		} else if !sameStrings(ret.Symbols, symbols) {
			return nil, errors.Newf("%s: frame %d has a different atom sequence than frame 1", errid, len(ret.Frames)+1)
		}
		ret.Frames = append(ret.Frames, coords)
		ret.Comments = append(ret.Comments, comment)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errid)
	}
	if len(ret.Frames) == 0 {
		return nil, errors.Newf("%s: no frames found", errid)
	}
	return ret, nil
}

// XYZFileReadFrames reads all frames from the XYZ file name.
func XYZFileReadFrames(name string) (*XYZFrames, error) {
	in, err := OpenReader(name)
	if err != nil {
		return nil, errors.Wrap(err, "XYZFileReadFrames")
	}
	defer in.Close()
	return XYZReadFrames(in)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
