/*
 * input.go, part of mapex.
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

package cli

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	chem "github.com/rmera/mapex"
	"github.com/rmera/mapex/chemjson"
	"github.com/rmera/mapex/conformer"
	"github.com/rmera/mapex/pymol"
)

// ReadSmilesSet reads one "identifier SMILES" pair per line, separated by
// tabs or spaces. Empty lines and lines starting with # are skipped, and
// anything after the SMILES is ignored.
func ReadSmilesSet(in io.Reader) (conformer.SmilesSet, error) {
	var set conformer.SmilesSet
	sc := bufio.NewScanner(in)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.Newf("ReadSmilesSet: line %d: expected an identifier and a SMILES, got %q", lineno, line)
		}
		set = append(set, conformer.Entry{ID: fields[0], SMILES: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "ReadSmilesSet")
	}
	if len(set) == 0 {
		return nil, errors.New("ReadSmilesSet: no molecules in input")
	}
	return set, nil
}

// ReadSmilesFile reads a SMILES set from a, possibly compressed, file.
func ReadSmilesFile(name string) (conformer.SmilesSet, error) {
	in, err := chem.OpenReader(name)
	if err != nil {
		return nil, errors.Wrap(err, "ReadSmilesFile")
	}
	defer in.Close()
	set, err := ReadSmilesSet(in)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	return set, nil
}

// ParseChromosome parses a comma-separated list of conformer indexes. An
// empty string selects the first conformer of each of the n molecules.
func ParseChromosome(s string, n int) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return make([]int, n), nil
	}
	fields := strings.Split(s, ",")
	ret := make([]int, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(err, "ParseChromosome: entry %d", i)
		}
		ret = append(ret, v)
	}
	return ret, nil
}

func readYAML(name string, out interface{}) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// ReadPharmacophore reads a YAML mapping from category names to lists of
// points, each a list of 3 coordinates.
func ReadPharmacophore(name string) (pymol.Pharmacophore, error) {
	errid := "ReadPharmacophore"
	raw := make(map[string][][]float64)
	if err := readYAML(name, &raw); err != nil {
		return nil, errors.Wrapf(err, "%s: %s", errid, name)
	}
	ph := make(pymol.Pharmacophore, len(raw))
	for cat, points := range raw {
		for i, p := range points {
			if len(p) != 3 {
				return nil, errors.Newf("%s: %s: point %d of %q has %d coordinates", errid, name, i, cat, len(p))
			}
		}
		ph[pymol.Category(cat)] = lo.Map(points, func(p []float64, _ int) [3]float64 { return [3]float64{p[0], p[1], p[2]} })
	}
	return ph, nil
}

// ReadColors reads a YAML mapping from category names to RGB triples, and
// returns the default colors updated with it.
func ReadColors(name string) (map[pymol.Category]pymol.RGB, error) {
	errid := "ReadColors"
	raw := make(map[string][]float64)
	if err := readYAML(name, &raw); err != nil {
		return nil, errors.Wrapf(err, "%s: %s", errid, name)
	}
	cols := pymol.DefaultColors()
	for cat, c := range raw {
		if len(c) != 3 {
			return nil, errors.Newf("%s: %s: color for %q has %d components", errid, name, cat, len(c))
		}
		cols[pymol.Category(cat)] = pymol.RGB{c[0], c[1], c[2]}
	}
	return cols, nil
}

// ReadMolecules reads molecules, with their conformations, from an SD file
// or from a chemjson stream, chosen by the file extension.
func ReadMolecules(name string) ([]*chem.Molecule, error) {
	var mols []*chem.Molecule
	var err error
	switch ext := strings.ToLower(chem.StripCompression(name)); {
	case strings.HasSuffix(ext, ".sdf"), strings.HasSuffix(ext, ".sd"), strings.HasSuffix(ext, ".mol"):
		mols, err = chem.SDFFileRead(name)
	default:
		mols, err = chemjson.ReadFile(name)
	}
	if err != nil {
		return nil, err
	}
	if len(mols) == 0 {
		return nil, errors.Newf("ReadMolecules: no molecules in %s", name)
	}
	return mols, nil
}
