/*
 * obabel.go, part of mapex.
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
//In order to use this part of the library you need the Open Babel program (http://openbabel.org).
//Please cite the Open Babel references if you use it.

package conformer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	chem "github.com/rmera/mapex"
	v3 "github.com/rmera/mapex/v3"
)

// OBabelHandle runs Open Babel's conformer search (obabel --gen3d --conformer)
// for one molecule at a time.
type OBabelHandle struct {
	command    string
	inputname  string
	wrkdir     string
	keepFiles  bool
	tmpdir     string //set while Embed runs, if no work dir was given
	ForceField string //MMFF94 by default
	Score      string //energy by default
}

// NewOBabelHandle returns an Open Babel handle with values set to their defaults.
func NewOBabelHandle() *OBabelHandle {
	run := new(OBabelHandle)
	run.SetDefaults()
	return run
}

// SetDefaults sets the handle parameters to their defaults. Defaults might
// change, so they are not part of the API.
func (O *OBabelHandle) SetDefaults() {
	O.command = "obabel"
	O.inputname = "mapex"
	O.ForceField = "MMFF94"
	O.Score = "energy"
}

// Command returns the path and name for the obabel executable.
func (O *OBabelHandle) Command() string {
	return O.command
}

// SetCommand sets the path and name for the obabel executable.
func (O *OBabelHandle) SetCommand(name string) {
	O.command = name
}

// SetName sets the base name for the input and output files.
func (O *OBabelHandle) SetName(name string) {
	O.inputname = name
}

// SetWorkDir sets the directory where the files are written and the program
// is run. If it's not set, a temporary directory is used for each run.
func (O *OBabelHandle) SetWorkDir(d string) {
	O.wrkdir = d
}

// SetKeepFiles keeps input and output files after each run, which is only
// useful with SetWorkDir.
func (O *OBabelHandle) SetKeepFiles(keep bool) {
	O.keepFiles = keep
}

func (O *OBabelHandle) dir() string {
	if O.tmpdir != "" {
		return O.tmpdir
	}
	return O.wrkdir
}

// BuildInput writes the MOL file for mol and returns the command arguments
// to request n conformations. mol must have explicit hydrogens. Coordinates
// are taken from the first conformation, if any.
func (O *OBabelHandle) BuildInput(mol *chem.Molecule, n int) ([]string, error) {
	errid := "OBabelHandle/BuildInput"
	if mol == nil || mol.Len() == 0 {
		return nil, errors.Newf("%s: no molecule given", errid)
	}
	if n < 1 {
		return nil, errors.Newf("%s: at least one conformer must be requested, got %d", errid, n)
	}
	coords := v3.Zeros(mol.Len())
	if mol.ConformerCount() > 0 {
		coords = mol.Coords[0]
	}
	mb, err := chem.MolBlock(mol, coords)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", errid)
	}
	in := O.inputname + ".mol"
	if err := os.WriteFile(filepath.Join(O.dir(), in), []byte(mb), 0o644); err != nil {
		return nil, errors.Wrapf(err, "%s: couldn't write input", errid)
	}
	args := []string{in, "-O", O.inputname + "_confs.sdf", "--gen3d"}
	//a single conformer is just the --gen3d structure.
	if n > 1 {
		args = append(args, "--conformer", "--nconf", fmt.Sprintf("%d", n), "--writeconformers")
		if O.Score != "" {
			args = append(args, "--score", O.Score)
		}
	}
	if O.ForceField != "" {
		args = append(args, "--ff", O.ForceField)
	}
	return args, nil
}

// Run executes obabel with the given arguments in the work directory, with
// the program output going to a .out file. The process is killed if ctx is
// cancelled.
func (O *OBabelHandle) Run(ctx context.Context, args []string) error {
	errid := "OBabelHandle/Run"
	return runProgram(ctx, errid, O.command, args, O.dir(), filepath.Join(O.dir(), O.inputname+".out"))
}

// Conformers reads the conformations produced by a previous run. They are
// checked against mol, which must be the molecule given to BuildInput.
func (O *OBabelHandle) Conformers(mol *chem.Molecule) ([]*v3.Matrix, []float64, error) {
	errid := "OBabelHandle/Conformers"
	mols, err := chem.SDFFileRead(filepath.Join(O.dir(), O.inputname+"_confs.sdf"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: no conformers read", errid)
	}
	var confs []*v3.Matrix
	var energies []float64
	allE := true
	for _, m := range mols {
		if !sameAtoms(mol, m.Topology) {
			return nil, nil, errors.Newf("%s: the atoms in the output don't match the input molecule", errid)
		}
		confs = append(confs, m.Coords...)
		if m.Energies == nil {
			allE = false
		}
		energies = append(energies, m.Energies...)
	}
	if !allE {
		energies = nil
	}
	return confs, energies, nil
}

// Embed implements Embedder. It returns at most n conformations.
func (O *OBabelHandle) Embed(ctx context.Context, mol *chem.Molecule, n int) ([]*v3.Matrix, []float64, error) {
	errid := "OBabelHandle/Embed"
	cleanup, err := O.prepareDir()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", errid)
	}
	defer cleanup()
	args, err := O.BuildInput(mol, n)
	if err != nil {
		return nil, nil, err
	}
	if err := O.Run(ctx, args); err != nil {
		return nil, nil, err
	}
	confs, energies, err := O.Conformers(mol)
	if err != nil {
		return nil, nil, err
	}
	if len(confs) > n {
		confs = confs[:n]
		if energies != nil {
			energies = energies[:n]
		}
	}
	return confs, energies, nil
}

// prepareDir creates a temporary work directory if none was set. The returned
// function removes the run files unless they are to be kept.
func (O *OBabelHandle) prepareDir() (func(), error) {
	if O.wrkdir != "" {
		if err := os.MkdirAll(O.wrkdir, 0o755); err != nil {
			return nil, err
		}
		if O.keepFiles {
			return func() {}, nil
		}
		return func() {
			for _, suffix := range []string{".mol", "_confs.sdf", ".out"} {
				os.Remove(filepath.Join(O.wrkdir, O.inputname+suffix))
			}
		}, nil
	}
	d, err := os.MkdirTemp("", "mapex-obabel")
	if err != nil {
		return nil, err
	}
	O.tmpdir = d
	return func() {
		O.tmpdir = ""
		os.RemoveAll(d)
	}, nil
}

// sameAtoms returns true if b has the same elements as mol, in the same order.
func sameAtoms(mol *chem.Molecule, b *chem.Topology) bool {
	if mol.Len() != b.Len() {
		return false
	}
	for i, at := range mol.Atoms {
		if !strings.EqualFold(at.Symbol, b.Atoms[i].Symbol) {
			return false
		}
	}
	return true
}

// runProgram runs command with args in dir, sending its standard output and
// error to outfile.
func runProgram(ctx context.Context, errid, command string, args []string, dir, outfile string) error {
	out, err := os.Create(outfile)
	if err != nil {
		return errors.Wrapf(err, "%s: couldn't create output file", errid)
	}
	defer out.Close()
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s: %s interrupted", errid, command)
		}
		return errors.Wrapf(err, "%s: %s %s", errid, command, strings.Join(args, " "))
	}
	return nil
}
