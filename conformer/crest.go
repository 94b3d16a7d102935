/*
 * crest.go, part of mapex.
 *
 *
 * Copyright 2024 Raul Mera <rmeraa{at}academicosdotutadotcl
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
 *
 */
//In order to use this part of the library you need the CREST and xtb programs, which must be obtained from Prof. Stefan Grimme's group.
//Please cite the CREST and xtb references if you used the programs.

package conformer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	chem "github.com/rmera/mapex"
	v3 "github.com/rmera/mapex/v3"
)

// CrestHandle runs a CREST conformer search for one molecule at a time.
// The starting geometry is the first conformation of the molecule, or, if it
// has none, one produced by the Seed embedder.
type CrestHandle struct {
	command   string
	inputname string
	nCPU      int
	wrkdir    string
	keepFiles bool
	tmpdir    string
	Seed      Embedder //OBabelHandle by default
	Method    string   //gfn1, gfn2 (default), gfn0 or gfnff
	EThres    float64  //energy window in kcal/mol, CREST's default if 0
	RMSDThres float64  //RMSD threshold in A, CREST's default if 0
}

// NewCrestHandle initializes and returns a CREST handle
// with values set to their defaults. Defaults might change
// as new methods appear, so they are not part of the API.
func NewCrestHandle() *CrestHandle {
	run := new(CrestHandle)
	run.SetDefaults()
	return run
}

// SetnCPU sets the number of CPU to be used
func (O *CrestHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

// Command returns the path and name for the crest excecutable
func (O *CrestHandle) Command() string {
	return O.command
}

// SetName sets the name for the calculations
// which is defines the input and output file names
func (O *CrestHandle) SetName(name string) {
	O.inputname = name
}

// SetCommand sets the path and name for the crest excecutable
func (O *CrestHandle) SetCommand(name string) {
	O.command = name
}

// SetWorkDir sets the name of the working directory for the calculations.
// If it's not set, a temporary directory is used for each run.
func (O *CrestHandle) SetWorkDir(d string) {
	O.wrkdir = d
}

// SetKeepFiles keeps input and output files after each run.
func (O *CrestHandle) SetKeepFiles(keep bool) {
	O.keepFiles = keep
}

// SetDefaults sets calculations parameters to their defaults.
// Defaults might change
// as new methods appear, so they are not part of the API.
func (O *CrestHandle) SetDefaults() {
	O.command = "crest"
	O.inputname = "mapex"
	O.nCPU = max(runtime.NumCPU()/2, 1)
	O.Method = "gfn2"
	O.Seed = NewOBabelHandle()
}

func (O *CrestHandle) dir() string {
	if O.tmpdir != "" {
		return O.tmpdir
	}
	return O.wrkdir
}

// BuildInput writes the starting geometry for CREST and returns the command
// arguments. Only closed-shell and open-shell singlets/multiplets given by
// the topology are supported, without constraints.
func (O *CrestHandle) BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger) ([]string, error) {
	errid := "CrestHandle/BuildInput"
	if atoms == nil || coords == nil {
		return nil, errors.Newf("%s: no molecule or coordinates given", errid)
	}
	err := chem.XYZFileWrite(filepath.Join(O.dir(), O.inputname+".xyz"), coords, atoms)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: Couldn't write xyz file", errid)
	}
	args := []string{O.inputname + ".xyz"}
	args = append(args, "--chrg", fmt.Sprintf("%d", atoms.Charge()))
	args = append(args, "--uhf", fmt.Sprintf("%d", atoms.Multi()-1))
	if O.nCPU > 1 {
		args = append(args, "-T", fmt.Sprintf("%d", O.nCPU))
	}
	switch O.Method {
	case "gfn1", "gfn2", "gfn0", "gfnff":
		args = append(args, "--"+O.Method)
	default:
		args = append(args, "--gfn2")
	}
	if O.EThres > 0 { //crest expect this options in kcal, so no conversion needed
		args = append(args, "--ewin", fmt.Sprintf("%.1f", O.EThres))
	}
	if O.RMSDThres > 0 {
		args = append(args, "--rthr", fmt.Sprintf("%.3f", O.RMSDThres))
	}
	return args, nil
}

// Run runs CREST with the given arguments in the work directory. The
// program output goes to a .out file.
func (O *CrestHandle) Run(ctx context.Context, args []string) error {
	errid := "CrestHandle/Run"
	return runProgram(ctx, errid, O.command, args, O.dir(), filepath.Join(O.dir(), O.inputname+".out"))
}

// Checks that an CREST calculation has terminated normally
func (O *CrestHandle) normalTermination() bool {
	return searchBackwards("CREST terminated normally", filepath.Join(O.dir(), O.inputname+".out")) != ""
}

// Conformers returns the conformations found by CREST and their energies
// in kcal/mol, in CREST's order (lowest energy first). The atoms in the
// output are checked against mol.
func (O *CrestHandle) Conformers(mol *chem.Molecule) ([]*v3.Matrix, []float64, error) {
	ei := "CrestHandle/Conformers"
	if !O.normalTermination() {
		return nil, nil, errors.Newf("%s: CREST run didn't finish normally", ei)
	}
	fr, err := chem.XYZFileReadFrames(filepath.Join(O.dir(), "crest_conformers.xyz"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: Failed to retrieve conformers", ei)
	}
	if len(fr.Symbols) != mol.Len() {
		return nil, nil, errors.Newf("%s: %d atoms in the conformers, %d in the molecule", ei, len(fr.Symbols), mol.Len())
	}
	for i, s := range fr.Symbols {
		if !strings.EqualFold(s, mol.Atoms[i].Symbol) {
			return nil, nil, errors.Newf("%s: atom %d is %s in the conformers and %s in the molecule", ei, i+1, s, mol.Atoms[i].Symbol)
		}
	}
	energies := make([]float64, 0, len(fr.Frames))
	for i, c := range fr.Comments {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			return nil, nil, errors.Newf("%s: No energy for conformer %d", ei, i)
		}
		e, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s: Couldn't parse energy %d", ei, i)
		}
		energies = append(energies, e*chem.H2Kcal)
	}
	return fr.Frames, energies, nil
}

// Embed implements Embedder. It returns at most n conformations, the
// lowest in energy.
func (O *CrestHandle) Embed(ctx context.Context, mol *chem.Molecule, n int) ([]*v3.Matrix, []float64, error) {
	errid := "CrestHandle/Embed"
	var start *v3.Matrix
	if mol.ConformerCount() > 0 {
		start = mol.Coords[0]
	} else {
		if O.Seed == nil {
			return nil, nil, errors.Newf("%s: molecule has no coordinates and no seed embedder is set", errid)
		}
		seed, _, err := O.Seed.Embed(ctx, mol, 1)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s: seed geometry", errid)
		}
		if len(seed) == 0 {
			return nil, nil, errors.Newf("%s: no seed geometry obtained", errid)
		}
		start = seed[0]
	}
	cleanup, err := O.prepareDir()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", errid)
	}
	defer cleanup()
	args, err := O.BuildInput(start, mol)
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
		confs, energies = confs[:n], energies[:n]
	}
	return confs, energies, nil
}

// prepareDir works as OBabelHandle.prepareDir. CREST leaves many files
// behind, so with a fixed work directory they are only removed if the
// directory was created here.
func (O *CrestHandle) prepareDir() (func(), error) {
	if O.wrkdir != "" {
		_, statErr := os.Stat(O.wrkdir)
		if err := os.MkdirAll(O.wrkdir, 0o755); err != nil {
			return nil, err
		}
		if O.keepFiles || statErr == nil {
			return func() {}, nil
		}
		return func() { os.RemoveAll(O.wrkdir) }, nil
	}
	d, err := os.MkdirTemp("", "mapex-crest")
	if err != nil {
		return nil, err
	}
	O.tmpdir = d
	return func() {
		O.tmpdir = ""
		os.RemoveAll(d)
	}, nil
}

// searchBackwards searches a file starting from the end for a string. Returns the
// line that contains the string, or an empty string.
func searchBackwards(str, filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], str) {
			return lines[i]
		}
	}
	return ""
}
