/*
 * cli_test.go, part of mapex.
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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chem "github.com/rmera/mapex"
	"github.com/rmera/mapex/chemjson"
	"github.com/rmera/mapex/conformer"
	"github.com/rmera/mapex/internal/config"
	"github.com/rmera/mapex/pymol"
	"github.com/rmera/mapex/smiles"
	v3 "github.com/rmera/mapex/v3"
)

// lineEmbedder puts atom i of conformation k at (i, k, 0).
type lineEmbedder struct {
	program string
}

func (l *lineEmbedder) Embed(ctx context.Context, mol *chem.Molecule, n int) ([]*v3.Matrix, []float64, error) {
	confs := make([]*v3.Matrix, n)
	for k := range confs {
		confs[k] = v3.Zeros(mol.Len())
		for i := 0; i < mol.Len(); i++ {
			confs[k].SetVec(i, [3]float64{float64(i), float64(k), 0})
		}
	}
	return confs, nil, nil
}

type recordingViewer struct {
	shown  []string
	labels []string
	saved  []string
}

func (r *recordingViewer) ShowMolecule(ctx context.Context, molblock, name string) error {
	r.shown = append(r.shown, name)
	return nil
}

func (r *recordingViewer) AddPharmacophore(ctx context.Context, points [][3]float64, label string, colors []pymol.RGB, radius float64) error {
	r.labels = append(r.labels, label)
	return nil
}

func (r *recordingViewer) SaveImage(ctx context.Context, path string) error {
	r.saved = append(r.saved, path)
	return nil
}

func (r *recordingViewer) Close() error { return nil }

type viewerDialer struct {
	v   *recordingViewer
	err error
}

func (d *viewerDialer) Dial(ctx context.Context) (pymol.Viewer, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.v, nil
}

func run(Te *testing.T, args ...string) (string, string, error) {
	var out, errout bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&errout)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errout.String(), err
}

func writeFile(Te *testing.T, name, content string) string {
	path := filepath.Join(Te.TempDir(), name)
	require.NoError(Te, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func useEmbedder(Te *testing.T) *config.EmbedConfig {
	var got config.EmbedConfig
	old := newEmbedder
	newEmbedder = func(cfg config.EmbedConfig) (conformer.Embedder, error) {
		got = cfg
		return &lineEmbedder{program: cfg.Program}, nil
	}
	Te.Cleanup(func() { newEmbedder = old })
	return &got
}

func useViewer(Te *testing.T, err error) *recordingViewer {
	v := &recordingViewer{}
	old := newDialer
	newDialer = func(cfg config.ViewerConfig) pymol.Dialer { return &viewerDialer{v: v, err: err} }
	Te.Cleanup(func() { newDialer = old })
	return v
}

func TestReadSmilesSet(Te *testing.T) {
	in := `# a comment
ethanol	CCO

benzene   c1ccccc1  an aromatic ring
  water O
`
	set, err := ReadSmilesSet(strings.NewReader(in))
	require.NoError(Te, err)
	assert.Equal(Te, conformer.SmilesSet{
		{ID: "ethanol", SMILES: "CCO"},
		{ID: "benzene", SMILES: "c1ccccc1"},
		{ID: "water", SMILES: "O"},
	}, set)

	_, err = ReadSmilesSet(strings.NewReader("ethanol CCO\nlonely\n"))
	require.Error(Te, err)
	assert.Contains(Te, err.Error(), "line 2")
	_, err = ReadSmilesSet(strings.NewReader("# nothing\n\n"))
	assert.Error(Te, err)
}

func TestParseChromosome(Te *testing.T) {
	c, err := ParseChromosome("0, 3,1", 3)
	require.NoError(Te, err)
	assert.Equal(Te, []int{0, 3, 1}, c)
	c, err = ParseChromosome("", 2)
	require.NoError(Te, err)
	assert.Equal(Te, []int{0, 0}, c)
	_, err = ParseChromosome("0,x", 2)
	assert.Error(Te, err)
}

func TestReadPharmacophoreAndColors(Te *testing.T) {
	ph, err := ReadPharmacophore(writeFile(Te, "ph.yaml", "Donors:\n  - [1, 2, 3]\n  - [4, 5, 6.5]\nAromatic:\n  - [0, 0, 0]\n"))
	require.NoError(Te, err)
	assert.Equal(Te, [][3]float64{{1, 2, 3}, {4, 5, 6.5}}, ph[pymol.Donors])
	assert.Equal(Te, []pymol.Category{pymol.Donors, "Aromatic"}, ph.Categories())

	_, err = ReadPharmacophore(writeFile(Te, "bad.yaml", "Donors:\n  - [1, 2]\n"))
	assert.Error(Te, err)

	cols, err := ReadColors(writeFile(Te, "cols.yaml", "Aromatic: [0, 0, 1]\nDonors: [0.5, 0.5, 0.5]\n"))
	require.NoError(Te, err)
	assert.Equal(Te, pymol.RGB{0, 0, 1}, cols["Aromatic"])
	assert.Equal(Te, pymol.RGB{0.5, 0.5, 0.5}, cols[pymol.Donors])
	assert.Equal(Te, pymol.RGB{0.9, 0, 0}, cols[pymol.Acceptors])

	_, err = ReadColors(writeFile(Te, "badcols.yaml", "Donors: [1, 1]\n"))
	assert.Error(Te, err)
}

func TestConformersCommand(Te *testing.T) {
	got := useEmbedder(Te)
	dir := Te.TempDir()
	input := writeFile(Te, "set.smi", "ethanol CCO\nbenzene c1ccccc1\n")
	out := filepath.Join(dir, "confs.json.gz")
	sdf := filepath.Join(dir, "confs.sdf")
	stdout, stderr, err := run(Te, "conformers", "-i", input, "-n", "3", "-o", out, "--sdf", sdf, "--embedder", "CREST")
	require.NoError(Te, err)
	assert.Equal(Te, "crest", got.Program)
	assert.Contains(Te, stderr, "[1/2] ethanol")
	assert.Contains(Te, stderr, "[2/2] benzene")
	assert.Contains(Te, stdout, "2 molecules, 3 conformations each")

	for _, name := range []string{out, sdf} {
		mols, err := ReadMolecules(name)
		require.NoError(Te, err, name)
		require.Len(Te, mols, 2, name)
		assert.Equal(Te, "ethanol", mols[0].Name(), name)
		assert.Equal(Te, 3, mols[0].Len(), name)
		assert.Equal(Te, 6, mols[1].Len(), name)
		for _, m := range mols {
			assert.Equal(Te, 3, m.ConformerCount(), name)
		}
	}
}

func TestConformersCommandErrors(Te *testing.T) {
	useEmbedder(Te)
	_, _, err := run(Te, "conformers", "-i", writeFile(Te, "bad.smi", "ok CCO\nbroken C(C\n"), "-o", filepath.Join(Te.TempDir(), "x.json"))
	var perr *conformer.ParseError
	require.True(Te, errors.As(err, &perr))
	assert.Equal(Te, "broken", perr.ID)

	_, _, err = run(Te, "conformers", "-i", writeFile(Te, "ok.smi", "ok CCO\n"), "-n", "0", "-o", filepath.Join(Te.TempDir(), "x.json"))
	var ierr *conformer.InputError
	assert.True(Te, errors.As(err, &ierr))

	_, _, err = run(Te, "conformers", "-i", writeFile(Te, "ok.smi", "ok CCO\n"), "-o", "")
	assert.Error(Te, err)

	_, _, err = run(Te, "conformers", "-n", "2")
	assert.Error(Te, err, "input is required")
}

func TestDefaultEmbedders(Te *testing.T) {
	cfg, err := config.Default()
	require.NoError(Te, err)
	e, err := newEmbedder(cfg.Embed)
	require.NoError(Te, err)
	assert.IsType(Te, &conformer.OBabelHandle{}, e)
	cfg.Embed.Program = "crest"
	cfg.Embed.CPUs = 2
	e, err = newEmbedder(cfg.Embed)
	require.NoError(Te, err)
	crest, ok := e.(*conformer.CrestHandle)
	require.True(Te, ok)
	assert.IsType(Te, &conformer.OBabelHandle{}, crest.Seed)
	cfg.Embed.Program = "rdkit"
	_, err = newEmbedder(cfg.Embed)
	assert.Error(Te, err)
}

func moleculesFile(Te *testing.T) string {
	var mols []*chem.Molecule
	for _, s := range []string{"CO", "N"} {
		mol, err := smiles.Parse(s)
		require.NoError(Te, err)
		mol.SetName("mol-" + s)
		for k := 0; k < 2; k++ {
			require.NoError(Te, mol.AddConformer(v3.Zeros(mol.Len())))
		}
		mols = append(mols, mol)
	}
	name := filepath.Join(Te.TempDir(), "mols.json")
	require.NoError(Te, chemjson.WriteFile(name, mols))
	return name
}

func TestViewCommand(Te *testing.T) {
	v := useViewer(Te, nil)
	ph := writeFile(Te, "ph.yaml", "Aromatic:\n  - [0, 0, 0]\nDonors:\n  - [1, 1, 1]\n")
	cols := writeFile(Te, "cols.yaml", "Aromatic: [0, 0, 1]\n")
	image := filepath.Join(Te.TempDir(), "img", "complex.png")
	stdout, _, err := run(Te, "view", "-i", moleculesFile(Te), "-c", "1,0", "--pharmacophore", ph, "--colors", cols, "--render", "--image", image)
	require.NoError(Te, err)
	assert.Equal(Te, []string{"mol-CO", "mol-N"}, v.shown)
	assert.Equal(Te, []string{"P-Donors", "P-Aromatic"}, v.labels)
	assert.Equal(Te, []string{image}, v.saved)
	assert.Contains(Te, stdout, "2 molecules shown")
}

func TestViewCommandErrors(Te *testing.T) {
	input := moleculesFile(Te)
	v := useViewer(Te, nil)
	_, _, err := run(Te, "view", "-i", input, "-c", "0,2")
	var verr *pymol.ValidationError
	assert.True(Te, errors.As(err, &verr))

	_, _, err = run(Te, "view", "-i", input, "--pharmacophore", writeFile(Te, "ph.yaml", "Anion:\n  - [0, 0, 0]\n"))
	var merr *pymol.MissingColorError
	require.True(Te, errors.As(err, &merr))
	assert.Equal(Te, pymol.Category("Anion"), merr.Category)
	assert.Empty(Te, v.shown)

	useViewer(Te, &pymol.UnavailableError{Addr: "localhost:9123", Err: errors.New("connection refused")})
	_, _, err = run(Te, "view", "-i", input)
	var uerr *pymol.UnavailableError
	assert.True(Te, errors.As(err, &uerr))
}

func TestColorsFlagHelp(Te *testing.T) {
	cmd := newViewCmd()
	usage := cmd.Flags().Lookup("colors").Usage
	assert.Contains(Te, usage, "default colors")

	//a colors file without the standard categories still colors them.
	cols, err := ReadColors(writeFile(Te, "cols.yaml", "Anion: [1, 0, 1]\n"))
	require.NoError(Te, err)
	assert.Equal(Te, pymol.DefaultColors()[pymol.Acceptors], cols[pymol.Acceptors])
	assert.Equal(Te, pymol.RGB{1, 0, 1}, cols["Anion"])
}

func TestVersionAndConfig(Te *testing.T) {
	stdout, _, err := run(Te, "version")
	require.NoError(Te, err)
	assert.Contains(Te, stdout, "mapex "+Version)

	_, _, err = run(Te, "--config", writeFile(Te, "bad.yaml", "embed:\n  program: rdkit\n"), "version")
	assert.Error(Te, err)
	_, _, err = run(Te, "--log-level", "loud", "version")
	assert.Error(Te, err)
}
