/*
 * conformers.go, part of mapex.
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
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mgutz/ansi"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chem "github.com/rmera/mapex"
	"github.com/rmera/mapex/chemjson"
	"github.com/rmera/mapex/conformer"
	"github.com/rmera/mapex/internal/config"
)

type conformersOptions struct {
	input    string
	n        int
	output   string
	sdf      string
	embedder string
}

// newEmbedder builds the conformer generator program wrapper selected in cfg.
// Replaced in tests.
var newEmbedder = func(cfg config.EmbedConfig) (conformer.Embedder, error) {
	ob := conformer.NewOBabelHandle()
	ob.SetCommand(cfg.OBabelCommand)
	ob.SetWorkDir(cfg.WorkDir)
	ob.SetKeepFiles(cfg.KeepFiles)
	switch cfg.Program {
	case "obabel":
		return ob, nil
	case "crest":
		cr := conformer.NewCrestHandle()
		cr.SetCommand(cfg.CrestCommand)
		cr.SetWorkDir(cfg.WorkDir)
		cr.SetKeepFiles(cfg.KeepFiles)
		if cfg.CPUs > 0 {
			cr.SetnCPU(cfg.CPUs)
		}
		cr.Seed = ob
		return cr, nil
	}
	return nil, errors.Newf("unknown conformer generator %q (use obabel or crest)", cfg.Program)
}

func newConformersCmd() *cobra.Command {
	opts := &conformersOptions{}
	cmd := &cobra.Command{
		Use:   "conformers",
		Short: "Generate conformations for a set of molecules given as SMILES",
		Long: "Reads one 'identifier SMILES' pair per line (# starts a comment) and\n" +
			"generates the requested number of conformations for each molecule.\n" +
			"The whole run fails if any molecule fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConformers(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input file with identifiers and SMILES (required)")
	f.IntVarP(&opts.n, "nconfs", "n", 10, "number of conformations per molecule")
	f.StringVarP(&opts.output, "output", "o", "conformers.json.gz", "chemjson output file, compressed according to its extension. Empty for none")
	f.StringVar(&opts.sdf, "sdf", "", "also write all conformations to this SD file")
	f.StringVar(&opts.embedder, "embedder", "", "conformer generator: obabel or crest. Overrides the config")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runConformers(cmd *cobra.Command, opts *conformersOptions) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if opts.output == "" && opts.sdf == "" {
		return errors.New("conformers: no output requested, set --output and/or --sdf")
	}
	set, err := ReadSmilesFile(opts.input)
	if err != nil {
		return err
	}
	ecfg := c.Config.Embed
	if opts.embedder != "" {
		ecfg.Program = strings.ToLower(opts.embedder)
	}
	emb, err := newEmbedder(ecfg)
	if err != nil {
		return err
	}
	gen := conformer.NewGenerator(conformer.NewToolkit(emb))
	gen.Log = c.Logger
	gen.Progress = progressPrinter(cmd.ErrOrStderr(), c.NoColor)
	c.Logger.Info("generating conformers",
		zap.Int("molecules", len(set)),
		zap.Int("conformers", opts.n),
		zap.String("program", ecfg.Program))
	mols, err := gen.Generate(cmd.Context(), set, opts.n)
	if err != nil {
		return err
	}
	if opts.output != "" {
		if err := chemjson.WriteFile(opts.output, mols); err != nil {
			return err
		}
	}
	if opts.sdf != "" {
		if err := chem.SDFFileWrite(opts.sdf, mols...); err != nil {
			return err
		}
	}
	written := strings.Join(lo.Compact([]string{opts.output, opts.sdf}), ", ")
	fmt.Fprintln(cmd.OutOrStdout(), colorize(fmt.Sprintf("%d molecules, %d conformations each, written to %s", len(mols), opts.n, written), "green", c.NoColor))
	return nil
}

func progressPrinter(out io.Writer, nocolor bool) conformer.ProgressFunc {
	return func(done, total int, id string) {
		counter := colorize(fmt.Sprintf("[%d/%d]", done, total), "cyan", nocolor)
		fmt.Fprintf(out, "%s %s\n", counter, id)
	}
}

func colorize(msg, color string, nocolor bool) string {
	if nocolor {
		return msg
	}
	return ansi.Color(msg, color)
}
