/*
 * view.go, part of mapex.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmera/mapex/internal/config"
	"github.com/rmera/mapex/pymol"
)

type viewOptions struct {
	input         string
	chromosome    string
	pharmacophore string
	colors        string
	render        bool
	image         string
}

// newDialer returns the connection to the viewer described by cfg.
// Replaced in tests.
var newDialer = func(cfg config.ViewerConfig) pymol.Dialer {
	return pymol.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		ConnectTimeout: cfg.ConnectTimeout,
		CallTimeout:    cfg.CallTimeout,
	}
}

func newViewCmd() *cobra.Command {
	opts := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show molecules and a pharmacophore in PyMOL",
		Long: "Loads one conformation of each molecule in the input into a PyMOL started\n" +
			"with 'pymol -R', draws the pharmacophore points as colored spheres and,\n" +
			"optionally, saves an image of the result.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "molecules, as chemjson or SD file (required)")
	f.StringVarP(&opts.chromosome, "chromosome", "c", "", "comma-separated conformer index for each molecule. The first conformer of each if empty")
	f.StringVar(&opts.pharmacophore, "pharmacophore", "", "YAML file mapping categories to lists of points")
	f.StringVar(&opts.colors, "colors", "", "YAML file mapping categories to RGB colors. It is applied on top of the default colors (Donors, Acceptors, Hydrophobics), so only other categories can be missing a color")
	f.BoolVar(&opts.render, "render", false, "save an image of the resulting view")
	f.StringVar(&opts.image, "image", "", "image path. Overrides the config")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runView(cmd *cobra.Command, opts *viewOptions) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	mols, err := ReadMolecules(opts.input)
	if err != nil {
		return err
	}
	chromosome, err := ParseChromosome(opts.chromosome, len(mols))
	if err != nil {
		return err
	}
	var ph pymol.Pharmacophore
	if opts.pharmacophore != "" {
		if ph, err = ReadPharmacophore(opts.pharmacophore); err != nil {
			return err
		}
	}
	var cols map[pymol.Category]pymol.RGB
	if opts.colors != "" {
		if cols, err = ReadColors(opts.colors); err != nil {
			return err
		}
	}
	b := pymol.NewBridge(newDialer(c.Config.Viewer))
	b.Log = c.Logger
	b.ImagePath = c.Config.Viewer.ImagePath
	if opts.image != "" {
		b.ImagePath = opts.image
	}
	c.Logger.Debug("showing molecules",
		zap.Int("molecules", len(mols)),
		zap.Ints("chromosome", chromosome),
		zap.Int("categories", len(ph)))
	if err := b.Show(cmd.Context(), mols, chromosome, ph, cols, opts.render); err != nil {
		return err
	}
	msg := fmt.Sprintf("%d molecules shown", len(mols))
	if opts.render {
		msg += ", image saved to " + b.ImagePath
	}
	fmt.Fprintln(cmd.OutOrStdout(), colorize(msg, "green", c.NoColor))
	return nil
}
