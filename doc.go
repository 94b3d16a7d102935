/*
 * doc.go, part of mapex.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package chem is the main package of mapex. It provides atom, bond and
molecule structures for small molecules carrying several 3D conformations,
and the file formats needed to move them to and from external programs.

	**mapex Capabilities**

	Molecules from SMILES strings (package smiles), with explicit/implicit
	hydrogen handling.

	Generation of several conformations per molecule by driving external
	programs (OpenBabel, CREST), in package conformer.

	Display of molecules and pharmacophore models in PyMOL, through
	PyMOL's XML-RPC server (package pymol).

	Reads/writes MDL MOL/SD files and multi-frame XYZ files, gzip- or
	zstd-compressed according to the file extension.

	JSON encoding of molecule sets with all their conformations, in
	package chemjson.

A Molecule is a Topology (atoms and bonds) plus a slice of v3.Matrix,
one per conformation, each with one row per atom.
*/
package chem
