/*
 * kekule.go, part of mapex.
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

package smiles

// needsDouble reports whether aromatic atom i must take a double bond in a
// Kekule structure of its ring system. Pyrrole-type N, ring O and S, and
// atoms already double-bonded outside the ring contribute their own pi
// electrons instead.
func (p *parser) needsDouble(i int) bool {
	at := p.top.Atoms[i]
	for _, b := range p.top.Bonds {
		if (b.At1 == i || b.At2 == i) && !b.Aromatic() && b.Order >= 2 {
			return false
		}
	}
	deg := len(p.top.Neighbors(i)) + at.ImplicitH
	switch at.Symbol {
	case "C", "Si":
		return at.Charge == 0
	case "N", "P", "As":
		switch at.Charge {
		case 0:
			return deg <= 2
		case 1:
			return deg <= 3
		}
		return false
	case "O", "S", "Se", "Te":
		return at.Charge == 1
	case "B":
		return at.Charge == -1
	}
	return false
}

// checkKekule returns an error if the aromatic atoms that need a double bond
// can't all be paired through aromatic bonds, i.e. if no Kekule structure
// exists.
func (p *parser) checkKekule() error {
	n := p.top.Len()
	need := make([]bool, n)
	found := false
	for i, at := range p.top.Atoms {
		if at.Aromatic && p.needsDouble(i) {
			need[i] = true
			found = true
		}
	}
	if !found {
		return nil
	}
	adj := make([][]int, n)
	for _, b := range p.top.Bonds {
		if b.Aromatic() && need[b.At1] && need[b.At2] {
			adj[b.At1] = append(adj[b.At1], b.At2)
			adj[b.At2] = append(adj[b.At2], b.At1)
		}
	}
	if !pair(need, adj, make([]bool, n)) {
		return p.errorf(0, "can't kekulize the aromatic system")
	}
	return nil
}

// pair places double bonds until every atom in need is matched, backtracking
// when it gets stuck. It always continues with the atom that has the fewest
// free partners, which keeps the search short for fused ring systems.
func pair(need []bool, adj [][]int, matched []bool) bool {
	best, bestfree := -1, 0
	for i, nd := range need {
		if !nd || matched[i] {
			continue
		}
		free := 0
		for _, j := range adj[i] {
			if !matched[j] {
				free++
			}
		}
		if best < 0 || free < bestfree {
			best, bestfree = i, free
		}
	}
	if best < 0 {
		return true
	}
	if bestfree == 0 {
		return false
	}
	matched[best] = true
	for _, j := range adj[best] {
		if matched[j] {
			continue
		}
		matched[j] = true
		if pair(need, adj, matched) {
			return true
		}
		matched[j] = false
	}
	matched[best] = false
	return false
}
