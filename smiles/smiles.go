/*
 * smiles.go, part of mapex.
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

// Package smiles reads SMILES strings into mapex molecules.
//
// The parser builds the connection table only: atoms (with formal charges,
// isotopes, aromatic flags and implicit hydrogen counts) and bonds. Stereo
// marks (@, @@, / and \) are accepted and ignored, since 3D geometries are
// produced later by an external embedding program.
package smiles

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	chem "github.com/rmera/mapex"
)

// SyntaxError reports an invalid SMILES string and where the problem was found.
type SyntaxError struct {
	SMILES string
	Pos    int //0-based, in bytes
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("smiles: %s at position %d of %q", e.Msg, e.Pos, e.SMILES)
}

// organic subset, two-letter symbols first.
var organic = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I"}

var aromaticOrganic = []string{"b", "c", "n", "o", "p", "s"}

// aromatic symbols allowed inside brackets, two-letter symbols first.
var aromaticBracket = []string{"se", "as", "te", "b", "c", "n", "o", "p", "s"}

type ringOpen struct {
	atom int
	bond byte
	pos  int
}

type parser struct {
	s       string
	pos     int
	top     *chem.Topology
	bracket []bool //whether each atom was written in brackets
	prev    int
	bond    byte //pending bond symbol, 0 if none
	bondpos int
	branch  []int
	rings   map[int]ringOpen
	implied []int //bonds between aromatic atoms written without a symbol
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{SMILES: p.s, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse reads a SMILES string and returns a molecule without conformations.
// Anything after the first whitespace is taken as a title and ignored.
// It returns a *SyntaxError if the string is not a valid structure.
func Parse(s string) (*chem.Molecule, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		s = s[:i]
	}
	p := &parser{s: s, top: chem.NewTopology(0, 1, nil), prev: -1, rings: make(map[int]ringOpen)}
	if s == "" {
		return nil, p.errorf(0, "empty SMILES")
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	mol, err := chem.NewMolecule(p.top)
	if err != nil {
		return nil, err
	}
	return mol, nil
}

func (p *parser) parse() error {
	for p.pos < len(p.s) {
		ch := p.s[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return p.errorf(p.pos, "branch without a preceding atom")
			}
			if p.bond != 0 {
				return p.errorf(p.bondpos, "bond symbol before a branch")
			}
			p.branch = append(p.branch, p.prev)
			p.pos++
		case ch == ')':
			if len(p.branch) == 0 {
				return p.errorf(p.pos, "unbalanced parenthesis")
			}
			if p.bond != 0 {
				return p.errorf(p.bondpos, "dangling bond at the end of a branch")
			}
			p.prev = p.branch[len(p.branch)-1]
			p.branch = p.branch[:len(p.branch)-1]
			p.pos++
		case strings.IndexByte("-=#$:/\\", ch) >= 0:
			if p.bond != 0 {
				return p.errorf(p.pos, "two consecutive bond symbols")
			}
			if p.prev < 0 {
				return p.errorf(p.pos, "bond without a preceding atom")
			}
			p.bond, p.bondpos = ch, p.pos
			p.pos++
		case ch == '.':
			if p.bond != 0 {
				return p.errorf(p.bondpos, "dangling bond before a dot")
			}
			if p.prev < 0 {
				return p.errorf(p.pos, "empty fragment")
			}
			p.prev = -1
			p.pos++
		case ch >= '0' && ch <= '9', ch == '%':
			if err := p.ringClosure(); err != nil {
				return err
			}
		case ch == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) finish() error {
	if p.bond != 0 {
		return p.errorf(p.bondpos, "dangling bond at the end")
	}
	if len(p.branch) > 0 {
		return p.errorf(len(p.s), "unclosed branch")
	}
	for n, r := range p.rings {
		return p.errorf(r.pos, "unclosed ring %d", n)
	}
	if p.prev < 0 {
		return p.errorf(len(p.s), "ends with an empty fragment")
	}
	inring := ringBonds(p.top)
	//an unwritten bond between aromatic atoms is aromatic only inside a ring.
	for _, k := range p.implied {
		if !inring[k] {
			p.top.Bonds[k].Order = 1
		}
	}
	if err := p.checkAromaticRings(); err != nil {
		return err
	}
	charge := 0
	for i, at := range p.top.Atoms {
		charge += at.Charge
		if !p.bracket[i] {
			at.ImplicitH = p.implicitH(i)
		}
	}
	p.top.SetCharge(charge)
	return p.checkKekule()
}

// bondOrder returns the order for a bond written with symbol sym between atoms a and b.
func (p *parser) bondOrder(sym byte, a, b int) float64 {
	switch sym {
	case '=':
		return 2
	case '#':
		return 3
	case '$':
		return 4
	case ':':
		return chem.AromaticOrder
	case '-', '/', '\\':
		return 1
	}
	if p.top.Atoms[a].Aromatic && p.top.Atoms[b].Aromatic {
		return chem.AromaticOrder
	}
	return 1
}

// addBond bonds atoms a and b, with the order given by the symbol sym.
func (p *parser) addBond(a, b int, sym byte) error {
	order := p.bondOrder(sym, a, b)
	if err := p.top.AddBond(a, b, order); err != nil {
		return err
	}
	if sym == 0 && order == chem.AromaticOrder {
		p.implied = append(p.implied, len(p.top.Bonds)-1)
	}
	return nil
}

// addAtom adds at, bonding it to the previous atom if there is one.
func (p *parser) addAtom(at *chem.Atom, bracket bool, start int) error {
	at.Mass = chem.Mass(at.Symbol)
	idx := p.top.AddAtom(at)
	at.Id = idx + 1
	at.Name = at.Symbol
	p.bracket = append(p.bracket, bracket)
	if p.prev >= 0 {
		if err := p.addBond(p.prev, idx, p.bond); err != nil {
			return p.errorf(start, "%s", err)
		}
	}
	p.bond = 0
	p.prev = idx
	return nil
}

func (p *parser) organicAtom() error {
	start := p.pos
	rest := p.s[p.pos:]
	for _, sym := range organic {
		if strings.HasPrefix(rest, sym) {
			p.pos += len(sym)
			return p.addAtom(&chem.Atom{Symbol: sym}, false, start)
		}
	}
	for _, sym := range aromaticOrganic {
		if strings.HasPrefix(rest, sym) {
			p.pos += len(sym)
			return p.addAtom(&chem.Atom{Symbol: strings.ToUpper(sym), Aromatic: true}, false, start)
		}
	}
	return p.errorf(start, "unexpected character %q", rest[0])
}

func (p *parser) readInt() (int, bool) {
	start := p.pos
	n := 0
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		n = 10*n + int(p.s[p.pos]-'0')
		p.pos++
	}
	return n, p.pos > start
}

func (p *parser) bracketAtom() error {
	start := p.pos
	end := strings.IndexByte(p.s[start:], ']')
	if end < 0 {
		return p.errorf(start, "unclosed bracket atom")
	}
	end += start
	p.pos++ //'['
	at := &chem.Atom{}
	at.Isotope, _ = p.readInt()
	inner := p.s[p.pos:end]
	found := false
	for _, sym := range aromaticBracket {
		if strings.HasPrefix(inner, sym) {
			at.Symbol = strings.ToUpper(sym[:1]) + sym[1:]
			at.Aromatic = true
			p.pos += len(sym)
			found = true
			break
		}
	}
	if !found {
		if inner == "" || inner[0] < 'A' || inner[0] > 'Z' {
			return p.errorf(p.pos, "expected an element symbol in bracket atom")
		}
		if len(inner) > 1 && inner[1] >= 'a' && inner[1] <= 'z' && chem.IsElement(inner[:2]) {
			at.Symbol = inner[:2]
		} else if chem.IsElement(inner[:1]) {
			at.Symbol = inner[:1]
		} else {
			return p.errorf(p.pos, "unknown element in bracket atom")
		}
		p.pos += len(at.Symbol)
	}
	//chirality, ignored.
	chiral := p.pos
	for p.pos < end && p.s[p.pos] == '@' {
		p.pos++
	}
	if p.pos > chiral && p.pos+1 < end {
		switch p.s[p.pos : p.pos+2] {
		case "TH", "AL", "SP", "TB", "OH":
			p.pos += 2
			p.readInt()
		}
	}
	if p.pos < end && p.s[p.pos] == 'H' {
		p.pos++
		h, ok := p.readInt()
		if !ok {
			h = 1
		}
		at.ImplicitH = h
	}
	if p.pos < end && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
		sign := 1
		if p.s[p.pos] == '-' {
			sign = -1
		}
		c := p.s[p.pos]
		p.pos++
		n, ok := p.readInt()
		if !ok {
			n = 1
			for p.pos < end && p.s[p.pos] == c {
				n++
				p.pos++
			}
		}
		at.Charge = sign * n
	}
	if p.pos < end && p.s[p.pos] == ':' {
		p.pos++
		if _, ok := p.readInt(); !ok {
			return p.errorf(p.pos, "atom class without a number")
		}
	}
	if p.pos != end {
		return p.errorf(p.pos, "unexpected %q in bracket atom", p.s[p.pos:end])
	}
	p.pos = end + 1
	return p.addAtom(at, true, start)
}

func (p *parser) ringClosure() error {
	start := p.pos
	if p.prev < 0 {
		return p.errorf(start, "ring closure without a preceding atom")
	}
	var n int
	if p.s[p.pos] == '%' {
		if p.pos+2 >= len(p.s) || !isDigit(p.s[p.pos+1]) || !isDigit(p.s[p.pos+2]) {
			return p.errorf(start, "'%%' must be followed by two digits")
		}
		n = int(p.s[p.pos+1]-'0')*10 + int(p.s[p.pos+2]-'0')
		p.pos += 3
	} else {
		n = int(p.s[p.pos] - '0')
		p.pos++
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringOpen{atom: p.prev, bond: p.bond, pos: start}
		p.bond = 0
		return nil
	}
	delete(p.rings, n)
	sym := p.bond
	if open.bond != 0 {
		if sym != 0 && sym != open.bond && !(isStereo(sym) && isStereo(open.bond)) {
			return p.errorf(start, "conflicting bond symbols for ring closure %d", n)
		}
		sym = open.bond
	}
	if open.atom == p.prev {
		return p.errorf(start, "ring closure %d bonds an atom to itself", n)
	}
	if err := p.addBond(open.atom, p.prev, sym); err != nil {
		return p.errorf(start, "ring closure %d: %s", n, err)
	}
	p.bond = 0
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isStereo(c byte) bool { return c == '/' || c == '\\' }

// implicitH returns the implicit hydrogens of an organic-subset atom from
// its default valences and bonds.
func (p *parser) implicitH(i int) int {
	at := p.top.Atoms[i]
	valences := chem.Valences(at.Symbol)
	if len(valences) == 0 {
		return 0
	}
	if at.Aromatic {
		//aromatic bonds count as single bonds, plus one electron for the pi system.
		sum := 0
		for _, b := range p.top.Bonds {
			if b.At1 == i || b.At2 == i {
				if b.Aromatic() {
					sum++
				} else {
					sum += int(b.Order)
				}
			}
		}
		return max(valences[0]-sum-1, 0)
	}
	sum := int(math.Ceil(p.top.BondOrderSum(i)))
	for _, v := range valences {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

// checkAromaticRings returns an error if an atom marked aromatic is not part of a ring.
func (p *parser) checkAromaticRings() error {
	inring := ringAtoms(p.top)
	for i, at := range p.top.Atoms {
		if at.Aromatic && !inring[i] {
			return p.errorf(0, "non-ring atom %d (%s) marked aromatic", i+1, at.Symbol)
		}
	}
	return nil
}

// ringAtoms returns, for each atom, whether it belongs to a ring.
func ringAtoms(top *chem.Topology) []bool {
	ret := make([]bool, top.Len())
	for k, in := range ringBonds(top) {
		if in {
			ret[top.Bonds[k].At1] = true
			ret[top.Bonds[k].At2] = true
		}
	}
	return ret
}

// ringBonds returns, for each bond, whether it belongs to a ring, i.e.
// whether it is not a bridge of the molecular graph (Tarjan's bridge finding).
func ringBonds(top *chem.Topology) []bool {
	n := top.Len()
	adj := make([][]int, n) //bond indexes per atom
	for k, b := range top.Bonds {
		adj[b.At1] = append(adj[b.At1], k)
		adj[b.At2] = append(adj[b.At2], k)
	}
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	ret := make([]bool, len(top.Bonds))
	for k := range ret {
		ret[k] = true
	}
	t := 0
	var dfs func(u, parentBond int)
	dfs = func(u, parentBond int) {
		disc[u], low[u] = t, t
		t++
		for _, k := range adj[u] {
			if k == parentBond {
				continue
			}
			v := top.Bonds[k].Cross(u)
			if disc[v] < 0 {
				dfs(v, k)
				low[u] = min(low[u], low[v])
				if low[v] > disc[u] {
					ret[k] = false
				}
			} else {
				low[u] = min(low[u], disc[v])
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] < 0 {
			dfs(i, -1)
		}
	}
	return ret
}
