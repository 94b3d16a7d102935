/*
 * gocoords.go, part of mapex.
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

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// SomeVecs returns a matrix containing the ith vectors of A,
// where i are the numbers in clist. The vectors are in the same order
// as clist.
func (F *Matrix) SomeVecs(clist []int) *Matrix {
	r := Zeros(len(clist))
	for key, val := range clist {
		r.SetVec(key, F.Vec(val))
	}
	return r
}

// SomeVecsSafe is like SomeVecs but returns an error instead of panicking
// when an index is out of range.
func (F *Matrix) SomeVecsSafe(clist []int) (*Matrix, error) {
	n := F.NVecs()
	for _, v := range clist {
		if v < 0 || v >= n {
			return nil, Error{fmt.Sprintf("v3.SomeVecsSafe: index %d out of range for %d vectors", v, n), true}
		}
	}
	if len(clist) == 0 {
		return nil, Error{"v3.SomeVecsSafe: no indexes given", true}
	}
	return F.SomeVecs(clist), nil
}

// Centroid returns the geometric center of the vectors with the given indexes.
// If no index is given, the centroid of all vectors is returned.
func (F *Matrix) Centroid(clist ...int) [3]float64 {
	if len(clist) == 0 {
		clist = make([]int, F.NVecs())
		for i := range clist {
			clist[i] = i
		}
	}
	var c [3]float64
	for _, i := range clist {
		floats.Add(c[:], F.RawRowView(i))
	}
	floats.Scale(1/float64(len(clist)), c[:])
	return c
}

// String returns a neat string representation of a Matrix.
func (F *Matrix) String() string {
	var b strings.Builder
	for i := 0; i < F.NVecs(); i++ {
		fmt.Fprintf(&b, "%8.3f %8.3f %8.3f\n", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	return b.String()
}

// Sub returns a-b.
func Sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Add returns a+b.
func Add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Scale returns s*a.
func Scale(s float64, a [3]float64) [3]float64 {
	return [3]float64{s * a[0], s * a[1], s * a[2]}
}

// Norm returns the euclidean norm of a.
func Norm(a [3]float64) float64 {
	return floats.Norm(a[:], 2)
}

// Unit returns a unit vector in the direction of a. If a has zero
// length, the x unit vector is returned.
func Unit(a [3]float64) [3]float64 {
	n := Norm(a)
	if n < appzero {
		return [3]float64{1, 0, 0}
	}
	return Scale(1/n, a)
}

// Cross returns the cross product a x b.
func Cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Perpendicular returns a unit vector perpendicular to a.
func Perpendicular(a [3]float64) [3]float64 {
	trial := [3]float64{0, 0, 1}
	if math.Abs(Unit(a)[2]) > 0.9 {
		trial = [3]float64{0, 1, 0}
	}
	return Unit(Cross(a, trial))
}

const appzero float64 = 1e-8
