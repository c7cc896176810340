/*
 * refenergy.go, part of gocp2k.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
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

package cp2k

import (
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//Energy referencing decomposes the total per-frame energy into a linear
//combination of per-species contributions, so the residual (the "shifted"
//energy) has a small dynamic range and is suitable as a training target.

//ReferenceEnergies is the per-species baseline obtained from the
//least-squares fit, plus the residual statistics that serve as the
//user-facing quality signal.
type ReferenceEnergies struct {
	Species      []string           //the global species set, sorted
	Energy       map[string]float64 //per-species energy, eV
	ResidualMean float64            //mean of the shifted energies, eV
	ResidualMax  float64            //maximum absolute shifted energy, eV
}

//ShiftEnergies fits per-species reference energies to the trajectory and
//returns the model together with the shifted (residual) per-frame energies.
//It degrades gracefully instead of failing: rank-deficient composition
//matrices are regularized with heuristic constraints, singular directions of
//the solve contribute zero, an empty trajectory yields an empty model, and
//a trajectory without any atoms passes the energies through unshifted.
func (T *Trajectory) ShiftEnergies() (*ReferenceEnergies, []float64) {
	ref := &ReferenceEnergies{Energy: make(map[string]float64)}
	if T.Len() == 0 {
		return ref, nil
	}
	species := T.Species()
	ref.Species = species
	N := T.Len()
	S := len(species)
	if S == 0 {
		//frames without atoms give nothing to fit, and gonum panics on
		//zero-width matrices
		log.Printf("gocp2k: no atoms anywhere in the trajectory, leaving the energies unshifted")
		shifted := T.Energies()
		ref.ResidualMean = stat.Mean(shifted, nil)
		for _, v := range shifted {
			if math.Abs(v) > ref.ResidualMax {
				ref.ResidualMax = math.Abs(v)
			}
		}
		return ref, shifted
	}
	C := mat.NewDense(N, S, nil)
	E := make([]float64, N)
	for i, f := range T.Frames {
		C.SetRow(i, f.Composition(species))
		E[i] = f.Energy
	}
	//The synthetic rows are a heuristic regularizer, not a physical law:
	//when the trajectory never samples the species independently, we impose
	//"adjacent species have equal reference energy", which brings the
	//system to full column rank without preferring any species. Any fixed,
	//deterministic set of S-1 independent constraints would do.
	if matrixRank(C) < S {
		if S > 1 {
			log.Printf("gocp2k: composition matrix is underdetermined, adding %d heuristic constraints (adjacent species energies set equal)", S-1)
			aug := mat.NewDense(N+S-1, S, nil)
			aug.Slice(0, N, 0, S).(*mat.Dense).Copy(C)
			for i := 0; i < S-1; i++ {
				aug.Set(N+i, i, 1)
				aug.Set(N+i, i+1, -1)
			}
			C = aug
			E = append(E, make([]float64, S-1)...) //the targets of the constraints are zero
		} else {
			log.Printf("gocp2k: composition matrix is underdetermined but only one species is present; solving as-is")
		}
	}
	x := lstsqSVD(C, E)
	shifted := make([]float64, N)
	for i, f := range T.Frames {
		shifted[i] = f.Energy - floats.Dot(f.Composition(species), x)
	}
	for i, v := range species {
		ref.Energy[v] = x[i]
	}
	ref.ResidualMean = stat.Mean(shifted, nil)
	for _, v := range shifted {
		if math.Abs(v) > ref.ResidualMax {
			ref.ResidualMax = math.Abs(v)
		}
	}
	return ref, shifted
}

//matrixRank returns the numerical rank of A: the number of singular values
//above the usual eps*max(σ) cutoff.
func matrixRank(A mat.Matrix) int {
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDNone) {
		return 0
	}
	s := svd.Values(nil)
	if len(s) == 0 {
		return 0
	}
	tol := machEps * floats.Max(s)
	rank := 0
	for _, v := range s {
		if v > tol {
			rank++
		}
	}
	return rank
}

const machEps = 2.220446049250313e-16

//lstsqSVD solves A·x ≈ b in the least-squares sense through the
//Moore-Penrose pseudoinverse: singular values at or below eps*max(σ) map to
//a zero contribution, never to a division by zero, so singular and
//near-singular systems are handled without error. A failed factorization
//(which gonum reports only for non-finite input) yields the zero solution.
func lstsqSVD(A *mat.Dense, b []float64) []float64 {
	m, n := A.Dims()
	x := make([]float64, n)
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDThin) {
		log.Printf("gocp2k: SVD factorization failed (%dx%d system); returning the zero solution", m, n)
		return x
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	tol := machEps * floats.Max(s)
	//x = V · Σ⁺ · Uᵗ · b
	for j := range s {
		if s[j] <= tol {
			continue
		}
		var p float64
		for i := 0; i < m; i++ {
			p += u.At(i, j) * b[i]
		}
		p /= s[j]
		for k := 0; k < n; k++ {
			x[k] += v.At(k, j) * p
		}
	}
	return x
}
