/*
 * frame.go, part of gocp2k.
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
	"fmt"
	"sort"
)

/**Note: some functions here panic instead of returning errors. They are
 * "fundamental" accessors; if something goes wrong in them the program is
 * most likely wrong and should crash.**/

//Atom is one atomic record of a frame: the species label and the position,
//in Å. The order of atoms within a frame is significant and preserved
//verbatim from the position file. Only the species takes part in the energy
//reference model.
type Atom struct {
	Symbol string
	Coords [3]float64
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	return &Atom{Symbol: A.Symbol, Coords: A.Coords}
}

//Frame is one snapshot of the simulated system with every per-quantity
//source merged in: geometry, total energy (eV), forces (eV/Å, index-aligned
//with Atoms), cell vectors (9 numbers, row-major, Å) and, optionally, the
//stress tensor (9 numbers, row-major, eV/Å³, nil when the run produced no
//stress file).
type Frame struct {
	Atoms   []*Atom
	Energy  float64
	Forces  [][3]float64
	Lattice []float64
	Stress  []float64
}

//Len returns the number of atoms in the frame.
func (F *Frame) Len() int {
	return len(F.Atoms)
}

//Atom returns the Atom corresponding to the index i.
//Panics if out of range.
func (F *Frame) Atom(i int) *Atom {
	if i >= F.Len() {
		panic("Frame: Requested Atom out of bounds")
	}
	return F.Atoms[i]
}

//Composition returns the per-species atom counts of the frame, in the order
//given by species. Species not present in the frame count zero.
func (F *Frame) Composition(species []string) []float64 {
	comp := make([]float64, len(species))
	for i, v := range species {
		for _, at := range F.Atoms {
			if at.Symbol == v {
				comp[i]++
			}
		}
	}
	return comp
}

//Trajectory is an ordered sequence of frames. The index is the join key
//across all the per-quantity sources.
type Trajectory struct {
	Frames []*Frame
}

//Len returns the number of frames in the trajectory.
func (T *Trajectory) Len() int {
	if T == nil {
		return 0
	}
	return len(T.Frames)
}

//Frame returns the frame with index i. Panics if out of range.
func (T *Trajectory) Frame(i int) *Frame {
	if i >= T.Len() {
		panic(fmt.Sprintf("Trajectory: Frame requested (%d) out of range", i))
	}
	return T.Frames[i]
}

//Species returns the union of the species labels observed across the whole
//trajectory, sorted for determinism.
func (T *Trajectory) Species() []string {
	seen := make(map[string]bool)
	for _, f := range T.Frames {
		for _, at := range f.Atoms {
			seen[at.Symbol] = true
		}
	}
	species := make([]string, 0, len(seen))
	for k := range seen {
		species = append(species, k)
	}
	sort.Strings(species)
	return species
}

//Energies returns the per-frame total energies, in eV.
func (T *Trajectory) Energies() []float64 {
	e := make([]float64, T.Len())
	for i, f := range T.Frames {
		e[i] = f.Energy
	}
	return e
}

//HasStress returns true if every frame of the trajectory carries a stress
//tensor.
func (T *Trajectory) HasStress() bool {
	if T.Len() == 0 {
		return false
	}
	for _, f := range T.Frames {
		if f.Stress == nil {
			return false
		}
	}
	return true
}
