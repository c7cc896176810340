/*
 * reconcile.go, part of gocp2k.
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

import "log"

//Reconcile aligns the frame sequences produced by the per-quantity readers
//into one trajectory. Every sequence is truncated to the shortest one, and
//the loss is reported; production runs on inconsistent files must still
//yield a usable, internally consistent trajectory rather than abort. Force
//blocks that came back short (because malformed lines were skipped) are
//padded with zero vectors, so every merged frame has one force per atom.
//stresses may be nil when the run produced no stress file.
func Reconcile(pos [][]*Atom, energies []float64, forces [][][3]float64, cells [][]float64, stresses [][]float64) *Trajectory {
	minlen := len(pos)
	longest := minlen
	for _, l := range []int{len(energies), len(forces), len(cells)} {
		if l < minlen {
			minlen = l
		}
		if l > longest {
			longest = l
		}
	}
	if stresses != nil {
		if len(stresses) < minlen {
			minlen = len(stresses)
		}
		if len(stresses) > longest {
			longest = len(stresses)
		}
	}
	if longest > minlen {
		log.Printf("gocp2k: frame-count mismatch among input files, trimming all data to %d frames (%d discarded from the longest source)", minlen, longest-minlen)
	}
	T := &Trajectory{Frames: make([]*Frame, 0, minlen)}
	for i := 0; i < minlen; i++ {
		frc := forces[i]
		if len(frc) < len(pos[i]) {
			log.Printf("gocp2k: frame %d has %d force vectors for %d atoms, padding with zero vectors", i, len(frc), len(pos[i]))
			padded := make([][3]float64, len(pos[i]))
			copy(padded, frc)
			frc = padded
		}
		f := &Frame{
			Atoms:   pos[i],
			Energy:  energies[i],
			Forces:  frc,
			Lattice: cells[i],
		}
		if stresses != nil {
			f.Stress = stresses[i]
		}
		T.Frames = append(T.Frames, f)
	}
	return T
}
