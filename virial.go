/*
 * virial.go, part of gocp2k.
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
	"log"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

//volTolerance is the determinant magnitude below which a cell is treated as
//degenerate, i.e. of exactly zero volume.
const volTolerance = 1e-9

//CellVolume returns the volume, in Å³, of the cell described by the given
//9-component row-major lattice: the absolute value of the determinant of
//the 3x3 cell matrix. A lattice that does not reshape to 9 components, or
//whose determinant magnitude falls below the numerical tolerance, yields
//exactly zero, with a diagnostic; never an error.
func CellVolume(lattice []float64) float64 {
	if len(lattice) != 9 {
		log.Printf("gocp2k: lattice with %d components instead of 9, treating cell volume as zero", len(lattice))
		return 0
	}
	v := math.Abs(mat.Det(mat.NewDense(3, 3, lattice)))
	if v < volTolerance {
		log.Printf("gocp2k: degenerate cell (|det| = %.2e Å³), treating volume as zero", v)
		return 0
	}
	return v
}

//VirialFromStress converts a 9-component stress tensor (eV/Å³) and a cell
//volume (Å³) into the virial tensor (eV), component-wise, under the fixed
//Virial2EV constant. A zero volume or a malformed tensor gives the exact
//zero tensor for every component. The 9 components are handled positionally
//as a flattened row-major 3x3 tensor; no symmetry is assumed or enforced.
func VirialFromStress(stress []float64, volume float64) []float64 {
	virial := make([]float64, 9)
	if volume == 0 {
		return virial
	}
	if len(stress) != 9 {
		log.Printf("gocp2k: stress tensor with %d components instead of 9, reporting zero virial", len(stress))
		return virial
	}
	for i, s := range stress {
		virial[i] = s * volume * Virial2EV
	}
	return virial
}

//Virials derives the virial tensor of every frame of the trajectory from
//its stress tensor and cell volume. Frames without a stress tensor, or with
//a degenerate cell, report the zero tensor.
func (T *Trajectory) Virials() [][]float64 {
	virials := make([][]float64, T.Len())
	for i, f := range T.Frames {
		virials[i] = VirialFromStress(f.Stress, CellVolume(f.Lattice))
	}
	return virials
}

//WriteRaw exports the per-frame virial tensors, stress tensors and cell
//volumes of the trajectory under dir, in the flat column formats consumed
//by force-field training pipelines: virial.raw and stress.txt with nine
//%20.10f columns per frame, volume.txt with one.
func (T *Trajectory) WriteRaw(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Error{err.Error(), dir, "raw", []string{"WriteRaw"}, true}
	}
	fvir, err := os.Create(filepath.Join(dir, "virial.raw"))
	if err != nil {
		return Error{err.Error(), "virial.raw", "raw", []string{"WriteRaw"}, true}
	}
	defer fvir.Close()
	fstress, err := os.Create(filepath.Join(dir, "stress.txt"))
	if err != nil {
		return Error{err.Error(), "stress.txt", "raw", []string{"WriteRaw"}, true}
	}
	defer fstress.Close()
	fvol, err := os.Create(filepath.Join(dir, "volume.txt"))
	if err != nil {
		return Error{err.Error(), "volume.txt", "raw", []string{"WriteRaw"}, true}
	}
	defer fvol.Close()
	zero := make([]float64, 9)
	for _, f := range T.Frames {
		stress := f.Stress
		if stress == nil || len(stress) != 9 {
			stress = zero
		}
		vol := CellVolume(f.Lattice)
		writeNineCols(fvir, VirialFromStress(stress, vol))
		writeNineCols(fstress, stress)
		fmt.Fprintf(fvol, "%20.10f\n", vol)
	}
	return nil
}

func writeNineCols(f *os.File, row []float64) {
	for j, v := range row {
		if j > 0 {
			fmt.Fprint(f, " ")
		}
		fmt.Fprintf(f, "%20.10f", v)
	}
	fmt.Fprintln(f)
}
