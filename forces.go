/*
 * forces.go, part of gocp2k.
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
	"bufio"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

//energyMark delimits the per-frame blocks of the force stream. CP2K writes
//it in the comment line of each frame of the *-frc-1.xyz file.
const energyMark = "E ="

//ForcesFileRead reads a CP2K *-frc-1.xyz file. natoms gives, per frame index,
//the atom count the position stream reported; force blocks are matched to it
//strictly by sequential order. Energies come back in eV and forces in eV/Å.
func ForcesFileRead(name string, natoms []int) ([]float64, [][][3]float64, error) {
	fin, err := os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), name, "xyz", []string{"ForcesFileRead"}, true}
	}
	defer fin.Close()
	energies, forces, err := ReadForces(fin, natoms)
	if err != nil {
		return energies, forces, errDecorate(err, "ForcesFileRead")
	}
	return energies, forces, nil
}

//ReadForces scans in for energy-marked frame blocks and collects, for each,
//the total energy and one force vector per atom. If the stream contains more
//energy blocks than there are entries in natoms, extraction stops early with
//a diagnostic; it never fails for that reason.
func ReadForces(in io.Reader, natoms []int) ([]float64, [][][3]float64, error) {
	energies := make([]float64, 0, len(natoms))
	forces := make([][][3]float64, 0, len(natoms))
	r := bufio.NewReader(in)
	frame := 0
	for {
		line, rerr := r.ReadString('\n')
		if line == "" && rerr != nil {
			break
		}
		if i := strings.LastIndex(line, energyMark); i >= 0 {
			e, err := strconv.ParseFloat(strings.TrimSpace(line[i+len(energyMark):]), 64)
			if err != nil {
				//the marker appeared in something that is not a frame header
				if rerr != nil {
					break
				}
				continue
			}
			if frame >= len(natoms) {
				log.Printf("gocp2k: more energy/force blocks than position frames; stopping force extraction at frame %d", frame)
				break
			}
			energies = append(energies, e*H2EV)
			forces = append(forces, readForceBlock(r, natoms[frame]))
			frame++
		}
		if rerr != nil {
			break
		}
	}
	return energies, forces, nil
}

//readForceBlock reads natoms lines of "index fx fy fz". Lines with fewer
//than four fields, or whose second field is not numeric, are skipped without
//aborting the frame, so the returned slice may be shorter than natoms; the
//writer pads the difference with zero vectors.
func readForceBlock(r *bufio.Reader, natoms int) [][3]float64 {
	block := make([][3]float64, 0, natoms)
	for i := 0; i < natoms; i++ {
		line, rerr := r.ReadString('\n')
		if line == "" && rerr != nil {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		var f [3]float64
		var err error
		for j := 0; j < 3; j++ {
			f[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			continue
		}
		f[0] *= HBohr2EVA
		f[1] *= HBohr2EVA
		f[2] *= HBohr2EVA
		block = append(block, f)
		if rerr != nil {
			break
		}
	}
	return block
}
