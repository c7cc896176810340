/*
 * cell.go, part of gocp2k.
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

//The .cell and .stress files share one tabular shape: a header line, then
//one line per frame of "step time" followed by 9 components in row-major
//order (columns 3-11). Only the scale applied to the components differs.

//CellFileRead reads a CP2K .cell file and returns one 9-component row-major
//lattice (Å) per accepted line.
func CellFileRead(name string) ([][]float64, error) {
	fin, err := os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, "cell", []string{"CellFileRead"}, true}
	}
	defer fin.Close()
	cells, err := ReadCell(fin)
	if err != nil {
		return cells, errDecorate(err, "CellFileRead")
	}
	return cells, nil
}

//ReadCell extracts lattices from in. The cell file is already in Å, so the
//components pass through unscaled.
func ReadCell(in io.Reader) ([][]float64, error) {
	return readTensorTable(in, 1.0, "cell")
}

//StressFileRead reads a CP2K .stress file and returns one 9-component
//row-major stress tensor (eV/Å³) per accepted line. scale converts from the
//source pressure unit; pass Bar2EVA3 (or its negation, for the opposite sign
//convention) for the bar output of CP2K.
func StressFileRead(name string, scale float64) ([][]float64, error) {
	fin, err := os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, "stress", []string{"StressFileRead"}, true}
	}
	defer fin.Close()
	stresses, err := ReadStress(fin, scale)
	if err != nil {
		return stresses, errDecorate(err, "StressFileRead")
	}
	return stresses, nil
}

//ReadStress extracts stress tensors from in, multiplying each component
//by scale.
func ReadStress(in io.Reader, scale float64) ([][]float64, error) {
	return readTensorTable(in, scale, "stress")
}

func readTensorTable(in io.Reader, scale float64, what string) ([][]float64, error) {
	rows := make([][]float64, 0, 100)
	r := bufio.NewReader(in)
	_, rerr := r.ReadString('\n') //header
	if rerr != nil {
		return rows, nil
	}
	for {
		line, rerr := r.ReadString('\n')
		s := strings.TrimSpace(line)
		if s == "" {
			if rerr != nil {
				break
			}
			continue
		}
		fields := strings.Fields(s)
		if len(fields) < 11 {
			log.Printf("gocp2k: skipping malformed %s line (%d fields, expected at least 11): %q", what, len(fields), s)
			if rerr != nil {
				break
			}
			continue
		}
		row := make([]float64, 9)
		var err error
		for j := 0; j < 9; j++ {
			row[j], err = strconv.ParseFloat(fields[j+2], 64)
			if err != nil {
				break
			}
			row[j] *= scale
		}
		if err != nil {
			log.Printf("gocp2k: skipping %s line with non-numeric components: %q", what, s)
			if rerr != nil {
				break
			}
			continue
		}
		rows = append(rows, row)
		if rerr != nil {
			break
		}
	}
	return rows, nil
}
