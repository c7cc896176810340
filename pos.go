/*
 * pos.go, part of gocp2k.
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

//The position stream is a multi-frame XYZ listing: an atom-count line, one
//metadata line (which CP2K fills with step/time/energy and we ignore), then
//exactly atom-count lines of "symbol x y z". Top-level lines that are blank,
//start with '#', or don't parse as an integer count are treated as non-frame
//noise and skipped.

//PositionsFileRead reads a CP2K *-pos-1.xyz file and returns one atom slice
//per frame, in file order. Positions are kept in Å, as CP2K prints them.
func PositionsFileRead(name string) ([][]*Atom, error) {
	fin, err := os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, "xyz", []string{"PositionsFileRead"}, true}
	}
	defer fin.Close()
	frames, err := ReadPositions(fin)
	if err != nil {
		return frames, errDecorate(err, "PositionsFileRead")
	}
	return frames, nil
}

//ReadPositions extracts geometry frames from in. It never fails on malformed
//content, only on a truncated trailing frame, which is dropped with a
//diagnostic.
func ReadPositions(in io.Reader) ([][]*Atom, error) {
	frames := make([][]*Atom, 0, 100)
	r := bufio.NewReader(in)
	for {
		line, rerr := r.ReadString('\n')
		if line == "" && rerr != nil {
			break //clean EOF
		}
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			if rerr != nil {
				break
			}
			continue
		}
		natoms, err := strconv.Atoi(strings.Fields(s)[0])
		if err != nil {
			//non-frame noise between frames
			if rerr != nil {
				break
			}
			continue
		}
		_, _ = r.ReadString('\n') //the metadata/comment line
		atoms, complete := readAtomBlock(r, natoms)
		if !complete {
			log.Printf("gocp2k: position stream ended mid-frame, dropping partial frame %d (%d of %d atoms read)", len(frames), len(atoms), natoms)
			break
		}
		frames = append(frames, atoms)
		if rerr != nil {
			break
		}
	}
	return frames, nil
}

//readAtomBlock reads up to natoms "symbol x y z" lines. Malformed lines are
//skipped with a diagnostic and still consume their slot, matching the
//best-effort policy of the rest of the readers. Returns false if the stream
//ran out before the block was complete.
func readAtomBlock(r *bufio.Reader, natoms int) ([]*Atom, bool) {
	atoms := make([]*Atom, 0, natoms)
	for i := 0; i < natoms; i++ {
		line, rerr := r.ReadString('\n')
		if line == "" && rerr != nil {
			return atoms, false
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			log.Printf("gocp2k: skipping malformed position line: %q", strings.TrimSpace(line))
			continue
		}
		at := &Atom{Symbol: fields[0]}
		var err error
		for j := 0; j < 3; j++ {
			at.Coords[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			log.Printf("gocp2k: skipping position line with non-numeric coordinates: %q", strings.TrimSpace(line))
			continue
		}
		atoms = append(atoms, at)
		if rerr != nil && i < natoms-1 {
			return atoms, false
		}
	}
	return atoms, true
}
