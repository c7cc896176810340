/*
 * discover.go, part of gocp2k.
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
	"path/filepath"
)

//Default-file discovery touches the filesystem, which the rest of the core
//does not, so it lives behind this small interface: the pipeline only ever
//calls a resolver, and tests can plug their own.

//InputResolver locates the four input files of a run. An empty stress path
//means the run has no stress file, which is allowed; the other three are
//required.
type InputResolver func() (pos, frc, cell, stress string, err error)

//GlobResolver returns an InputResolver that finds the inputs in dir by the
//CP2K default naming patterns: *-pos-1.xyz, *-frc-1.xyz, *.cell and,
//optionally, *.stress. A required pattern matching no file, or any pattern
//matching more than one, is an error: ambiguity must be resolved by passing
//the paths explicitly.
func GlobResolver(dir string) InputResolver {
	return func() (string, string, string, string, error) {
		pos, err := findOne(dir, "*-pos-1.xyz")
		if err != nil {
			return "", "", "", "", err
		}
		frc, err := findOne(dir, "*-frc-1.xyz")
		if err != nil {
			return "", "", "", "", err
		}
		cell, err := findOne(dir, "*.cell")
		if err != nil {
			return "", "", "", "", err
		}
		stress, err := findOne(dir, "*.stress")
		if err != nil {
			log.Printf("gocp2k: no usable default *.stress file (%v); stress information will not be included", err)
			stress = ""
		}
		return pos, frc, cell, stress, nil
	}
}

func findOne(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no file found matching pattern %s", pattern)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous pattern %s: %d matches, specify the files explicitly", pattern, len(matches))
	}
}
