/*
 * errors.go, part of gocp2k.
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

import "fmt"

// Errorer is the interface for errors in this library. The Decorate method
// allows to add and retrieve info from the error, without changing its type
// or wrapping it around something else.
type Errorer interface {
	Error() string
	Decorate(string) []string //Adds information when passing the error up. Each call returns the current "decoration" slice of strings. If passed an empty string, it should just return the current value, without adding anything.
}

// TrajError is the interface for errors in the per-quantity input streams
// and the merged trajectory.
type TrajError interface {
	Errorer
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a useless method to distinguish the harmless
// end-of-trajectory condition from actual reading problems, so it can be
// filtered in a type switch.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}

//errDecorate asserts that err implements Errorer and decorates it with the
//caller's name before returning it. Used with anything else, it will panic.
func errDecorate(err error, caller string) error {
	err2 := err.(Errorer)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for gocp2k errors. It fulfills Errorer and
// TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	format   string //"xyz", "cell", "stress" or "extxyz"
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("gocp2k, file %s: %s", err.filename, err.message)
}

//Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer receiver and tries to
	//alter the receiver, it works, since E.deco is a slice, hence a pointer
	//itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the failing operation was associated
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file associated to the error
func (err Error) Format() string { return err.format }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

//Messages for the most common errors.
const (
	UnableToOpen  = "Unable to open file"
	NilTrajectory = "Given nil trajectory"
	NotEnoughData = "Not enough data in stream"
	EOF           = "EOF"
)

//lastFrameError implements LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
	format   string
}

//NormalLastFrameTermination does nothing
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return EOF }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return E.format }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename, format, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.format = format
	e.deco = []string{caller}
	return e
}
