/*
 * extxyz.go, part of gocp2k.
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
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

//configType tags every frame of the output, so downstream training sets can
//tell where their data came from.
const configType = "cp2k2xyz"

const flateLevel = 9

//WriteExtXYZ serializes the trajectory to name in the extended-XYZ format.
//A .gz, .zst or .flate suffix selects transparent compression of the output,
//as in the compressed-trajectory formats this package descends from; any
//other name writes plain text.
func WriteExtXYZ(T *Trajectory, name string) error {
	if T == nil {
		return Error{NilTrajectory, name, "extxyz", []string{"WriteExtXYZ"}, true}
	}
	fout, err := os.Create(name)
	if err != nil {
		return Error{UnableToOpen + ": " + err.Error(), name, "extxyz", []string{"WriteExtXYZ"}, true}
	}
	defer fout.Close()
	h, err := compressedWriter(fout, name)
	if err != nil {
		return Error{err.Error(), name, "extxyz", []string{"WriteExtXYZ"}, true}
	}
	werr := writeExtXYZ(T, h)
	if err := h.Close(); err != nil && werr == nil {
		return Error{err.Error(), name, "extxyz", []string{"WriteExtXYZ"}, true}
	}
	if werr != nil {
		return errDecorate(werr, "WriteExtXYZ")
	}
	return nil
}

//writeExtXYZ emits one block per frame: the atom-count line, the metadata
//line with energy, periodicity, lattice, the optional quoted stress and the
//per-atom property descriptor, then one line per atom. If a frame lacks its
//lattice or force block (which should not happen after reconciliation, but
//is checked anyway) the writer stops there and reports the truncation point
//rather than emitting garbage frames.
func writeExtXYZ(T *Trajectory, w io.Writer) error {
	out := bufio.NewWriter(w)
	for idx, f := range T.Frames {
		if f.Lattice == nil || f.Forces == nil {
			log.Printf("gocp2k: per-frame data ran out at frame %d of %d; stopping the write there", idx, T.Len())
			break
		}
		props := "species:S:1:pos:R:3:force:R:3"
		stress := ""
		if f.Stress != nil {
			stress = fmt.Sprintf(" stress=\"%s\"", joinFloats(f.Stress, "%.10f"))
			props += ":stress:R:9"
		}
		fmt.Fprintf(out, "%d\n", f.Len())
		fmt.Fprintf(out, "energy=%.10f config_type=%s pbc=\"T T T\" Lattice=\"%s\"%s Properties=%s\n",
			f.Energy, configType, joinFloats(f.Lattice, "%.10f"), stress, props)
		for i, at := range f.Atoms {
			var force [3]float64
			if i < len(f.Forces) {
				force = f.Forces[i]
			} else {
				log.Printf("gocp2k: force data missing for atom %d in frame %d, writing zeros", i, idx)
			}
			fmt.Fprintf(out, "%-2s %20.10f %20.10f %20.10f %20.10f %20.10f %20.10f\n",
				at.Symbol, at.Coords[0], at.Coords[1], at.Coords[2], force[0], force[1], force[2])
		}
	}
	if err := out.Flush(); err != nil {
		return Error{err.Error(), "", "extxyz", []string{"writeExtXYZ"}, true}
	}
	return nil
}

func joinFloats(v []float64, format string) string {
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = fmt.Sprintf(format, f)
	}
	return strings.Join(s, " ")
}

//WithEnergies returns a trajectory sharing every per-frame quantity of T
//except the energies, which are replaced, index for index, by e. Used to
//write the energy-shifted variant of a merged trajectory.
func (T *Trajectory) WithEnergies(e []float64) *Trajectory {
	S := &Trajectory{Frames: make([]*Frame, 0, T.Len())}
	for i, f := range T.Frames {
		g := *f
		if i < len(e) {
			g.Energy = e[i]
		}
		S.Frames = append(S.Frames, &g)
	}
	return S
}

//ExtXYZ reads an extended-XYZ trajectory one frame at a time, decompressing
//by file suffix as the writer compresses. When the stream is cleanly
//exhausted Next returns a LastFrameError, which callers filter with a type
//switch; anything else Next returns is an actual reading problem.
type ExtXYZ struct {
	f        *os.File
	h        io.ReadCloser
	r        *bufio.Reader
	filename string
	frame    int
	readable bool
}

//NewExtXYZ opens name for frame-by-frame reading.
func NewExtXYZ(name string) (*ExtXYZ, error) {
	fin, err := os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, "extxyz", []string{"NewExtXYZ"}, true}
	}
	h, err := compressedReader(fin, name)
	if err != nil {
		fin.Close()
		return nil, Error{err.Error(), name, "extxyz", []string{"NewExtXYZ"}, true}
	}
	return &ExtXYZ{f: fin, h: h, r: bufio.NewReader(h), filename: name, readable: true}, nil
}

//Readable returns true if the trajectory can still be read from.
func (X *ExtXYZ) Readable() bool {
	return X.readable
}

//Close closes the underlying file. Further calls to Next return a
//LastFrameError.
func (X *ExtXYZ) Close() error {
	X.readable = false
	X.h.Close()
	return X.f.Close()
}

//Next returns the next frame of the trajectory. Frames with malformed atom
//lines are handled with the same skip-and-log policy as the CP2K readers.
//At the normal end of the trajectory it returns a LastFrameError; a stream
//ending in the middle of a frame returns a non-critical TrajError instead,
//and the partial frame is discarded.
func (X *ExtXYZ) Next() (*Frame, error) {
	if !X.readable {
		return nil, newlastFrameError(X.filename, "extxyz", "Next")
	}
	for {
		line, rerr := X.r.ReadString('\n')
		if line == "" && rerr != nil {
			X.readable = false
			return nil, newlastFrameError(X.filename, "extxyz", "Next")
		}
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			if rerr != nil {
				X.readable = false
				return nil, newlastFrameError(X.filename, "extxyz", "Next")
			}
			continue
		}
		natoms, err := strconv.Atoi(strings.Fields(s)[0])
		if err != nil {
			//non-frame noise between frames
			if rerr != nil {
				X.readable = false
				return nil, newlastFrameError(X.filename, "extxyz", "Next")
			}
			continue
		}
		header, herr := X.r.ReadString('\n')
		if header == "" && herr != nil {
			X.readable = false
			return nil, Error{NotEnoughData, X.filename, "extxyz", []string{"Next"}, false}
		}
		f := &Frame{}
		f.Energy, err = strconv.ParseFloat(plainField(header, "energy"), 64)
		if err != nil {
			log.Printf("gocp2k: frame %d has no parseable energy in its metadata line", X.frame)
		}
		f.Lattice = parseFloats(quotedField(header, "Lattice"), 9)
		f.Stress = parseFloats(quotedField(header, "stress"), 9)
		f.Atoms = make([]*Atom, 0, natoms)
		f.Forces = make([][3]float64, 0, natoms)
		for i := 0; i < natoms; i++ {
			aline, aerr := X.r.ReadString('\n')
			if aline == "" && aerr != nil {
				X.readable = false
				return nil, Error{NotEnoughData, X.filename, "extxyz", []string{"Next"}, false}
			}
			fields := strings.Fields(aline)
			if len(fields) < 4 {
				log.Printf("gocp2k: skipping malformed extxyz atom line: %q", strings.TrimSpace(aline))
				continue
			}
			at := &Atom{Symbol: fields[0]}
			var perr error
			for j := 0; j < 3; j++ {
				at.Coords[j], perr = strconv.ParseFloat(fields[j+1], 64)
				if perr != nil {
					break
				}
			}
			if perr != nil {
				log.Printf("gocp2k: skipping extxyz atom line with non-numeric coordinates: %q", strings.TrimSpace(aline))
				continue
			}
			var force [3]float64
			if len(fields) >= 7 {
				for j := 0; j < 3; j++ {
					force[j], perr = strconv.ParseFloat(fields[j+4], 64)
					if perr != nil {
						force = [3]float64{}
						break
					}
				}
			}
			f.Atoms = append(f.Atoms, at)
			f.Forces = append(f.Forces, force)
			if aerr != nil && i < natoms-1 {
				X.readable = false
				return nil, Error{NotEnoughData, X.filename, "extxyz", []string{"Next"}, false}
			}
		}
		if rerr != nil {
			X.readable = false
		}
		X.frame++
		return f, nil
	}
}

//ReadExtXYZ parses a whole trajectory previously produced by WriteExtXYZ
//(or any compatible extended-XYZ file). A trajectory cut short in the middle
//of a frame loses the partial frame with a diagnostic, as in the CP2K
//readers; only critical errors propagate.
func ReadExtXYZ(name string) (*Trajectory, error) {
	X, err := NewExtXYZ(name)
	if err != nil {
		return nil, errDecorate(err, "ReadExtXYZ")
	}
	defer X.Close()
	T := &Trajectory{}
	for {
		f, err := X.Next()
		if err != nil {
			switch e := err.(type) {
			case LastFrameError:
				return T, nil
			case TrajError:
				if !e.Critical() {
					log.Printf("gocp2k: extxyz stream ended mid-frame, dropping partial frame %d", T.Len())
					return T, nil
				}
				return T, errDecorate(err, "ReadExtXYZ")
			default:
				return T, err
			}
		}
		T.Frames = append(T.Frames, f)
	}
}

//plainField returns the unquoted value of key in an extxyz metadata line,
//or the empty string.
func plainField(line, key string) string {
	for _, tok := range strings.Fields(line) {
		if strings.HasPrefix(tok, key+"=") {
			return tok[len(key)+1:]
		}
	}
	return ""
}

//quotedField returns the content between the quotes of key="..." in an
//extxyz metadata line, or the empty string.
func quotedField(line, key string) string {
	mark := key + "=\""
	i := strings.Index(line, mark)
	if i < 0 {
		return ""
	}
	rest := line[i+len(mark):]
	j := strings.Index(rest, "\"")
	if j < 0 {
		return ""
	}
	return rest[:j]
}

//parseFloats parses s into exactly want floats, or returns nil.
func parseFloats(s string, want int) []float64 {
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) != want {
		log.Printf("gocp2k: expected %d components, got %d in %q", want, len(fields), s)
		return nil
	}
	v := make([]float64, want)
	for i, f := range fields {
		p, err := strconv.ParseFloat(f, 64)
		if err != nil {
			log.Printf("gocp2k: non-numeric component %q", f)
			return nil
		}
		v[i] = p
	}
	return v
}

//Compression is selected by file suffix, so merged trajectories can go
//straight into an archive without a separate step.

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressedWriter(f *os.File, name string) (io.WriteCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case ".gz":
		return gzip.NewWriterLevel(f, gzip.BestCompression)
	case ".flate":
		return flate.NewWriter(f, flateLevel)
	default:
		return nopWriteCloser{f}, nil
	}
}

//zstd's Decoder does not implement io.ReadCloser, so we wrap its
//func-returning Close.
type zstdReadCloser struct {
	closef func()
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.closef()
	return nil
}

func compressedReader(f *os.File, name string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		r, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{r.Close, r}, nil
	case ".gz":
		return gzip.NewReader(f)
	case ".flate":
		return flate.NewReader(f), nil
	default:
		return io.NopCloser(f), nil
	}
}
