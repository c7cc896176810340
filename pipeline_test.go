package cp2k

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(Te *testing.T, name, content string) string {
	Te.Helper()
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		Te.Fatal(err)
	}
	return name
}

const e2ePos = ` 3
 i = 1, time = 0.000, E = -17.16
 O 10.0 10.0 10.0
 H 10.75 10.0 10.0
 H  9.25 10.0 10.0
 3
 i = 2, time = 0.500, E = -17.17
 O 10.0 10.1 10.0
 H 10.76 10.0 10.0
 H  9.24 10.0 10.0
`

const e2eFrc = ` 3
 i = 1, time = 0.000, E = -17.16
  1  0.01  0.00 -0.01
  2 -0.01  0.00  0.00
  3  0.00  0.00  0.01
 3
 i = 2, time = 0.500, E = -17.17
  1  0.02  0.00 -0.01
  2 -0.02  0.00  0.00
  3  0.00  0.00  0.01
`

const e2eCell = `# Step Time Ax Ay Az Bx By Bz Cx Cy Cz Volume
 1 0.000 20.0 0.0 0.0 0.0 20.0 0.0 0.0 0.0 20.0 8000.0
 2 0.500 20.0 0.0 0.0 0.0 20.0 0.0 0.0 0.0 20.0 8000.0
`

func TestMergeEndToEnd(Te *testing.T) {
	dir := Te.TempDir()
	opts := Options{
		PosFile:  writeFile(Te, filepath.Join(dir, "water-pos-1.xyz"), e2ePos),
		FrcFile:  writeFile(Te, filepath.Join(dir, "water-frc-1.xyz"), e2eFrc),
		CellFile: writeFile(Te, filepath.Join(dir, "water.cell"), e2eCell),
		OutFile:  filepath.Join(dir, "original-stress.extxyz"),
	}
	T, ref, err := Merge(opts)
	if err != nil {
		Te.Fatal(err)
	}
	if ref != nil {
		Te.Error("no shift requested, but a reference model was fitted")
	}
	if T.Len() != 2 {
		Te.Fatalf("expected 2 merged frames, got %d", T.Len())
	}
	content, err := os.ReadFile(opts.OutFile)
	if err != nil {
		Te.Fatal(err)
	}
	s := string(content)
	if c := strings.Count(s, "energy="); c != 2 {
		Te.Errorf("expected 2 frames in the output, found %d metadata lines", c)
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) != 2*(2+3) {
		Te.Errorf("expected %d lines (2 frames of 3 atoms), got %d", 2*(2+3), len(lines))
	}
	//force columns present: 7 fields per atom line
	if fields := strings.Fields(lines[2]); len(fields) != 7 {
		Te.Errorf("expected species + 3 positions + 3 forces per atom line, got %d fields", len(fields))
	}
	if strings.Contains(s, "stress=") || strings.Contains(s, ":stress:R:9") {
		Te.Error("no stress input given, but the output carries stress")
	}
	want := -17.16 * H2EV
	got, err := ReadExtXYZ(opts.OutFile)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(got.Frame(0).Energy-want) > 1e-6 {
		Te.Errorf("energy in output not converted to eV: got %f, want %f", got.Frame(0).Energy, want)
	}
}

const shiftPos = ` 2
 i = 1
 H 0.0 0.0 0.0
 H 0.75 0.0 0.0
 2
 i = 2
 H 0.0 0.1 0.0
 H 0.76 0.0 0.0
`

const shiftFrc = ` 2
 i = 1, E = -1.10
  1 0.0 0.0 0.0
  2 0.0 0.0 0.0
 2
 i = 2, E = -1.12
  1 0.0 0.0 0.0
  2 0.0 0.0 0.0
`

func TestMergeShifted(Te *testing.T) {
	dir := Te.TempDir()
	opts := Options{
		PosFile:     writeFile(Te, filepath.Join(dir, "h2-pos-1.xyz"), shiftPos),
		FrcFile:     writeFile(Te, filepath.Join(dir, "h2-frc-1.xyz"), shiftFrc),
		CellFile:    writeFile(Te, filepath.Join(dir, "h2.cell"), e2eCell),
		Shifted:     true,
		OutFile:     filepath.Join(dir, "original-stress.extxyz"),
		ShiftedFile: filepath.Join(dir, "shifted.xyz"),
	}
	_, ref, err := Merge(opts)
	if err != nil {
		Te.Fatal(err)
	}
	if ref == nil {
		Te.Fatal("shift requested but no model returned")
	}
	//uniform single-species composition: full column rank, so the fit
	//absorbs the mean exactly
	if math.Abs(ref.ResidualMean) > 1e-9 {
		Te.Errorf("expected ~zero mean shifted energy, got %g", ref.ResidualMean)
	}
	for _, name := range []string{opts.OutFile, opts.ShiftedFile} {
		if _, err := os.Stat(name); err != nil {
			Te.Errorf("%s not produced: %v", name, err)
		}
	}
	S, err := ReadExtXYZ(opts.ShiftedFile)
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 2 {
		Te.Fatalf("shifted trajectory has %d frames, want 2", S.Len())
	}
	if math.Abs(S.Frame(0).Energy+S.Frame(1).Energy) > 1e-6 {
		Te.Errorf("shifted energies should be centered on zero: %g, %g", S.Frame(0).Energy, S.Frame(1).Energy)
	}
}

func TestMergeMissingInputIsFatal(Te *testing.T) {
	dir := Te.TempDir()
	_, _, err := Merge(Options{
		PosFile:  filepath.Join(dir, "nope-pos-1.xyz"),
		FrcFile:  filepath.Join(dir, "nope-frc-1.xyz"),
		CellFile: filepath.Join(dir, "nope.cell"),
	})
	if err == nil {
		Te.Fatal("missing required input must be fatal")
	}
	terr, ok := err.(TrajError)
	if !ok || !terr.Critical() {
		Te.Errorf("missing input should surface as a critical TrajError, got %T", err)
	}
}

func TestGlobResolver(Te *testing.T) {
	dir := Te.TempDir()
	if _, _, _, _, err := GlobResolver(dir)(); err == nil {
		Te.Error("empty directory should fail default discovery")
	}
	writeFile(Te, filepath.Join(dir, "a-pos-1.xyz"), e2ePos)
	writeFile(Te, filepath.Join(dir, "a-frc-1.xyz"), e2eFrc)
	writeFile(Te, filepath.Join(dir, "a.cell"), e2eCell)
	pos, frc, cell, stress, err := GlobResolver(dir)()
	if err != nil {
		Te.Fatal(err)
	}
	if pos == "" || frc == "" || cell == "" {
		Te.Error("required inputs not discovered")
	}
	if stress != "" {
		Te.Error("no stress file present, discovery should return an empty path")
	}
	//a second candidate makes the pattern ambiguous, which must be fatal
	writeFile(Te, filepath.Join(dir, "b-pos-1.xyz"), e2ePos)
	if _, _, _, _, err := GlobResolver(dir)(); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		Te.Errorf("ambiguous defaults should fail with a clear message, got %v", err)
	}
}
