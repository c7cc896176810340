package cp2k

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

//normalEqResidual returns max_k |Cᵗ(C·x - E)|_k, which must be ~0 for a
//least-squares solution.
func normalEqResidual(C *mat.Dense, x, E []float64) float64 {
	n, s := C.Dims()
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = -E[i]
		for j := 0; j < s; j++ {
			r[i] += C.At(i, j) * x[j]
		}
	}
	worst := 0.0
	for j := 0; j < s; j++ {
		var v float64
		for i := 0; i < n; i++ {
			v += C.At(i, j) * r[i]
		}
		if math.Abs(v) > worst {
			worst = math.Abs(v)
		}
	}
	return worst
}

func singleSpeciesTraj(counts []int, energies []float64) *Trajectory {
	T := &Trajectory{}
	for i, n := range counts {
		f := &Frame{Energy: energies[i]}
		for j := 0; j < n; j++ {
			f.Atoms = append(f.Atoms, &Atom{Symbol: "H"})
		}
		T.Frames = append(T.Frames, f)
	}
	return T
}

func TestShiftEnergiesSingleSpecies(Te *testing.T) {
	T := singleSpeciesTraj([]int{2, 3, 4}, []float64{-27.0, -40.6, -54.1})
	ref, shifted := T.ShiftEnergies()
	if len(ref.Species) != 1 || ref.Species[0] != "H" {
		Te.Fatalf("wrong species set: %v", ref.Species)
	}
	C := mat.NewDense(3, 1, []float64{2, 3, 4})
	E := []float64{-27.0, -40.6, -54.1}
	if r := normalEqResidual(C, []float64{ref.Energy["H"]}, E); r > 1e-9 {
		Te.Errorf("solution does not satisfy the normal equations: residual %g", r)
	}
	for i, v := range shifted {
		want := E[i] - C.At(i, 0)*ref.Energy["H"]
		if math.Abs(v-want) > 1e-12 {
			Te.Errorf("shifted energy %d: got %g, want %g", i, v, want)
		}
	}
}

func TestShiftEnergiesUniformCompositionMeanZero(Te *testing.T) {
	//uniform single-species composition: the fit absorbs the whole mean,
	//so the shifted energies must average to zero
	T := singleSpeciesTraj([]int{4, 4, 4, 4}, []float64{-54.0, -54.2, -53.9, -54.1})
	ref, _ := T.ShiftEnergies()
	if math.Abs(ref.ResidualMean) > 1e-12 {
		Te.Errorf("expected zero mean shifted energy, got %g", ref.ResidualMean)
	}
	if ref.ResidualMax > 0.3 {
		Te.Errorf("shifted energies should have small dynamic range, max abs is %g", ref.ResidualMax)
	}
}

func TestShiftEnergiesRankDeficient(Te *testing.T) {
	//two species in a fixed 1:2 ratio: the composition matrix has rank 1
	T := &Trajectory{}
	energies := []float64{-30.0, -30.2, -29.9}
	for _, e := range energies {
		T.Frames = append(T.Frames, &Frame{
			Atoms:  atoms("O", "H", "H"),
			Energy: e,
		})
	}
	ref, shifted := T.ShiftEnergies()
	if len(shifted) != 3 {
		Te.Fatalf("expected a solution despite rank deficiency, got %d shifted energies", len(shifted))
	}
	//the heuristic constraint sets adjacent species energies equal
	if math.Abs(ref.Energy["H"]-ref.Energy["O"]) > 1e-9 {
		Te.Errorf("equality constraint not honored: H=%g O=%g", ref.Energy["H"], ref.Energy["O"])
	}
	//x_H = x_O = x, 3x ≈ mean(E) in least squares over the original rows
	//plus the zero-residual constraint row
	if ref.Energy["H"] > 0 || ref.Energy["H"] < -11 || math.IsNaN(ref.Energy["H"]) {
		Te.Errorf("implausible per-species energy: %g", ref.Energy["H"])
	}
}

func TestSyntheticConstraintsRestoreRank(Te *testing.T) {
	//fixed-ratio composition: rank 1 out of 2
	C := mat.NewDense(3, 2, []float64{1, 2, 1, 2, 1, 2})
	if r := matrixRank(C); r != 1 {
		Te.Fatalf("expected rank 1 before augmentation, got %d", r)
	}
	aug := mat.NewDense(4, 2, []float64{1, 2, 1, 2, 1, 2, 1, -1})
	if r := matrixRank(aug); r != 2 {
		Te.Errorf("expected full rank 2 after augmentation, got %d", r)
	}
}

func TestShiftEnergiesNoAtoms(Te *testing.T) {
	//frames that parsed fine but contain no atoms: no model to fit, the
	//energies must come back unshifted instead of crashing the solve
	T := &Trajectory{Frames: []*Frame{{Energy: -1.0}, {Energy: -2.0}}}
	ref, shifted := T.ShiftEnergies()
	if len(ref.Species) != 0 || len(ref.Energy) != 0 {
		Te.Errorf("expected an empty model for an atom-less trajectory, got %+v", ref)
	}
	if len(shifted) != 2 || shifted[0] != -1.0 || shifted[1] != -2.0 {
		Te.Errorf("energies should pass through unshifted, got %v", shifted)
	}
	if ref.ResidualMean != -1.5 || ref.ResidualMax != 2.0 {
		Te.Errorf("wrong residual statistics: mean %g, max %g", ref.ResidualMean, ref.ResidualMax)
	}
}

func TestShiftEnergiesDegenerate(Te *testing.T) {
	ref, shifted := (&Trajectory{}).ShiftEnergies()
	if shifted != nil || len(ref.Energy) != 0 {
		Te.Errorf("empty trajectory should yield an empty model, got %+v, %v", ref, shifted)
	}
	//a single frame is still solvable
	T := singleSpeciesTraj([]int{2}, []float64{-1.0})
	ref, shifted = T.ShiftEnergies()
	if len(shifted) != 1 || math.Abs(ref.Energy["H"]+0.5) > 1e-12 {
		Te.Errorf("single-frame solve: got %v, %v", ref.Energy, shifted)
	}
}
