package svm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func makeBlobs(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		X.Set(i, 0, 2*label+rng.NormFloat64()*0.7)
		X.Set(i, 1, -2*label+rng.NormFloat64()*0.7)
		y.Set(i, 0, label)
	}
	return X, y
}

func TestSolveSMO_TwoPoints(t *testing.T) {
	// x = -1 (class -1), x = +1 (class +1), linear kernel.
	// The maximal margin solution has alpha = 0.5 for both and rho = 0.
	K := mat.NewDense(2, 2, []float64{1, -1, -1, 1})
	res := solveSMO(K.RawRowView, []float64{-1, 1}, 10, 1e-3, 100)

	if !res.converged {
		t.Fatal("solver did not converge")
	}
	for i, a := range res.alpha {
		if math.Abs(a-0.5) > 1e-9 {
			t.Errorf("alpha[%d] = %v, want 0.5", i, a)
		}
	}
	if math.Abs(res.rho) > 1e-9 {
		t.Errorf("rho = %v, want 0", res.rho)
	}
}

func TestSolveSMO_Constraints(t *testing.T) {
	X, y := makeBlobs(80, 7)
	ySigned := make([]float64, 80)
	for i := range ySigned {
		ySigned[i] = 2*y.At(i, 0) - 1
	}
	K := gramMatrix(X, X, rbfKernel(0.5), 1)

	const C = 1.0
	res := solveSMO(K.RawRowView, ySigned, C, 1e-3, 100000)
	if !res.converged {
		t.Fatal("solver did not converge")
	}

	sum := 0.0
	for i, a := range res.alpha {
		if a < 0 || a > C {
			t.Errorf("alpha[%d] = %v outside [0, %v]", i, a, C)
		}
		sum += a * ySigned[i]
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("sum(alpha*y) = %v, want 0", sum)
	}
}

func TestResolveGamma(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 0, 2, 2})

	tests := []struct {
		name    string
		mode    string
		value   float64
		want    float64
		wantErr bool
	}{
		{"scale", "scale", 0, 0.5, false},
		{"auto", "auto", 0, 0.5, false},
		{"value", "value", 0.1, 0.1, false},
		{"non-positive value", "value", 0, 0, true},
		{"unknown mode", "bogus", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveGamma(tt.mode, tt.value, X)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveGamma() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("resolveGamma() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSigmoidTrain_Symmetric(t *testing.T) {
	dec := []float64{-2, -1, 1, 2}
	positive := []bool{false, false, true, true}

	A, B := sigmoidTrain(dec, positive)
	if A >= 0 {
		t.Errorf("A = %v, want negative so that larger decisions mean higher probability", A)
	}
	if math.Abs(B) > 1e-9 {
		t.Errorf("B = %v, want 0 for symmetric input", B)
	}
	if p := sigmoidPredict(0, A, B); math.Abs(p-0.5) > 1e-9 {
		t.Errorf("P(0) = %v, want 0.5", p)
	}
	if sigmoidPredict(2, A, B) <= sigmoidPredict(1, A, B) {
		t.Error("sigmoid is not increasing in the decision value")
	}
}

func TestSVC_FitPredict(t *testing.T) {
	X, y := makeBlobs(200, 1)
	XTest, yTest := makeBlobs(100, 2)

	svc := NewSVC()
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(svc.Support()) == 0 {
		t.Fatal("no support vectors")
	}

	predictions, err := svc.Predict(XTest)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	correct := 0
	for i := 0; i < 100; i++ {
		if predictions.At(i, 0) == yTest.At(i, 0) {
			correct++
		}
	}
	if acc := float64(correct) / 100; acc < 0.9 {
		t.Errorf("accuracy = %v, want >= 0.9", acc)
	}

	dec, err := svc.DecisionFunction(XTest)
	if err != nil {
		t.Fatalf("DecisionFunction() error = %v", err)
	}
	for i := 0; i < 100; i++ {
		want := 0.0
		if dec.At(i, 0) > 0 {
			want = 1
		}
		if predictions.At(i, 0) != want {
			t.Fatalf("row %d: prediction %v disagrees with decision %v", i, predictions.At(i, 0), dec.At(i, 0))
		}
	}
}

func TestSVC_LinearKernel(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y := mat.NewDense(4, 1, []float64{3, 3, 7, 7})

	svc := NewSVC(WithSVCKernel("linear"), WithSVCC(10))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := svc.Predict(mat.NewDense(2, 1, []float64{-5, 5}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 3 || pred.At(1, 0) != 7 {
		t.Errorf("Predict() = [%v %v], want [3 7]", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestSVC_PredictProba(t *testing.T) {
	X, y := makeBlobs(150, 3)

	svc := NewSVC(WithSVCProbability(true), WithSVCRandomState(42))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	probas, err := svc.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 150 || cols != 2 {
		t.Fatalf("PredictProba() dims = (%d, %d), want (150, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		p0, p1 := probas.At(i, 0), probas.At(i, 1)
		if p0 < 0 || p0 > 1 || p1 < 0 || p1 > 1 {
			t.Fatalf("row %d: probabilities out of range: %v %v", i, p0, p1)
		}
		if math.Abs(p0+p1-1) > 1e-12 {
			t.Fatalf("row %d: probabilities sum to %v", i, p0+p1)
		}
	}
}

func TestSVC_Deterministic(t *testing.T) {
	X, y := makeBlobs(120, 5)

	fit := func(jobs int) mat.Matrix {
		svc := NewSVC(WithSVCProbability(true), WithSVCRandomState(7), WithSVCNJobs(jobs))
		if err := svc.Fit(X, y); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		p, err := svc.PredictProba(X)
		if err != nil {
			t.Fatalf("PredictProba() error = %v", err)
		}
		return p
	}

	ref := fit(1)
	for _, jobs := range []int{1, 2, 4} {
		if got := fit(jobs); !mat.Equal(ref, got) {
			t.Errorf("n_jobs=%d: probabilities differ from the sequential fit", jobs)
		}
	}
}

func TestSVC_Errors(t *testing.T) {
	X, y := makeBlobs(40, 9)

	svc := NewSVC()
	if _, err := svc.Predict(X); err == nil {
		t.Error("Predict() before Fit should fail")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %T", err)
		}
	}

	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := svc.PredictProba(X); err == nil {
		t.Error("PredictProba() without probability estimates should fail")
	}
	if _, err := svc.Predict(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("Predict() with wrong feature count should fail")
	}

	multi := mat.NewDense(3, 1, []float64{0, 1, 2})
	if err := NewSVC().Fit(mat.NewDense(3, 2, []float64{0, 0, 1, 1, 2, 2}), multi); err == nil {
		t.Error("Fit() with three classes should fail")
	}
	if err := NewSVC(WithSVCC(-1)).Fit(X, y); err == nil {
		t.Error("Fit() with negative C should fail")
	}
}

func TestSVC_Params(t *testing.T) {
	svc := NewSVC()
	params := svc.GetParams()
	if params["C"] != 1.0 || params["kernel"] != "rbf" || params["gamma"] != "scale" {
		t.Errorf("unexpected defaults: %v", params)
	}

	if err := svc.SetParams(map[string]interface{}{"gamma": 0.25, "probability": true}); err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	if got := svc.GetParams()["gamma"]; got != 0.25 {
		t.Errorf("gamma = %v, want 0.25", got)
	}
	if err := svc.SetParams(map[string]interface{}{"degree": 3}); err == nil {
		t.Error("SetParams() with unknown key should fail")
	}
	if err := svc.SetParams(map[string]interface{}{"C": "big"}); err == nil {
		t.Error("SetParams() with wrong type should fail")
	}
}
