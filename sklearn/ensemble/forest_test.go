package ensemble

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// makeBlobs returns two noisy clusters in 3 dimensions; only the first two
// features carry signal.
func makeBlobs(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		X.Set(i, 0, 2*label+rng.NormFloat64()*0.6)
		X.Set(i, 1, -2*label+rng.NormFloat64()*0.6)
		X.Set(i, 2, rng.NormFloat64())
		y.Set(i, 0, label)
	}
	return X, y
}

func TestRandomForestClassifier_FitPredict(t *testing.T) {
	X, y := makeBlobs(200, 1)
	XTest, yTest := makeBlobs(100, 2)

	rf := NewRandomForestClassifier(WithRFNEstimators(25), WithRFRandomState(42))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := rf.Predict(XTest)
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
		t.Errorf("accuracy on well separated blobs = %v, want >= 0.9", acc)
	}

	if len(rf.Estimators()) != 25 {
		t.Errorf("got %d estimators, want 25", len(rf.Estimators()))
	}
}

func TestRandomForestClassifier_PredictProba(t *testing.T) {
	X, y := makeBlobs(120, 3)

	rf := NewRandomForestClassifier(WithRFNEstimators(10), WithRFRandomState(0))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	probas, err := rf.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 120 || cols != 2 {
		t.Fatalf("PredictProba() shape = (%d, %d), want (120, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		p0, p1 := probas.At(i, 0), probas.At(i, 1)
		if p0 < 0 || p0 > 1 || p1 < 0 || p1 > 1 {
			t.Errorf("row %d: probabilities out of range: %v, %v", i, p0, p1)
		}
		if math.Abs(p0+p1-1) > 1e-9 {
			t.Errorf("row %d: probabilities sum to %v", i, p0+p1)
		}
	}
}

// TestRandomForestClassifier_DeterministicAcrossWorkers checks that the same
// random state gives the same forest whatever the number of workers.
func TestRandomForestClassifier_DeterministicAcrossWorkers(t *testing.T) {
	X, y := makeBlobs(150, 4)

	fit := func(nJobs int) *mat.Dense {
		rf := NewRandomForestClassifier(
			WithRFNEstimators(20),
			WithRFRandomState(42),
			WithRFNJobs(nJobs),
		)
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Fit(nJobs=%d) error = %v", nJobs, err)
		}
		probas, err := rf.PredictProba(X)
		if err != nil {
			t.Fatalf("PredictProba() error = %v", err)
		}
		return mat.DenseCopyOf(probas)
	}

	sequential := fit(1)
	for _, nJobs := range []int{2, 4, -1} {
		if !mat.Equal(sequential, fit(nJobs)) {
			t.Errorf("nJobs=%d produced a different forest", nJobs)
		}
	}

	other := NewRandomForestClassifier(WithRFNEstimators(20), WithRFRandomState(7))
	if err := other.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	p, _ := other.PredictProba(X)
	if mat.Equal(sequential, p) {
		t.Error("different random states should give different forests")
	}
}

func TestRandomForestClassifier_FeatureImportances(t *testing.T) {
	X, y := makeBlobs(200, 5)

	rf := NewRandomForestClassifier(WithRFNEstimators(30), WithRFRandomState(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	imp, err := rf.FeatureImportances()
	if err != nil {
		t.Fatalf("FeatureImportances() error = %v", err)
	}
	if len(imp) != 3 {
		t.Fatalf("got %d importances, want 3", len(imp))
	}
	sum := imp[0] + imp[1] + imp[2]
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances sum to %v, want 1", sum)
	}
	if imp[2] >= imp[0] || imp[2] >= imp[1] {
		t.Errorf("noise feature should be least important: %v", imp)
	}
}

func TestRandomForestClassifier_Errors(t *testing.T) {
	X, y := makeBlobs(20, 6)

	rf := NewRandomForestClassifier()
	if _, err := rf.Predict(X); err == nil {
		t.Error("Predict before Fit should fail")
	}
	if _, err := rf.PredictProba(X); err == nil {
		t.Error("PredictProba before Fit should fail")
	}

	if err := NewRandomForestClassifier(WithRFMaxFeatures("half")).Fit(X, y); err == nil {
		t.Error("unknown max_features should fail")
	}
	if err := NewRandomForestClassifier(WithRFNEstimators(0)).Fit(X, y); err == nil {
		t.Error("zero estimators should fail")
	}

	single := mat.NewDense(20, 1, nil)
	if err := NewRandomForestClassifier().Fit(X, single); err == nil {
		t.Error("single-class target should fail")
	}
}

func TestRandomForestClassifier_GetSetParams(t *testing.T) {
	rf := NewRandomForestClassifier()
	params := rf.GetParams()
	if params["n_estimators"].(int) != 100 {
		t.Errorf("default n_estimators = %v, want 100", params["n_estimators"])
	}
	if params["max_features"].(string) != "sqrt" {
		t.Errorf("default max_features = %v, want sqrt", params["max_features"])
	}

	if err := rf.SetParams(map[string]interface{}{"n_estimators": 10, "bootstrap": false}); err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	if rf.nEstimators != 10 || rf.bootstrap {
		t.Errorf("SetParams() not applied: n_estimators=%d bootstrap=%v", rf.nEstimators, rf.bootstrap)
	}
	if err := rf.SetParams(map[string]interface{}{"oob_score": true}); err == nil {
		t.Error("unknown parameter should be rejected")
	}
}
