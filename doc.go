// Package prognosis benchmarks three classifiers on a synthetic
// colorectal-cancer prognosis cohort.
//
// A cohort of patients is generated with age, CEA level and KRAS/BRAF
// mutation status, labelled by a noisy linear score, and split into
// stratified train and test sets. A logistic regression, an RBF support
// vector machine with Platt-scaled probabilities and a random forest are
// trained and compared on the test set by accuracy, precision, recall, F1
// and ROC AUC. The ROC curves are rendered to a PNG figure.
//
// # Quick Start
//
// Run the benchmark with the reference settings:
//
//	go run ./cmd/prognosis
//
// which prints one block per model
//
//	Métricas modelo Regresión Logística:
//	Accuracy: 0.83
//	...
//
// and writes CurvasRoc.png. Use -h for the available flags.
//
// The estimators can also be used directly:
//
//	svc := svm.NewSVC(svm.WithSVCProbability(true), svm.WithSVCRandomState(42))
//	if err := svc.Fit(split.XTrain, split.YTrain); err != nil {
//	    log.Fatal(err)
//	}
//	proba, err := svc.PredictProba(split.XTest)
//
// # Packages
//
//   - dataset: synthetic cohort generator and table
//   - sklearn/model_selection: stratified train/test split
//   - sklearn/linear_model: LogisticRegression (L-BFGS)
//   - sklearn/svm: SVC (SMO solver, Platt scaling)
//   - sklearn/tree, sklearn/ensemble: DecisionTreeClassifier, RandomForestClassifier
//   - preprocessing: StandardScaler
//   - metrics: classification metrics, ROC curve and AUC
//   - plotting: ROC figure rendering with gonum/plot
//   - pipeline: the end-to-end benchmark
//   - core/model, core/parallel: estimator interfaces, state and worker fan-out
//   - pkg/errors, pkg/log: structured errors, warnings and zerolog logging
//
// # scikit-learn Compatibility
//
// Estimators follow scikit-learn defaults and naming (GetParams/SetParams
// keys, trailing underscore fitted attributes) so results can be compared
// with the Python reference.
package prognosis
