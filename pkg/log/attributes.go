// Standard attribute keys for log records. Keys are dotted so records from
// different components can be filtered by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator.
	// Examples: "LogisticRegression", "SVC", "RandomForestClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the pipeline phase.
	PhaseKey = "ml.phase"

	// RunIDKey tags every record of one benchmark run.
	RunIDKey = "run.id"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct labels.
	ClassesKey = "data.classes"

	// PrevalenceKey is the fraction of positive labels.
	PrevalenceKey = "data.prevalence"
)

// Performance Metrics
const (
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"
	PrecisionKey  = "metrics.precision"
	RecallKey     = "metrics.recall"
	F1Key         = "metrics.f1"
	AUCKey        = "metrics.auc"
	BrierKey      = "metrics.brier"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"
)

// Hyperparameters and Configuration
const (
	HyperParamsKey = "model.hyperparams"
	RandomSeedKey  = "config.random_seed"
	OutputPathKey  = "config.output_path"
	WorkersKey     = "config.workers"
)

// Error Context
const (
	// ErrorTypeKey categorizes the warning or error.
	ErrorTypeKey = "error.type"
)

// Standard attribute value constants.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationPredictProba = "predict_proba"
	OperationGenerate     = "generate"
	OperationSplit        = "split"
	OperationEvaluate     = "evaluate"
	OperationPlot         = "plot"

	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseReporting     = "reporting"
)
