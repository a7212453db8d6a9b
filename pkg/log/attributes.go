// Package log defines standard attribute keys for training and inference logs.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so that log lines from the trainer, the predictor and the CLIs can be
// filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "GradientDescent", "MinMaxScaler", "Predictor"
	ModelNameKey = "model.name"

	// RunIDKey identifies one training or inference run (a UUID).
	RunIDKey = "run.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// HouseKey names the house a one-vs-all run is trained for.
	HouseKey = "ml.house"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// PathKey is the file a dataset, weights table or report was read from or written to.
	PathKey = "data.path"
)

// Performance and training metrics
const (
	DurationMsKey = "perf.duration_ms"

	AccuracyKey = "metrics.accuracy"

	// LossKey is the binary cross-entropy cost sampled at a checkpoint.
	LossKey = "metrics.loss"

	// InitialLossKey is the cost recorded at the first checkpoint of a run.
	InitialLossKey = "metrics.initial_loss"

	IterationKey = "training.iteration"

	IterationsKey = "training.iterations"

	LearningRateKey = "hyperparams.learning_rate"
)

// Prediction attributes
const (
	PredsKey = "preds.count"

	// UnmatchedKey counts samples no house claimed.
	UnmatchedKey = "preds.unmatched"

	ThresholdKey = "preds.threshold"

	PolicyKey = "preds.policy"
)

// Error context
const (
	ErrorKey = "error"

	StacktraceKey = "error.stacktrace"
)

// Standard values
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationEvaluate  = "evaluate"
	OperationDescribe  = "describe"
	OperationPlot      = "plot"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhaseEvaluation    = "evaluation"
	PhasePreprocessing = "preprocessing"
)
