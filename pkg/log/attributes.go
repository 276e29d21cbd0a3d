// Standard attribute keys used across pipeline logging. Keys follow a
// hierarchical naming convention ("data.rows", "model.auc") so runs can be
// filtered and compared from their logs.
package log

// Pipeline context.
const (
	// ComponentKey identifies the package or stage emitting the record.
	// Examples: "pipeline", "preprocessing.imputer", "boosting.trainer"
	ComponentKey = "component"

	// StageKey names the pipeline stage being executed.
	// Examples: "normalize", "impute", "encode", "train", "evaluate", "export"
	StageKey = "pipeline.stage"

	// ColumnKey names the table column an operation concerns.
	ColumnKey = "table.column"
)

// Data shape.
const (
	// RowsKey is the number of rows of the table or matrix being processed.
	RowsKey = "data.rows"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// MissingCellsKey is the number of missing cells touched by a stage.
	MissingCellsKey = "data.missing_cells"

	// DroppedColumnsKey is the number of columns removed by normalization.
	DroppedColumnsKey = "data.dropped_columns"
)

// Model metrics and hyperparameters.
const (
	// AUCKey is the area under the ROC curve on the evaluation subset.
	AUCKey = "model.auc"

	// ShrinkageKey is the boosting learning rate.
	ShrinkageKey = "model.shrinkage"

	// TreesKey is the boosting iteration count.
	TreesKey = "model.trees"

	// DepthKey is the per-tree depth limit.
	DepthKey = "model.depth"

	// DurationMsKey is the wall time of an operation in milliseconds.
	DurationMsKey = "duration_ms"
)

// Error context.
const (
	// ErrAttrKey carries an error value; ErrFmtHandler expands its stack.
	ErrAttrKey = "error"

	// StacktraceAttrKey carries the stack trace extracted from an error.
	StacktraceAttrKey = "stacktrace"
)
