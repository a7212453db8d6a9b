// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 入力検証、スキーマ不一致、数値発散などの構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("sortinghat-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DataConversionWarning はデータが暗黙的に変換された場合に発生する警告です。
// 欠損値の0埋めや、正規化境界の再計算などで使われます。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("sortinghat: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("sortinghat: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sortinghat: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("sortinghat: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sortinghat: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sortinghat: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// InputValidationError はユーザー入力（引数の数、ファイルの存在、拡張子、必須カラム）が
// 不正な場合のエラーです。計算を始める前に検出されます。
type InputValidationError struct {
	Input  string // 問題のある入力（ファイルパスや引数名）
	Reason string
	Hint   string // ユーザー向けの対処方法（オプション）
}

func (e *InputValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("sortinghat: invalid input %q: %s (%s)", e.Input, e.Reason, e.Hint)
	}
	return fmt.Sprintf("sortinghat: invalid input %q: %s", e.Input, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InputValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("input", e.Input).
		Str("reason", e.Reason).
		Str("hint", e.Hint).
		Str("type", "InputValidationError")
}

// NewInputValidationError は新しいInputValidationErrorを作成し、スタックトレースを付与します。
func NewInputValidationError(input, reason, hint string) error {
	err := &InputValidationError{Input: input, Reason: reason, Hint: hint}
	return errors.WithStack(err)
}

// SchemaError はデータセットと重みファイルの特徴量スキーマが一致しない場合のエラーです。
// 学習時と推論時の特徴量の数・順序の不一致を、スコア計算の前に検出します。
type SchemaError struct {
	Source   string   // "weights", "bounds", "dataset"
	Reason   string
	Expected []string // 期待される特徴量（またはカラム）
	Got      []string // 実際の特徴量（またはカラム）
}

func (e *SchemaError) Error() string {
	if len(e.Expected) == 0 && len(e.Got) == 0 {
		return fmt.Sprintf("sortinghat: schema mismatch in %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("sortinghat: schema mismatch in %s: %s. Expected %v, got %v",
		e.Source, e.Reason, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Str("reason", e.Reason).
		Strs("expected", e.Expected).
		Strs("got", e.Got).
		Str("type", "SchemaError")
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(source, reason string, expected, got []string) error {
	err := &SchemaError{Source: source, Reason: reason, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// NumericalDivergenceError は学習中にサンプリングしたコストが未定義（NaN/Inf）になった場合のエラーです。
// そのカテゴリの学習は致命的に失敗し、部分的な重みは保存されません。
type NumericalDivergenceError struct {
	Operation string // 発生した操作（例: "cost"）
	Category  string // 学習対象のカテゴリ（未設定の場合は空）
	Iteration int    // 発生したイテレーション番号
	Value     float64
}

func (e *NumericalDivergenceError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("sortinghat: numerical divergence in %s for %s at iteration %d (value: %g)",
			e.Operation, e.Category, e.Iteration, e.Value)
	}
	return fmt.Sprintf("sortinghat: numerical divergence in %s at iteration %d (value: %g)",
		e.Operation, e.Iteration, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalDivergenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("category", e.Category).
		Int("iteration", e.Iteration).
		Float64("value", e.Value).
		Str("type", "NumericalDivergenceError")
}

// NewNumericalDivergenceError は新しいNumericalDivergenceErrorを作成し、スタックトレースを付与します。
func NewNumericalDivergenceError(operation string, iteration int, value float64) error {
	err := &NumericalDivergenceError{Operation: operation, Iteration: iteration, Value: value}
	return errors.WithStack(err)
}

// WithCategory は err が NumericalDivergenceError を含む場合、カテゴリ名を設定します。
// 他のエラーはそのまま返します。
func WithCategory(err error, category string) error {
	var div *NumericalDivergenceError
	if errors.As(err, &div) {
		div.Category = category
	}
	return err
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
