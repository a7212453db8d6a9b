package model

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// WriteFileAtomic は一時ファイルに書き込んでから rename で置き換える。
// 途中で失敗した場合、既存のファイルはそのまま残る。
//
// パラメータ:
//   - path: 保存先のファイルパス
//   - write: 書き込み処理
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	return WriteFilesAtomic(PendingFile{Path: path, Write: write})
}

// PendingFile は WriteFilesAtomic で書き込む1ファイル
type PendingFile struct {
	Path  string
	Write func(w io.Writer) error
}

// WriteFilesAtomic はすべてのファイルを一時ファイルに書き終えてから、
// 引数の順に rename で置き換える。主ファイルは最後に渡すこと。
//
// 書き込み中に失敗した場合、既存のファイルはどれも変更されない。
// rename の途中で失敗した場合、この呼び出しで置き換えたファイルは
// 削除される（新しいサイドカーが古い主ファイルと組にならない）。
func WriteFilesAtomic(files ...PendingFile) error {
	staged := make([]*stagedFile, 0, len(files))
	discard := func(from int) {
		for _, s := range staged[from:] {
			s.discard()
		}
	}

	for _, f := range files {
		s, err := stage(f.Path, f.Write)
		if err != nil {
			discard(0)
			return err
		}
		staged = append(staged, s)
	}

	for i, s := range staged {
		if err := s.commit(); err != nil {
			discard(i)
			for _, done := range staged[:i] {
				_ = os.Remove(done.path)
			}
			return err
		}
	}
	return nil
}

// stagedFile は書き込み済みで rename 待ちの一時ファイル
type stagedFile struct {
	path string
	tmp  string
}

func stage(path string, write func(w io.Writer) error) (*stagedFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, errors.Wrapf(err, "create temporary file for %s", path)
	}
	s := &stagedFile{path: path, tmp: tmp.Name()}

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		s.discard()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		s.discard()
		return nil, errors.Wrapf(err, "close %s", s.tmp)
	}
	return s, nil
}

func (s *stagedFile) commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		return errors.Wrapf(err, "replace %s", s.path)
	}
	return nil
}

func (s *stagedFile) discard() {
	_ = os.Remove(s.tmp)
}

// SaveWeights は重みテーブルをCSVとして保存する（常に全体を書き直す）
//
// 使用例:
//
//	table := model.NewWeightsTable(features)
//	// ... 4つの家のパラメータを Set ...
//	err := model.SaveWeights(table, "weights.csv")
func SaveWeights(table *WeightsTable, path string) error {
	if table == nil {
		return errors.NewValueError("SaveWeights", "nil weights table")
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		return err
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return errors.Wrap(err, "write weights")
	})
}

// LoadWeights はCSVファイルから重みテーブルを読み込む
func LoadWeights(path string) (*WeightsTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open weights %s", path)
	}
	defer f.Close()

	table, err := ReadWeightsCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load weights %s", path)
	}
	return table, nil
}

// BoundsPath は重みファイルに対応する正規化境界ファイルのパスを返す。
// "out/weights.csv" -> "out/weights_bounds.csv"
func BoundsPath(weightsPath string) string {
	return sidecar(weightsPath, "_bounds.csv")
}

// SummaryPath は学習サマリー(JSON)のパスを返す
func SummaryPath(weightsPath string) string {
	return sidecar(weightsPath, "_summary.json")
}

// CostCurvePath はコスト曲線画像のパスを返す
func CostCurvePath(weightsPath string) string {
	return sidecar(weightsPath, "_cost.png")
}

func sidecar(weightsPath, suffix string) string {
	ext := filepath.Ext(weightsPath)
	return strings.TrimSuffix(weightsPath, ext) + suffix
}
