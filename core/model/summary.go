package model

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// HouseSummary は1つの家の学習結果
type HouseSummary struct {
	House       string  `json:"house"`
	Accuracy    float64 `json:"accuracy"`
	InitialCost float64 `json:"initial_cost"`
	FinalCost   float64 `json:"final_cost"`
	Checkpoints int     `json:"checkpoints"`
}

// TrainingSummary は1回の学習の記録。重みと一緒に保存される。
type TrainingSummary struct {
	RunID        string         `json:"run_id"`
	Dataset      string         `json:"dataset"`
	Iterations   int            `json:"iterations"`
	LearningRate float64        `json:"learning_rate"`
	Samples      int            `json:"samples"`
	Features     []string       `json:"features"`
	Houses       []HouseSummary `json:"houses"`
	DurationMs   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

// MeanAccuracy は家ごとの自己申告精度の平均を返す
func (s *TrainingSummary) MeanAccuracy() float64 {
	if len(s.Houses) == 0 {
		return 0
	}
	var total float64
	for _, h := range s.Houses {
		total += h.Accuracy
	}
	return total / float64(len(s.Houses))
}

// WriteJSON はインデント付きJSONとして書き出す
func (s *TrainingSummary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "encode training summary")
}

// SaveSummary はサマリーをアトミックに保存する
func SaveSummary(s *TrainingSummary, path string) error {
	return WriteFileAtomic(path, s.WriteJSON)
}

// LoadSummary は保存済みのサマリーを読み込む
func LoadSummary(path string) (*TrainingSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open summary %s", path)
	}
	defer f.Close()

	var s TrainingSummary
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "decode summary %s", path)
	}
	return &s, nil
}
