// Package preprocessing は特徴量の前処理を提供します。
package preprocessing

import (
	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean_ は各特徴量の平均値
	Mean_ []float64

	// Scale_ は各特徴量の母標準偏差。分散が0の列は1になる
	Scale_ []float64

	withMean bool
	withStd  bool
}

// Option はStandardScalerの設定関数
type Option func(*StandardScaler)

// WithMean は平均を引くかどうかを設定する (デフォルト: true)
func WithMean(enabled bool) Option {
	return func(s *StandardScaler) { s.withMean = enabled }
}

// WithStd は標準偏差で割るかどうかを設定する (デフォルト: true)
func WithStd(enabled bool) Option {
	return func(s *StandardScaler) { s.withStd = enabled }
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler()
//	XScaled, err := scaler.FitTransform(XTrain)
//	XTestScaled, err := scaler.Transform(XTest)
func NewStandardScaler(opts ...Option) *StandardScaler {
	s := &StandardScaler{
		state:    model.NewStateManager(),
		withMean: true,
		withStd:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	if X == nil {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean_ = make([]float64, c)
	s.Scale_ = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.withMean {
			s.Mean_[j] = mean
		}
		s.Scale_[j] = 1
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if s.withStd && std > 1e-8 {
			s.Scale_[j] = std
		}
	}

	s.state.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	if err := s.state.CheckFeatures("StandardScaler.Transform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean_[j]) / s.Scale_[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	if err := s.state.CheckFeatures("StandardScaler.InverseTransform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale_[j] + s.Mean_[j]
	}, X)
	return result, nil
}

// GetParams はハイパーパラメータを返す
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.withMean,
		"with_std":  s.withStd,
	}
}

var _ model.Transformer = (*StandardScaler)(nil)
