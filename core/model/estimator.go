// Package model はモデル共通のインターフェースと学習状態の管理を提供します。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測ラベルを n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbabilisticPredictor はクラス確率を推定できるモデルのインターフェース
type ProbabilisticPredictor interface {
	// PredictProba は n×nClasses の確率行列を返す。列の順序は Classes() に従う
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は分類器の共通インターフェース。
// ロジスティック回帰、SVC、ランダムフォレストが実装する。
type Classifier interface {
	Fitter
	Predictor
	ProbabilisticPredictor

	// Classes は学習時に観測したクラスラベルを昇順で返す
	Classes() []int
}
