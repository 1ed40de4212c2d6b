package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEps は log(0) を避けるための確率のクリップ幅
const logLossEps = 1e-15

// validatePair は2つのベクトルが空でなく同じ長さであることを検証する
func validatePair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinary はラベルが 0/1 のみであることを検証する
func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

// firstColumn は行列の先頭列をベクトルとして取り出す
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

// Accuracy は正解率を計算する。多クラスラベルにも対応する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// BinaryConfusion は陽性ラベル 1 に対する2値混同行列
type BinaryConfusion struct {
	TP, FP, TN, FN int
}

// BinaryConfusionMatrix は2値ラベルの混同行列を計算する
func BinaryConfusionMatrix(yTrue, yPred *mat.VecDense) (BinaryConfusion, error) {
	var cm BinaryConfusion
	n, err := validatePair("BinaryConfusionMatrix", yTrue, yPred)
	if err != nil {
		return cm, err
	}
	if err := checkBinary("BinaryConfusionMatrix", yTrue); err != nil {
		return cm, err
	}
	if err := checkBinary("BinaryConfusionMatrix", yPred); err != nil {
		return cm, err
	}

	for i := 0; i < n; i++ {
		actual, pred := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1
		switch {
		case actual && pred:
			cm.TP++
		case !actual && pred:
			cm.FP++
		case actual && !pred:
			cm.FN++
		default:
			cm.TN++
		}
	}
	return cm, nil
}

// safeRatio は分母が0のとき UndefinedMetricWarning を発行して0を返す
func safeRatio(metric, condition string, num, den float64) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
		return 0
	}
	return num / den
}

// Precision は陽性ラベル 1 の適合率 TP / (TP + FP) を計算する。
// 陽性の予測が一つもない場合は警告を出して 0 を返す。
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := BinaryConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Precision")
	}
	return safeRatio("precision", "no predicted samples", float64(cm.TP), float64(cm.TP+cm.FP)), nil
}

// Recall は陽性ラベル 1 の再現率 TP / (TP + FN) を計算する。
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := BinaryConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Recall")
	}
	return safeRatio("recall", "no true samples", float64(cm.TP), float64(cm.TP+cm.FN)), nil
}

// F1Score は適合率と再現率の調和平均 2TP / (2TP + FP + FN) を計算する。
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := BinaryConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "F1Score")
	}
	return safeRatio("f-score", "no true nor predicted samples",
		float64(2*cm.TP), float64(2*cm.TP+cm.FP+cm.FN)), nil
}

// AUC はROC曲線下面積を順位統計（Mann-Whitney U）で計算する。
// 同順位のスコアは 0.5 として数える。
// 正例または負例しか存在しない場合は未定義のため警告を出して 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := validatePair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	// 同順位には平均順位を割り当てる
	var nPos, nNeg int
	var rankSumPos float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		midRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue.AtVec(idx[k]) == 1 {
				nPos++
				rankSumPos += midRank
			} else {
				nNeg++
			}
		}
		i = j + 1
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する。先頭列を使用する
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	t, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	s, err := firstColumn("AUCMatrix", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

// BinaryLogLoss は2値分類の対数損失（交差エントロピー）を計算する。
// 確率は [eps, 1-eps] にクリップされる。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := validatePair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProb.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// BrierScore は陽性クラス確率と 0/1 ラベルの平均二乗誤差を計算する
func BrierScore(yTrue, yProb *mat.VecDense) (float64, error) {
	if _, err := validatePair("BrierScore", yTrue, yProb); err != nil {
		return 0, err
	}
	if err := checkBinary("BrierScore", yTrue); err != nil {
		return 0, err
	}
	for i := 0; i < yProb.Len(); i++ {
		if p := yProb.AtVec(i); p < 0 || p > 1 {
			return 0, errors.NewValueError("BrierScore", "probabilities must lie in [0, 1]")
		}
	}
	return MSE(yTrue, yProb)
}
