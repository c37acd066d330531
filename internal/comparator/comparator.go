// 包 comparator 在密文域内做近似的阈值比较。
// CKKS 不支持密文比较，而多项式逼近需要密文间乘法，深度开销不可接受。
// 这里用一次仿射变换得到一个软指示分数：
//
//	score(x) = 0.5 + (x - T)·(0.5/δ)，δ = T/k
//
// 整个运算只有明文-密文乘加，深度为零。
// 线性函数只是阶跃函数的近似：
// 调用方必须按预期输入范围选择灵敏度 k，并把结果当作近似指标使用。
package comparator

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/fhe"
)

// Zone 是解密后分数的置信区间分类
type Zone string

const (
	ZoneBelow     Zone = "below"
	ZoneUncertain Zone = "uncertain"
	ZoneAbove     Zone = "above"
)

// 置信区间边界。这是针对电网利用率范围调出来的策略默认值，
// 不是方案的密码学常量，换场景应当重新调参。
const (
	ZoneBelowBound = 0.3
	ZoneAboveBound = 0.7

	// DefaultSensitivity 约等于 15% 的软区间宽度
	DefaultSensitivity = 7.0
)

// Detector 对单一公开阈值做密文域比较
type Detector struct {
	ctx *fhe.PublicContext

	// Sensitivity 即公式中的 k，越大过渡越陡峭
	Sensitivity float64
}

// Result 是一次密文比较的输出。
// Score 仍是密文，只有 utility 解密后才能分类。
type Result struct {
	Score         *fhe.Ciphertext
	Threshold     float64
	Sensitivity   float64
	SoftZoneWidth float64 // δ = T/k
}

// Interpretation 是 utility 解密分数后的分类结果
type Interpretation struct {
	RawScore   float64
	Zone       Zone
	Confidence float64
}

// NewDetector 返回使用默认灵敏度的比较器
func NewDetector(ctx *fhe.PublicContext) *Detector {
	return &Detector{ctx: ctx, Sensitivity: DefaultSensitivity}
}

// Compare 把 E(x) 变换为 E(score)。
// score 不做任何截断：远离 [T-δ, T+δ] 的输入会产生超出 [0,1] 的分数，
// 分类时按同样的区间规则处理即可。
func (d *Detector) Compare(ct *fhe.Ciphertext, threshold float64) (*Result, error) {
	if threshold <= 0 {
		return nil, errors.New("comparator: non-positive threshold")
	}
	k := d.Sensitivity
	if k <= 0 {
		k = DefaultSensitivity
	}

	delta := threshold / k
	slope := 0.5 / delta
	intercept := 0.5 - threshold*slope

	score, err := d.ctx.Affine(ct, slope, intercept)
	if err != nil {
		return nil, errors.Wrap(err, "affine score")
	}

	return &Result{
		Score:         score,
		Threshold:     threshold,
		Sensitivity:   k,
		SoftZoneWidth: delta,
	}, nil
}

// InterpretScore 对解密后的分数做置信区间分类。
// 分数可能超出 [0,1]，无论幅度多大，
// 低于 0.3 一律判 below，高于 0.7 一律判 above。
func InterpretScore(score float64) Interpretation {
	clamped := math.Max(0, math.Min(1, score))

	var (
		zone       Zone
		confidence float64
	)
	switch {
	case clamped < ZoneBelowBound:
		zone = ZoneBelow
		confidence = 1 - clamped/ZoneBelowBound
	case clamped > ZoneAboveBound:
		zone = ZoneAbove
		confidence = (clamped - ZoneAboveBound) / (1 - ZoneAboveBound)
	default:
		zone = ZoneUncertain
		confidence = math.Abs(clamped-0.5) / (0.5 - ZoneBelowBound)
	}

	return Interpretation{
		RawScore:   score,
		Zone:       zone,
		Confidence: math.Max(0, math.Min(1, confidence)),
	}
}
