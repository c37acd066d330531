// 包 pedersen 实现加法同态的 Pedersen 承诺：
// C = g^(v·scale) · h^r mod p。
// 承诺对 v 是信息论隐藏的（r 均匀随机时 C 的分布与 v 无关），
// 绑定性依赖离散对数困难假设。
// agent 对读数作出承诺，coordinator 只做群乘积，
// utility 用带外收到的 opening 验证聚合结果。
package pedersen

import (
	"crypto/rand"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

var (
	ErrValueOutOfRange = errors.New("pedersen: scaled value outside exponent domain")
	ErrScaleMismatch   = errors.New("pedersen: commitments carry different scale factors")
	ErrBadParameters   = errors.New("pedersen: invalid group parameters")
)

// Scheme 持有承诺群参数 (p, g, h)。
// 参数在初始化后不可变，可被任意多个 goroutine 并发读取。
type Scheme struct {
	P *big.Int // 2048-bit 安全素数
	G *big.Int
	H *big.Int

	// ScaleFactor 是浮点读数到指数域整数的放大倍数
	ScaleFactor int64

	order *big.Int // p - 1，乘法群的阶
}

// Commitment 是一条可公开传输的承诺
type Commitment struct {
	C           *big.Int
	ScaleFactor int64
}

// Opening 是解释一条承诺的 (v, r) 对。
// 只通过 coordinator 无法观测的通道交给 utility，每回合用后即弃。
type Opening struct {
	Value       float64
	Randomness  *big.Int
	ScaleFactor int64
}

// NewScheme 返回使用默认参数的承诺方案
func NewScheme() *Scheme {
	s, err := NewSchemeWithSeed(defaultHSeed, DefaultScaleFactor)
	if err != nil {
		// 默认参数是常量，失败意味着环境本身坏了
		panic(err)
	}
	return s
}

// NewSchemeWithSeed 用给定种子派生第二生成元。
// 参数不合法属于配置错误，必须阻止系统启动。
func NewSchemeWithSeed(hSeed []byte, scaleFactor int64) (*Scheme, error) {
	p, ok := new(big.Int).SetString(modpGroup14Hex, 16)
	if !ok {
		return nil, errors.Wrap(ErrBadParameters, "parse prime")
	}
	if !p.ProbablyPrime(20) {
		return nil, errors.Wrap(ErrBadParameters, "modulus not prime")
	}
	if scaleFactor <= 0 {
		return nil, errors.Wrap(ErrBadParameters, "non-positive scale factor")
	}

	g := big.NewInt(2)
	h := new(big.Int).Exp(g, hashToExponent(hSeed), p)

	return &Scheme{
		P:           p,
		G:           g,
		H:           h,
		ScaleFactor: scaleFactor,
		order:       new(big.Int).Sub(p, big.NewInt(1)),
	}, nil
}

// NewRandomness 在 [0, p-1) 内均匀采样盲化因子。
// 每条承诺必须使用新鲜随机数：
// 同一 r 用在两个不同的 v 上会让 C1/C2 = g^(Δv·scale)，隐藏性即告失效。
func (s *Scheme) NewRandomness() (*big.Int, error) {
	r, err := rand.Int(rand.Reader, s.order)
	if err != nil {
		return nil, errors.Wrap(err, "sample randomness")
	}
	return r, nil
}

// scaleValue 把浮点读数放大并取整。
// 放大结果必须落在 [0, p-1) 内，否则返回 ErrValueOutOfRange。
func (s *Scheme) scaleValue(value float64, scale int64) (*big.Int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, errors.Wrapf(ErrValueOutOfRange, "value %v", value)
	}
	scaled := math.Round(value * float64(scale))
	if scaled < 0 {
		return nil, errors.Wrapf(ErrValueOutOfRange, "negative scaled value %v", scaled)
	}
	if scaled >= math.MaxInt64 {
		return nil, errors.Wrapf(ErrValueOutOfRange, "scaled value %v overflows", scaled)
	}
	m := new(big.Int).SetInt64(int64(scaled))
	if m.Cmp(s.order) >= 0 {
		return nil, errors.Wrapf(ErrValueOutOfRange, "scaled value %v exceeds group order", scaled)
	}
	return m, nil
}

// Commit 生成承诺 C = g^(v·scale) · h^r mod p
func (s *Scheme) Commit(value float64, randomness *big.Int, scale int64) (*Commitment, error) {
	m, err := s.scaleValue(value, scale)
	if err != nil {
		return nil, err
	}
	return s.commitScaled(m, randomness, scale), nil
}

func (s *Scheme) commitScaled(m, randomness *big.Int, scale int64) *Commitment {
	r := new(big.Int).Mod(randomness, s.order)

	gm := new(big.Int).Exp(s.G, m, s.P)
	hr := new(big.Int).Exp(s.H, r, s.P)
	c := gm.Mul(gm, hr)
	c.Mod(c, s.P)

	return &Commitment{C: c, ScaleFactor: scale}
}

// Combine 计算承诺的群乘积。
// 由同态性质 ∏Cᵢ = Commit(Σvᵢ, Σrᵢ)，该性质有测试保证，不是假设。
func (s *Scheme) Combine(commitments []*Commitment) (*Commitment, error) {
	if len(commitments) == 0 {
		return nil, errors.New("pedersen: nothing to combine")
	}

	scale := commitments[0].ScaleFactor
	agg := big.NewInt(1)
	for _, c := range commitments {
		if c.ScaleFactor != scale {
			return nil, errors.Wrapf(ErrScaleMismatch, "%d vs %d", c.ScaleFactor, scale)
		}
		agg.Mul(agg, c.C)
		agg.Mod(agg, s.P)
	}

	return &Commitment{C: agg, ScaleFactor: scale}, nil
}

// Verify 重新计算 g^(v·scale)·h^r 并与承诺比较。
// 比较在放大后的整数域内精确进行，没有任何浮点容差。
func (s *Scheme) Verify(c *Commitment, value float64, randomness *big.Int, scale int64) bool {
	expected, err := s.Commit(value, randomness, scale)
	if err != nil {
		return false
	}
	return expected.C.Cmp(c.C) == 0 && c.ScaleFactor == scale
}

// AggregateOpenings 聚合 utility 带外收到的 opening。
// 数值部分在放大后的整数域内求和，避免浮点求和的舍入影响验证。
func (s *Scheme) AggregateOpenings(openings []*Opening) (*Opening, error) {
	if len(openings) == 0 {
		return nil, errors.New("pedersen: nothing to aggregate")
	}

	scale := openings[0].ScaleFactor
	scaledSum := new(big.Int)
	rSum := new(big.Int)
	for _, o := range openings {
		if o.ScaleFactor != scale {
			return nil, errors.Wrapf(ErrScaleMismatch, "%d vs %d", o.ScaleFactor, scale)
		}
		m, err := s.scaleValue(o.Value, scale)
		if err != nil {
			return nil, err
		}
		scaledSum.Add(scaledSum, m)
		rSum.Add(rSum, o.Randomness)
	}
	rSum.Mod(rSum, s.order)

	value := new(big.Float).SetInt(scaledSum)
	value.Quo(value, big.NewFloat(float64(scale)))
	v, _ := value.Float64()

	return &Opening{Value: v, Randomness: rSum, ScaleFactor: scale}, nil
}
