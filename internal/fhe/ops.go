package fhe

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v4/ckks"
	"github.com/tuneinsight/lattigo/v4/rlwe"
)

// Encrypt 加密一组读数（kW）。
// 输入长度超过槽容量时返回 ErrCapacityExceeded。
func (ctx *PublicContext) Encrypt(values []float64) (*Ciphertext, error) {
	if len(values) == 0 {
		return nil, errors.New("fhe: nothing to encrypt")
	}
	if len(values) > ctx.params.Slots() {
		return nil, errors.Wrapf(ErrCapacityExceeded,
			"%d values, capacity %d", len(values), ctx.params.Slots())
	}

	encoder := ckks.NewEncoder(ctx.params)
	pt := encoder.EncodeNew(
		values,
		ctx.params.MaxLevel(),
		ctx.params.DefaultScale(),
		ctx.params.LogSlots())
	ct := ckks.NewEncryptor(ctx.params, ctx.pk).EncryptNew(pt)

	return &Ciphertext{ct: ct, fingerprint: ctx.fingerprint, slots: len(values)}, nil
}

// Decrypt 解密一条密文，只有持有 SecretContext 的 utility 能调用。
// 密文指纹与上下文不符时返回 ErrWrongContext。
func (ctx *SecretContext) Decrypt(c *Ciphertext) ([]float64, error) {
	if c == nil || c.ct == nil {
		return nil, errors.New("fhe: nil ciphertext")
	}
	if c.fingerprint != ctx.fingerprint {
		return nil, errors.Wrapf(ErrWrongContext,
			"ciphertext from %s, context is %s", c.fingerprint, ctx.fingerprint)
	}

	encoder := ckks.NewEncoder(ctx.params)
	pt := ckks.NewDecryptor(ctx.params, ctx.sk).DecryptNew(c.ct)
	decoded := encoder.Decode(pt, ctx.params.LogSlots())

	values := make([]float64, c.slots)
	for i := range values {
		values[i] = real(decoded[i])
	}
	return values, nil
}

// Add 同态加法：E(a) + E(b) = E(a+b)。
// 两条密文必须来自同一上下文，
// 运算满足交换律和结合律（误差在方案精度范围内）。
func (ctx *PublicContext) Add(a, b *Ciphertext) (out *Ciphertext, err error) {
	if a.fingerprint != b.fingerprint || a.fingerprint != ctx.fingerprint {
		return nil, errors.Wrapf(ErrContextMismatch,
			"%s + %s under %s", a.fingerprint, b.fingerprint, ctx.fingerprint)
	}

	// 处理 evaluator 可能出现的 panic
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = fmt.Errorf("homomorphic add failed, got panic: %v", p)
		}
	}()

	ct := ctx.newEvaluator().AddNew(a.ct, b.ct)

	slots := a.slots
	if b.slots > slots {
		slots = b.slots
	}
	return &Ciphertext{ct: ct, fingerprint: ctx.fingerprint, slots: slots}, nil
}

// Affine 计算 E(scale·x + offset)。
// 只用明文-密文乘加，不消耗密文间乘法深度，
// 这是 comparator 包赖以成立的关键性质。
func (ctx *PublicContext) Affine(c *Ciphertext, scale, offset float64) (out *Ciphertext, err error) {
	if c.fingerprint != ctx.fingerprint {
		return nil, errors.Wrapf(ErrContextMismatch,
			"ciphertext from %s under %s", c.fingerprint, ctx.fingerprint)
	}

	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = fmt.Errorf("affine transform failed, got panic: %v", p)
		}
	}()

	evaluator := ctx.newEvaluator()
	ct := evaluator.AddConstNew(evaluator.MultByConstNew(c.ct, scale), offset)

	return &Ciphertext{ct: ct, fingerprint: ctx.fingerprint, slots: c.slots}, nil
}

// Average 计算 E(sum)·(1/n)，即密文域内的平均值
func (ctx *PublicContext) Average(sum *Ciphertext, n int) (*Ciphertext, error) {
	if n <= 0 {
		return nil, errors.New("fhe: average over non-positive count")
	}
	return ctx.Affine(sum, 1.0/float64(n), 0)
}

// Utilization 计算 E(sum)·(1/capacity)。
// utility 解密后直接得到利用率，无需再拿到总量明文。
func (ctx *PublicContext) Utilization(sum *Ciphertext, capacityKW float64) (*Ciphertext, error) {
	if capacityKW <= 0 {
		return nil, errors.New("fhe: non-positive capacity")
	}
	return ctx.Affine(sum, 1.0/capacityKW, 0)
}

func (ctx *PublicContext) newEvaluator() ckks.Evaluator {
	return ckks.NewEvaluator(ctx.params, rlwe.EvaluationKey{})
}
