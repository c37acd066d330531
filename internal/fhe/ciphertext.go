package fhe

import (
	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v4/ckks"
	"github.com/tuneinsight/lattigo/v4/rlwe"
)

// Ciphertext 包装一条 RLWE 密文，附带来源上下文指纹和有效数据长度。
// 指纹只存在于内存结构中，MarshalBinary 只输出密文本体，
// 序列化结果不携带任何可供第三方关联上下文的元数据。
type Ciphertext struct {
	ct          *rlwe.Ciphertext
	fingerprint string
	slots       int
}

// Fingerprint 返回来源上下文的指纹
func (c *Ciphertext) Fingerprint() string { return c.fingerprint }

// Len 返回有效数据长度（CKKS 内部会按槽数补齐）
func (c *Ciphertext) Len() int { return c.slots }

// MarshalBinary 序列化密文本体
func (c *Ciphertext) MarshalBinary() ([]byte, error) {
	return c.ct.MarshalBinary()
}

// UnmarshalInto 在给定上下文下反序列化一条密文。
// 反序列化得到的密文视为属于 ctx；
// 真实归属在解密时由指纹核对兜底。
func UnmarshalInto(ctx *PublicContext, data []byte, slots int) (*Ciphertext, error) {
	if slots <= 0 || slots > ctx.params.Slots() {
		return nil, errors.Wrapf(ErrCapacityExceeded, "%d slots declared, capacity %d", slots, ctx.params.Slots())
	}

	ct := ckks.NewCiphertext(ctx.params, 1, ctx.params.MaxLevel())
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, errors.Wrap(err, "unmarshal ciphertext")
	}

	return &Ciphertext{ct: ct, fingerprint: ctx.fingerprint, slots: slots}, nil
}
