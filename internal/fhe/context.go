// 包 fhe 将 Lattigo 的 CKKS 方案包装成本方案需要的加密能力：
// 密钥生成、向量加解密、同态加法和明文仿射变换。
// 上下文分为公开（PublicContext）和私密（SecretContext）两种视图，
// 公私分离在类型层面保证，而不是运行时约定。
package fhe

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v4/ckks"
	"github.com/tuneinsight/lattigo/v4/rlwe"
	"golang.org/x/crypto/sha3"
)

// PublicContext 是分发给 agent 和 coordinator 的能力包。
// 只能加密和做同态运算，不含解密密钥，可以随意复制分发。
type PublicContext struct {
	paramsName  string
	params      ckks.Parameters
	pk          *rlwe.PublicKey
	fingerprint string
}

// SecretContext 在 PublicContext 之上增加解密能力，只允许 utility 持有。
// 该类型有意不实现任何二进制序列化接口；
// 导出密钥材料的唯一入口在 keydist 包，且只放行公开部分。
type SecretContext struct {
	PublicContext
	sk *rlwe.SecretKey
}

// GenerateKeys 生成一个部署周期使用的上下文对。
// 未知参数集或参数组合低于安全下限时返回 ErrKeyGeneration。
func GenerateKeys(cfg Config) (*PublicContext, *SecretContext, error) {
	lit, ok := cfg.literal()
	if !ok {
		return nil, nil, errors.Wrapf(ErrKeyGeneration, "unknown parameter set %q", cfg.Params)
	}

	params, err := ckks.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "new ckks parameters")
	}
	if params.LogN() < minLogN {
		return nil, nil, errors.Wrapf(ErrKeyGeneration, "LogN = %d, floor is %d", params.LogN(), minLogN)
	}

	keyGen := ckks.NewKeyGenerator(params)
	sk, pk := keyGen.GenKeyPair()

	pub := &PublicContext{
		paramsName:  cfg.name(),
		params:      params,
		pk:          pk,
		fingerprint: fingerprintOf(pk),
	}
	sec := &SecretContext{PublicContext: *pub, sk: sk}
	return pub, sec, nil
}

// RestorePublic 从参数集名称和序列化公钥恢复 PublicContext。
// 供 keydist 在接收方重建上下文使用。
func RestorePublic(paramsName string, pkBytes []byte) (*PublicContext, error) {
	lit, ok := Config{Params: paramsName}.literal()
	if !ok {
		return nil, errors.Wrapf(ErrKeyGeneration, "unknown parameter set %q", paramsName)
	}

	params, err := ckks.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, errors.Wrap(err, "new ckks parameters")
	}

	pk := rlwe.NewPublicKey(params.Parameters)
	if err = pk.UnmarshalBinary(pkBytes); err != nil {
		return nil, errors.Wrap(err, "unmarshal public key")
	}

	return &PublicContext{
		paramsName:  paramsName,
		params:      params,
		pk:          pk,
		fingerprint: fingerprintOf(pk),
	}, nil
}

// fingerprintOf 计算公钥指纹。
// 指纹只随上下文和内存中的密文包装保存，
// 不写入密文本体，避免窃听者借助指纹关联密文。
func fingerprintOf(pk *rlwe.PublicKey) string {
	data, _ := pk.MarshalBinary()
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Fingerprint 返回上下文指纹
func (ctx *PublicContext) Fingerprint() string { return ctx.fingerprint }

// ParamsName 返回参数集名称
func (ctx *PublicContext) ParamsName() string { return ctx.paramsName }

// Slots 返回单条密文可容纳的槽数
func (ctx *PublicContext) Slots() int { return ctx.params.Slots() }

// PublicKeyBytes 返回序列化公钥，供 keydist 分发
func (ctx *PublicContext) PublicKeyBytes() ([]byte, error) {
	return ctx.pk.MarshalBinary()
}
