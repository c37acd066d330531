package fhe

import (
	"github.com/tuneinsight/lattigo/v4/ckks"
)

// 预设的 CKKS 安全参数集。
// PN12QP109 体积小，主要用于测试；
// 部署默认使用 PN14QP438，约 128-bit 安全强度，
// 模数链对本方案的 depth-0 运算绰绰有余。
var paramsLiterals = map[string]ckks.ParametersLiteral{
	"PN12QP109": ckks.PN12QP109,
	"PN13QP218": ckks.PN13QP218,
	"PN14QP438": ckks.PN14QP438,
	"PN15QP880": ckks.PN15QP880,
}

const (
	DefaultParams = "PN14QP438"

	// 安全下限：多项式环维度 2^12。
	// 低于下限的参数组合一律在密钥生成阶段拒绝，绝不静默降级。
	minLogN = 12
)

// Config 是密钥生成的配置面
type Config struct {
	// Params 为参数集名称，见 paramsLiterals；留空使用 DefaultParams
	Params string
}

func (c Config) name() string {
	if c.Params == "" {
		return DefaultParams
	}
	return c.Params
}

func (c Config) literal() (ckks.ParametersLiteral, bool) {
	lit, ok := paramsLiterals[c.name()]
	return lit, ok
}
