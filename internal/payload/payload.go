// 包 payload 定义通信中使用的 JSON 结构体。
// 密文使用 base64 编码，承诺和盲化因子使用十六进制编码。
package payload

import (
	"encoding/base64"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/coordlib"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
)

// ContributionReq 表示 agent 向 coordinator 提交的一份贡献
type ContributionReq struct {
	RoundID     uuid.UUID `json:"roundId"`
	AgentID     uuid.UUID `json:"agentId"`
	Ciphertext  string    `json:"ciphertext"`
	Slots       int       `json:"slots"`
	Commitment  string    `json:"commitment"`
	ScaleFactor int64     `json:"scaleFactor"`
}

// OpeningReq 表示 agent 经 authority-only 通道向 utility 提交的 opening。
// 该请求绝不允许经过 coordinator。
type OpeningReq struct {
	RoundID     uuid.UUID `json:"roundId"`
	AgentID     uuid.UUID `json:"agentId"`
	Value       float64   `json:"value"`
	Randomness  string    `json:"randomness"`
	ScaleFactor int64     `json:"scaleFactor"`
}

// RoundCloseReq 请求关闭某个回合
type RoundCloseReq struct {
	RoundID uuid.UUID `json:"roundId"`
}

// OutcomeResp 是回合验证结论的公开视图
type OutcomeResp struct {
	RoundID        uuid.UUID `json:"roundId"`
	IsValid        bool      `json:"isValid"`
	DecryptedTotal float64   `json:"decryptedTotal"`
	CommittedTotal float64   `json:"committedTotal"`
	Discrepancy    float64   `json:"discrepancy"`
	Reason         string    `json:"reason"`
}

// FromContribution 把内存中的贡献编码为线上格式
func FromContribution(roundID uuid.UUID, c *coordlib.Contribution) (*ContributionReq, error) {
	data, err := c.Ciphertext.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal ciphertext")
	}
	return &ContributionReq{
		RoundID:     roundID,
		AgentID:     c.AgentID,
		Ciphertext:  base64.RawStdEncoding.EncodeToString(data),
		Slots:       c.Ciphertext.Len(),
		Commitment:  c.Commitment.C.Text(16),
		ScaleFactor: c.Commitment.ScaleFactor,
	}, nil
}

// Contribution 在 coordinator 侧把线上格式还原为内存结构
func (req *ContributionReq) Contribution(ctx *fhe.PublicContext) (*coordlib.Contribution, error) {
	data, err := base64.RawStdEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decode ciphertext")
	}
	ct, err := fhe.UnmarshalInto(ctx, data, req.Slots)
	if err != nil {
		return nil, err
	}

	c, ok := new(big.Int).SetString(req.Commitment, 16)
	if !ok {
		return nil, errors.New("payload: malformed commitment")
	}

	return &coordlib.Contribution{
		AgentID:    req.AgentID,
		Ciphertext: ct,
		Commitment: &pedersen.Commitment{C: c, ScaleFactor: req.ScaleFactor},
	}, nil
}

// FromOpening 把 opening 编码为线上格式
func FromOpening(roundID, agentID uuid.UUID, o *pedersen.Opening) *OpeningReq {
	return &OpeningReq{
		RoundID:     roundID,
		AgentID:     agentID,
		Value:       o.Value,
		Randomness:  o.Randomness.Text(16),
		ScaleFactor: o.ScaleFactor,
	}
}

// Opening 在 utility 侧还原 opening
func (req *OpeningReq) Opening() (*pedersen.Opening, error) {
	r, ok := new(big.Int).SetString(req.Randomness, 16)
	if !ok {
		return nil, errors.New("payload: malformed randomness")
	}
	return &pedersen.Opening{
		Value:       req.Value,
		Randomness:  r,
		ScaleFactor: req.ScaleFactor,
	}, nil
}
