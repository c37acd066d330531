// 包 agentlib 实现 agent（住户电表）一侧的逻辑：
// 对本地读数加密并作出承诺，
// (密文, 承诺) 交给 coordinator，opening 直接交给 utility。
package agentlib

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/coordlib"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
)

// Agent 是一个数据贡献方
type Agent struct {
	ID   uuid.UUID
	Name string
}

// NewAgent 生成一个新的 agent
func NewAgent(name string) *Agent {
	return &Agent{ID: uuid.New(), Name: name}
}

// NewContribution 加密读数并生成承诺。
// 返回交给 coordinator 的 Contribution 和只发给 utility 的 Opening。
// 盲化因子每次重新采样：跨回合复用随机数会破坏承诺的隐藏性，
// 这是 agent 自己的义务，API 无法跨调用检测。
func (a *Agent) NewContribution(ctx *fhe.PublicContext, scheme *pedersen.Scheme, demandKW float64) (*coordlib.Contribution, *pedersen.Opening, error) {
	ct, err := ctx.Encrypt([]float64{demandKW})
	if err != nil {
		return nil, nil, errors.Wrap(err, "encrypt demand")
	}

	r, err := scheme.NewRandomness()
	if err != nil {
		return nil, nil, errors.Wrap(err, "sample blinding factor")
	}

	c, err := scheme.Commit(demandKW, r, scheme.ScaleFactor)
	if err != nil {
		return nil, nil, errors.Wrap(err, "commit demand")
	}

	contribution := &coordlib.Contribution{
		AgentID:    a.ID,
		Ciphertext: ct,
		Commitment: c,
	}
	opening := &pedersen.Opening{
		Value:       demandKW,
		Randomness:  r,
		ScaleFactor: scheme.ScaleFactor,
	}
	return contribution, opening, nil
}
