// 包 utilitylib 实现 utility（电力公司）一侧的协议：
// 它是唯一持有 SecretContext 的角色，
// 负责解密聚合密文、核对承诺乘积并给出负载均衡决策。
// utility 只看得到聚合值，看不到任何单个 agent 的读数。
package utilitylib

import (
	"math"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/coordlib"
	"github.com/CamberLoid/Inazuma/internal/decision"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
)

// DefaultErrorBound 是 FHE 近似误差的默认容忍上限。
// 超出上限的漂移与篡改在协议内不可区分，一律按完整性事件上报。
const DefaultErrorBound = 1e-6

// 验证结论的归因。
// “coordinator 作弊”与“FHE 噪声”必须区分开，混为一谈是正确性缺陷。
const (
	ReasonOK                 = "ok"
	ReasonCommitmentMismatch = "commitment_mismatch"
	ReasonFHEDrift           = "fhe_drift"
)

var (
	ErrDuplicateOpening   = errors.New("utilitylib: duplicate opening for agent in this round")
	ErrOpeningsIncomplete = errors.New("utilitylib: opening count does not match contributor count")
)

// VerificationOutcome 是一个回合的终态验证结论，产生后不再修改，
// 仅用于审计记录和驱动回合状态迁移。
type VerificationOutcome struct {
	RoundID            uuid.UUID
	IsValid            bool
	DecryptedTotal     float64
	CommittedTotal     float64
	Discrepancy        float64
	Reason             string
	ExpectedCommitment *big.Int
	ActualCommitment   *big.Int
	ContributorCount   int
}

// Utility 持有解密能力与带外收到的 opening。
// 解密串行化在互斥锁之后；密钥材料本身只读，没有并发风险。
type Utility struct {
	mu sync.Mutex

	secret *fhe.SecretContext
	scheme *pedersen.Scheme

	CapacityKW float64
	ErrorBound float64

	// openings: 回合 → agent → opening，每回合用后即弃
	openings map[uuid.UUID]map[uuid.UUID]*pedersen.Opening
}

// NewUtility 构造 utility 角色
func NewUtility(secret *fhe.SecretContext, scheme *pedersen.Scheme, capacityKW float64) *Utility {
	return &Utility{
		secret:     secret,
		scheme:     scheme,
		CapacityKW: capacityKW,
		ErrorBound: DefaultErrorBound,
		openings:   make(map[uuid.UUID]map[uuid.UUID]*pedersen.Opening),
	}
}

// SubmitOpening 接收 agent 经 authority-only 通道提交的 opening。
// 与 coordinator 侧一致：同一 agent 在一个回合只有首次提交生效。
func (u *Utility) SubmitOpening(roundID, agentID uuid.UUID, o *pedersen.Opening) error {
	if o == nil || o.Randomness == nil {
		return errors.New("utilitylib: incomplete opening")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	byAgent, ok := u.openings[roundID]
	if !ok {
		byAgent = make(map[uuid.UUID]*pedersen.Opening)
		u.openings[roundID] = byAgent
	}
	if _, ok := byAgent[agentID]; ok {
		return errors.Wrapf(ErrDuplicateOpening, "agent %s round %s", agentID, roundID)
	}
	byAgent[agentID] = o
	return nil
}

// VerifyRound 对一个回合的聚合结果做完整验证：
//  1. 解密密文得到 total；
//  2. 聚合 opening 得到 (Σv, Σr)，在放大后的整数域内计算；
//  3. 用解密值重算期望承诺 g^(total·scale)·h^(Σr)，与承诺乘积精确比较；
//  4. 独立核对 |total − Σv| 是否落在误差上限内。
//
// 承诺核对针对 coordinator 作弊，误差核对针对 FHE 层故障，
// 两者的失败在 Reason 中分别归因。
// 回合的 opening 在验证后即被丢弃，不会重复使用。
func (u *Utility) VerifyRound(res *coordlib.AggregateResult) (*VerificationOutcome, error) {
	if res == nil || res.Ciphertext == nil || res.Commitment == nil {
		return nil, errors.New("utilitylib: incomplete aggregate result")
	}

	u.mu.Lock()
	byAgent := u.openings[res.RoundID]
	delete(u.openings, res.RoundID)
	u.mu.Unlock()

	if len(byAgent) != res.ContributorCount {
		return nil, errors.Wrapf(ErrOpeningsIncomplete,
			"%d openings, %d contributors", len(byAgent), res.ContributorCount)
	}

	values, err := u.secret.Decrypt(res.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt aggregate")
	}
	total := values[0]

	openings := make([]*pedersen.Opening, 0, len(byAgent))
	for _, o := range byAgent {
		openings = append(openings, o)
	}
	agg, err := u.scheme.AggregateOpenings(openings)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate openings")
	}

	expected, err := u.scheme.Commit(total, agg.Randomness, agg.ScaleFactor)
	if err != nil {
		return nil, errors.Wrap(err, "recompute commitment")
	}

	commitOK := expected.C.Cmp(res.Commitment.C) == 0
	drift := math.Abs(total - agg.Value)
	driftOK := drift <= u.ErrorBound

	outcome := &VerificationOutcome{
		RoundID:            res.RoundID,
		IsValid:            commitOK && driftOK,
		DecryptedTotal:     total,
		CommittedTotal:     agg.Value,
		Discrepancy:        drift,
		ExpectedCommitment: expected.C,
		ActualCommitment:   res.Commitment.C,
		ContributorCount:   res.ContributorCount,
	}

	switch {
	case commitOK && driftOK:
		outcome.Reason = ReasonOK
	case !commitOK && !driftOK:
		// 解密值和 opening 的差异远超噪声水平：归因于承诺核对失败
		outcome.Reason = ReasonCommitmentMismatch
	default:
		// 两个核对只挂了一个：总量在噪声范围内一致（或仅越过取整边界），
		// 这是 FHE 层的精度问题而不是作弊
		outcome.Reason = ReasonFHEDrift
	}

	return outcome, nil
}

// ProcessRound 是验证加决策的便捷入口。
// 验证失败时不产生决策：回合整体作废。
func (u *Utility) ProcessRound(res *coordlib.AggregateResult) (*VerificationOutcome, *decision.Decision, error) {
	outcome, err := u.VerifyRound(res)
	if err != nil {
		return nil, nil, err
	}
	if !outcome.IsValid {
		return outcome, nil, nil
	}

	d := decision.New(res.RoundID, outcome.DecryptedTotal, u.CapacityKW, res.ContributorCount)
	return outcome, &d, nil
}

// DecryptScore 解密比较器输出的密文分数，供预警路径使用
func (u *Utility) DecryptScore(score *fhe.Ciphertext) (float64, error) {
	values, err := u.secret.Decrypt(score)
	if err != nil {
		return 0, errors.Wrap(err, "decrypt score")
	}
	return values[0], nil
}
