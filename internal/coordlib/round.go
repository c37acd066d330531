// 包 coordlib 实现 coordinator 一侧的可验证聚合回合。
// coordinator 按设计是不可信角色：
// 它只做密文求和与承诺乘积，永远拿不到 SecretContext 和任何 Opening，
// 它算错或作弊会在 utility 的承诺核对中被确定性地发现。
package coordlib

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
)

// 回合状态机：
// collecting → aggregating → awaiting_decryption → verified | mismatch
// mismatch 是终态，整个回合作废，agent 在下一回合重新提交。
const (
	PhaseCollecting         = "collecting"
	PhaseAggregating        = "aggregating"
	PhaseAwaitingDecryption = "awaiting_decryption"
	PhaseVerified           = "verified"
	PhaseMismatch           = "mismatch"
)

var (
	ErrDuplicateContribution = errors.New("coordlib: duplicate contribution for agent in this round")
	ErrRoundClosed           = errors.New("coordlib: round is no longer collecting")
	ErrEmptyRound            = errors.New("coordlib: round has no contributions")
	ErrBadPhase              = errors.New("coordlib: operation not allowed in current phase")
)

// Contribution 是单个 agent 在一个回合内提交的 (密文, 承诺) 对。
// 对应的 Opening 不经过 coordinator，由 agent 直接交给 utility。
type Contribution struct {
	AgentID    uuid.UUID
	Ciphertext *fhe.Ciphertext
	Commitment *pedersen.Commitment
}

// AggregateResult 是回合关闭后交给 utility 的聚合结果。
// coordinator 自己永远不解密其中的密文。
type AggregateResult struct {
	RoundID          uuid.UUID
	Ciphertext       *fhe.Ciphertext
	Commitment       *pedersen.Commitment
	ContributorCount int
}

// Round 承载一个回合的收集与聚合状态。
// 并发的 agent 提交由互斥锁保护；
// 不同回合之间不共享可变状态，可以并行推进。
type Round struct {
	mu sync.Mutex

	ID       uuid.UUID
	ctx      *fhe.PublicContext
	scheme   *pedersen.Scheme
	expected int

	phase         string
	contributions map[uuid.UUID]*Contribution
	result        *AggregateResult
}

// NewRound 开启一个新回合。
// expected 为预期的贡献方数量，提交满额后可由调用方关闭回合。
func NewRound(ctx *fhe.PublicContext, scheme *pedersen.Scheme, id uuid.UUID, expected int) *Round {
	return &Round{
		ID:            id,
		ctx:           ctx,
		scheme:        scheme,
		expected:      expected,
		phase:         PhaseCollecting,
		contributions: make(map[uuid.UUID]*Contribution),
	}
}

// Phase 返回当前回合状态
func (r *Round) Phase() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Count 返回当前已收集的贡献数
func (r *Round) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contributions)
}

// Full 报告回合是否已集齐预期的贡献
func (r *Round) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expected > 0 && len(r.contributions) >= r.expected
}

// Submit 接收一份贡献。
// 同一 agent 在一个回合内只有第一次提交生效，
// 后续重复提交立即以 ErrDuplicateContribution 拒绝；
// 被拒绝不影响回合内其他贡献。
func (r *Round) Submit(c *Contribution) error {
	if c == nil || c.Ciphertext == nil || c.Commitment == nil {
		return errors.New("coordlib: incomplete contribution")
	}
	if c.Ciphertext.Fingerprint() != r.ctx.Fingerprint() {
		return errors.Wrapf(fhe.ErrContextMismatch,
			"agent %s submitted ciphertext from context %s", c.AgentID, c.Ciphertext.Fingerprint())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseCollecting {
		return errors.Wrapf(ErrRoundClosed, "phase %s", r.phase)
	}
	if _, ok := r.contributions[c.AgentID]; ok {
		return errors.Wrapf(ErrDuplicateContribution, "agent %s", c.AgentID)
	}

	r.contributions[c.AgentID] = c
	return nil
}

// Close 关闭收集阶段并计算聚合结果：
// 密文的同态求和与承诺的群乘积。
// 两种运算都满足交换律和结合律，结果与提交顺序无关。
func (r *Round) Close() (*AggregateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseCollecting {
		return nil, errors.Wrapf(ErrBadPhase, "close in phase %s", r.phase)
	}
	if len(r.contributions) == 0 {
		return nil, ErrEmptyRound
	}

	r.phase = PhaseAggregating

	var (
		sum         *fhe.Ciphertext
		commitments = make([]*pedersen.Commitment, 0, len(r.contributions))
		err         error
	)
	for _, c := range r.contributions {
		if sum == nil {
			sum = c.Ciphertext
		} else {
			sum, err = r.ctx.Add(sum, c.Ciphertext)
			if err != nil {
				return nil, errors.Wrap(err, "homomorphic sum")
			}
		}
		commitments = append(commitments, c.Commitment)
	}

	product, err := r.scheme.Combine(commitments)
	if err != nil {
		return nil, errors.Wrap(err, "commitment product")
	}

	r.result = &AggregateResult{
		RoundID:          r.ID,
		Ciphertext:       sum,
		Commitment:       product,
		ContributorCount: len(r.contributions),
	}
	r.phase = PhaseAwaitingDecryption
	return r.result, nil
}

// Result 返回已计算的聚合结果，回合尚未关闭时返回错误
func (r *Round) Result() (*AggregateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return nil, errors.Wrapf(ErrBadPhase, "no result in phase %s", r.phase)
	}
	return r.result, nil
}

// MarkVerified 由 utility 的验证结论驱动的终态迁移
func (r *Round) MarkVerified() error {
	return r.finish(PhaseVerified)
}

// MarkMismatch 标记回合验证失败。
// 终态，回合内不重试；agent 在新回合重新提交。
func (r *Round) MarkMismatch() error {
	return r.finish(PhaseMismatch)
}

func (r *Round) finish(phase string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseAwaitingDecryption {
		return errors.Wrapf(ErrBadPhase, "finish from phase %s", r.phase)
	}
	r.phase = phase
	return nil
}
