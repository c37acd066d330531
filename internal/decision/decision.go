// 包 decision 根据解密后的聚合总需求生成负载均衡动作。
// 决策是利用率的确定性全函数，不依赖任何隐藏状态；
// 输出只含聚合后的数值，可以安全地交给不可信观察者。
package decision

import (
	"fmt"

	"github.com/google/uuid"
)

// Action 是负载均衡动作
type Action string

const (
	ActionNone     Action = "none"
	ActionReduce10 Action = "reduce_10"
	ActionReduce20 Action = "reduce_20"
	ActionReduce30 Action = "reduce_30"
	ActionCritical Action = "critical"
)

// Decision 是一次回合的决策记录
type Decision struct {
	RoundID         uuid.UUID `json:"roundId"`
	TotalKW         float64   `json:"totalKw"`
	AverageKW       float64   `json:"averageKw"`
	CapacityKW      float64   `json:"capacityKw"`
	Utilization     float64   `json:"utilization"`
	Action          Action    `json:"action"`
	ReductionFactor float64   `json:"reductionFactor"`
	Reason          string    `json:"reason"`

	// WarningZone 是解密前由比较器给出的预警区间，可为空
	WarningZone string `json:"warningZone,omitempty"`
}

// Decide 把利用率映射到动作。
// 区间左闭右开，恰好落在边界上归入更高一档。
func Decide(utilization float64) (Action, float64) {
	switch {
	case utilization < 0.80:
		return ActionNone, 1.00
	case utilization < 0.90:
		return ActionReduce10, 0.90
	case utilization < 0.95:
		return ActionReduce20, 0.80
	case utilization < 1.00:
		return ActionReduce30, 0.70
	default:
		return ActionCritical, 0.50
	}
}

// New 构造一条完整的决策记录
func New(roundID uuid.UUID, totalKW, capacityKW float64, contributorCount int) Decision {
	utilization := totalKW / capacityKW
	action, factor := Decide(utilization)

	average := 0.0
	if contributorCount > 0 {
		average = totalKW / float64(contributorCount)
	}

	var reason string
	switch action {
	case ActionNone:
		reason = fmt.Sprintf("grid at %.1f%% capacity, no action needed", utilization*100)
	case ActionCritical:
		reason = fmt.Sprintf("CRITICAL: grid at %.1f%% capacity, emergency 50%% reduction", utilization*100)
	default:
		reason = fmt.Sprintf("grid at %.1f%% capacity, requesting %.0f%% reduction", utilization*100, (1-factor)*100)
	}

	return Decision{
		RoundID:         roundID,
		TotalKW:         totalKW,
		AverageKW:       average,
		CapacityKW:      capacityKW,
		Utilization:     utilization,
		Action:          action,
		ReductionFactor: factor,
		Reason:          reason,
	}
}
