package decision_test

import (
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/CamberLoid/Inazuma/internal/decision"
)

// 区间左闭右开：恰好落在边界上归入更高一档
func TestDecideBands(t *testing.T) {
	cases := []struct {
		utilization float64
		action      decision.Action
		factor      float64
	}{
		{0.0, decision.ActionNone, 1.00},
		{0.5, decision.ActionNone, 1.00},
		{0.799999, decision.ActionNone, 1.00},
		{0.80, decision.ActionReduce10, 0.90},
		{0.85, decision.ActionReduce10, 0.90},
		{0.90, decision.ActionReduce20, 0.80},
		{0.94, decision.ActionReduce20, 0.80},
		{0.95, decision.ActionReduce30, 0.70},
		{0.999, decision.ActionReduce30, 0.70},
		{1.00, decision.ActionCritical, 0.50},
		{1.50, decision.ActionCritical, 0.50},
	}

	for _, c := range cases {
		action, factor := decision.Decide(c.utilization)
		if action != c.action || factor != c.factor {
			t.Errorf("Decide(%f) = (%s, %.2f), expected (%s, %.2f)",
				c.utilization, action, factor, c.action, c.factor)
		}
	}
}

func TestNewDecisionRecord(t *testing.T) {
	roundID := uuid.New()
	d := decision.New(roundID, 92.0, 100.0, 4)

	if d.RoundID != roundID {
		t.Error("decision does not carry the round id")
	}
	if d.Action != decision.ActionReduce20 {
		t.Errorf("action is %s, expected %s", d.Action, decision.ActionReduce20)
	}
	if math.Abs(d.Utilization-0.92) > 1e-9 {
		t.Errorf("utilization is %f, expected 0.92", d.Utilization)
	}
	if math.Abs(d.AverageKW-23.0) > 1e-9 {
		t.Errorf("average is %f, expected 23.0", d.AverageKW)
	}
	if d.Reason == "" {
		t.Error("decision has no human-readable reason")
	}
}

func TestCriticalReasonIsFlagged(t *testing.T) {
	d := decision.New(uuid.New(), 120.0, 100.0, 2)
	if d.Action != decision.ActionCritical {
		t.Fatalf("action is %s, expected %s", d.Action, decision.ActionCritical)
	}
	if !strings.Contains(d.Reason, "CRITICAL") {
		t.Errorf("critical decision reason %q is not flagged", d.Reason)
	}
}

func TestZeroContributors(t *testing.T) {
	d := decision.New(uuid.New(), 0, 100.0, 0)
	if d.AverageKW != 0 {
		t.Errorf("average with zero contributors is %f, expected 0", d.AverageKW)
	}
	if d.Action != decision.ActionNone {
		t.Errorf("action is %s, expected %s", d.Action, decision.ActionNone)
	}
}
