package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/CamberLoid/Inazuma/internal/agentlib"
	"github.com/CamberLoid/Inazuma/internal/comparator"
	"github.com/CamberLoid/Inazuma/internal/coordlib"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/keydist"
	"github.com/CamberLoid/Inazuma/internal/misc"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
	"github.com/CamberLoid/Inazuma/internal/utilitylib"
)

// runDemo 在单进程内走完一个完整回合：
// utility 生成密钥 → agent 加密并承诺 → coordinator 聚合 →
// utility 解密、核对承诺并给出决策。
func runDemo(c *cli.Context) error {
	agentCount := c.Int("agents")
	capacityKW := c.Float64("capacity")
	cheat := c.Bool("cheat")

	// utility 生成部署密钥，公开上下文经 keydist 分发
	pub, secret, err := fhe.GenerateKeys(fhe.Config{})
	if err != nil {
		return err
	}
	blob, err := keydist.DistributePublic(pub)
	if err != nil {
		return err
	}
	agentCtx, err := keydist.ImportPublic(blob)
	if err != nil {
		return err
	}

	scheme := pedersen.NewScheme()
	utility := utilitylib.NewUtility(secret, scheme, capacityKW)

	roundID := uuid.New()
	round := coordlib.NewRound(agentCtx, scheme, roundID, agentCount)

	fmt.Printf("round %s, %d agents, capacity %.1f kW\n", roundID, agentCount, capacityKW)

	var expected float64
	for i := 0; i < agentCount; i++ {
		agent := agentlib.NewAgent(fmt.Sprintf("house_%03d", i+1))
		demand := misc.GenRandDemand()
		expected += demand

		contribution, opening, err := agent.NewContribution(agentCtx, scheme, demand)
		if err != nil {
			return err
		}
		if err = round.Submit(contribution); err != nil {
			return err
		}
		if err = utility.SubmitOpening(roundID, agent.ID, opening); err != nil {
			return err
		}
		fmt.Printf("  %s: %.2f kW committed and encrypted\n", agent.Name, demand)
	}

	result, err := round.Close()
	if err != nil {
		return err
	}

	if cheat {
		// 恶意 coordinator：换掉聚合密文，承诺乘积保持不变
		forged, err := agentCtx.Encrypt([]float64{expected + 10})
		if err != nil {
			return err
		}
		result.Ciphertext = forged
		fmt.Println("coordinator substituted a forged ciphertext (+10 kW)")
	}

	// 解密前的预警：比较器在密文域内给出软阈值分数
	detector := comparator.NewDetector(agentCtx)
	cmp, err := detector.Compare(result.Ciphertext, capacityKW)
	if err != nil {
		return err
	}
	score, err := utility.DecryptScore(cmp.Score)
	if err != nil {
		return err
	}
	interp := comparator.InterpretScore(score)
	fmt.Printf("early warning: zone=%s confidence=%.0f%%\n", interp.Zone, interp.Confidence*100)

	outcome, decided, err := utility.ProcessRound(result)
	if err != nil {
		return err
	}

	fmt.Printf("decrypted total: %.4f kW (expected %.4f)\n", outcome.DecryptedTotal, expected)
	fmt.Printf("verification: valid=%v reason=%s\n", outcome.IsValid, outcome.Reason)

	if outcome.IsValid {
		_ = round.MarkVerified()
		fmt.Printf("decision: action=%s factor=%.2f (%s)\n",
			decided.Action, decided.ReductionFactor, decided.Reason)
	} else {
		_ = round.MarkMismatch()
		fmt.Println("round discarded, agents must resubmit in a new round")
	}

	return nil
}
