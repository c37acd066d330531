package agentlib_test

import (
	"math"
	"testing"

	"github.com/CamberLoid/Inazuma/internal/agentlib"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
)

func TestNewContribution(t *testing.T) {
	pub, sec, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}
	scheme := pedersen.NewScheme()
	agent := agentlib.NewAgent("household-01")

	const demand = 4.2
	contribution, opening, err := agent.NewContribution(pub, scheme, demand)
	if err != nil {
		t.Fatal(err)
	}

	if contribution.AgentID != agent.ID {
		t.Error("contribution does not carry the agent id")
	}

	// 密文部分能被 utility 解回原读数
	values, err := sec.Decrypt(contribution.Ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(values[0]-demand) > 0.01 {
		t.Errorf("ciphertext decrypts to %f, expected %f", values[0], demand)
	}

	// 承诺部分能被 opening 打开
	if opening.Value != demand {
		t.Errorf("opening value is %f, expected %f", opening.Value, demand)
	}
	if !scheme.Verify(contribution.Commitment, opening.Value, opening.Randomness, opening.ScaleFactor) {
		t.Error("commitment does not verify against its opening")
	}
}

// 盲化因子每次重新采样，同一读数两次提交的承诺必须不同
func TestFreshBlindingFactorPerContribution(t *testing.T) {
	pub, _, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}
	scheme := pedersen.NewScheme()
	agent := agentlib.NewAgent("household-01")

	c1, o1, err := agent.NewContribution(pub, scheme, 5.0)
	if err != nil {
		t.Fatal(err)
	}
	c2, o2, err := agent.NewContribution(pub, scheme, 5.0)
	if err != nil {
		t.Fatal(err)
	}

	if o1.Randomness.Cmp(o2.Randomness) == 0 {
		t.Error("blinding factor was reused across contributions")
	}
	if c1.Commitment.C.Cmp(c2.Commitment.C) == 0 {
		t.Error("commitments to the same demand are identical")
	}
}
