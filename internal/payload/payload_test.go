package payload_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/CamberLoid/Inazuma/internal/agentlib"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/payload"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
)

func TestContributionRoundTrip(t *testing.T) {
	pub, sec, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}
	scheme := pedersen.NewScheme()

	const demand = 3.7
	contribution, opening, err := agentlib.NewAgent("meter").NewContribution(pub, scheme, demand)
	if err != nil {
		t.Fatal(err)
	}

	roundID := uuid.New()
	req, err := payload.FromContribution(roundID, contribution)
	if err != nil {
		t.Fatal(err)
	}

	// 走一遍 JSON，模拟真实的线上传输
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var received payload.ContributionReq
	if err = json.Unmarshal(body, &received); err != nil {
		t.Fatal(err)
	}
	if received.RoundID != roundID {
		t.Error("round id was lost in transit")
	}

	restored, err := received.Contribution(pub)
	if err != nil {
		t.Fatal(err)
	}
	if restored.AgentID != contribution.AgentID {
		t.Error("agent id was lost in transit")
	}
	if restored.Commitment.C.Cmp(contribution.Commitment.C) != 0 {
		t.Error("commitment was corrupted in transit")
	}

	values, err := sec.Decrypt(restored.Ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(values[0]-demand) > 0.01 {
		t.Errorf("restored ciphertext decrypts to %f, expected %f", values[0], demand)
	}
	if !scheme.Verify(restored.Commitment, opening.Value, opening.Randomness, opening.ScaleFactor) {
		t.Error("restored commitment does not verify against the opening")
	}
}

func TestOpeningRoundTrip(t *testing.T) {
	scheme := pedersen.NewScheme()
	r, err := scheme.NewRandomness()
	if err != nil {
		t.Fatal(err)
	}
	opening := &pedersen.Opening{Value: 2.5, Randomness: r, ScaleFactor: scheme.ScaleFactor}

	roundID, agentID := uuid.New(), uuid.New()
	req := payload.FromOpening(roundID, agentID, opening)
	if req.RoundID != roundID || req.AgentID != agentID {
		t.Error("identifiers were lost in encoding")
	}

	restored, err := req.Opening()
	if err != nil {
		t.Fatal(err)
	}
	if restored.Value != opening.Value {
		t.Errorf("value is %f, expected %f", restored.Value, opening.Value)
	}
	if restored.Randomness.Cmp(opening.Randomness) != 0 {
		t.Error("blinding factor was corrupted in encoding")
	}
	if restored.ScaleFactor != opening.ScaleFactor {
		t.Error("scale factor was lost in encoding")
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	pub, _, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}

	req := &payload.ContributionReq{Ciphertext: "not!!base64", Slots: 1, Commitment: "ff"}
	if _, err := req.Contribution(pub); err == nil {
		t.Error("malformed ciphertext was accepted")
	}

	opening := &payload.OpeningReq{Randomness: "zz-not-hex"}
	if _, err := opening.Opening(); err == nil {
		t.Error("malformed blinding factor was accepted")
	}
}
