package comparator_test

import (
	"math"
	"testing"

	"github.com/CamberLoid/Inazuma/internal/comparator"
	"github.com/CamberLoid/Inazuma/internal/fhe"
)

// 比较器测试使用部署默认参数集：
// 其明文容量足以覆盖 100 kW 量级的阈值输入。
func testContexts(t testing.TB) (*fhe.PublicContext, *fhe.SecretContext) {
	pub, sec, err := fhe.GenerateKeys(fhe.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return pub, sec
}

func compareAndDecrypt(t *testing.T, pub *fhe.PublicContext, sec *fhe.SecretContext, d *comparator.Detector, x, threshold float64) float64 {
	t.Helper()

	ct, err := pub.Encrypt([]float64{x})
	if err != nil {
		t.Fatal(err)
	}
	res, err := d.Compare(ct, threshold)
	if err != nil {
		t.Fatal(err)
	}
	values, err := sec.Decrypt(res.Score)
	if err != nil {
		t.Fatal(err)
	}
	return values[0]
}

// 阈值 100、灵敏度 10 时软区间为 [90, 110]：
// 区间下端以下分数趋近 0，阈值处为 0.5，上端以上趋近 1。
func TestCompareScoreMapping(t *testing.T) {
	pub, sec := testContexts(t)
	d := comparator.NewDetector(pub)
	d.Sensitivity = 10

	cases := []struct {
		x, expected float64
	}{
		{80, 0.0},
		{90, 0.25},
		{100, 0.5},
		{110, 0.75},
		{120, 1.0},
	}

	prev := math.Inf(-1)
	for _, c := range cases {
		score := compareAndDecrypt(t, pub, sec, d, c.x, 100)
		if math.Abs(score-c.expected) > 0.02 {
			t.Errorf("score(%f) = %f, expected %f", c.x, score, c.expected)
		}
		// 线性变换保序
		if score <= prev {
			t.Errorf("score(%f) = %f is not greater than the previous score %f", c.x, score, prev)
		}
		prev = score
	}
}

func TestCompareSoftZoneWidth(t *testing.T) {
	pub, _ := testContexts(t)
	d := comparator.NewDetector(pub)

	ct, err := pub.Encrypt([]float64{50})
	if err != nil {
		t.Fatal(err)
	}
	res, err := d.Compare(ct, 70)
	if err != nil {
		t.Fatal(err)
	}

	expected := 70 / comparator.DefaultSensitivity
	if math.Abs(res.SoftZoneWidth-expected) > 1e-9 {
		t.Errorf("soft zone width is %f, expected %f", res.SoftZoneWidth, expected)
	}
	if res.Threshold != 70 || res.Sensitivity != comparator.DefaultSensitivity {
		t.Error("result does not carry the comparison parameters")
	}
}

func TestCompareRejectsBadThreshold(t *testing.T) {
	pub, _ := testContexts(t)
	d := comparator.NewDetector(pub)

	ct, err := pub.Encrypt([]float64{1})
	if err != nil {
		t.Fatal(err)
	}
	for _, threshold := range []float64{0, -5} {
		if _, err := d.Compare(ct, threshold); err == nil {
			t.Errorf("expected error for threshold %f", threshold)
		}
	}
}

func TestInterpretScoreZones(t *testing.T) {
	cases := []struct {
		score      float64
		zone       comparator.Zone
		confidence float64
	}{
		// 远超 [0,1] 的分数按边界处理，置信度拉满
		{-3.0, comparator.ZoneBelow, 1.0},
		{0.0, comparator.ZoneBelow, 1.0},
		{0.15, comparator.ZoneBelow, 0.5},
		{0.3, comparator.ZoneUncertain, 1.0},
		{0.5, comparator.ZoneUncertain, 0.0},
		{0.7, comparator.ZoneUncertain, 1.0},
		{0.85, comparator.ZoneAbove, 0.5},
		{1.0, comparator.ZoneAbove, 1.0},
		{4.2, comparator.ZoneAbove, 1.0},
	}

	for _, c := range cases {
		got := comparator.InterpretScore(c.score)
		if got.Zone != c.zone {
			t.Errorf("score %f classified as %s, expected %s", c.score, got.Zone, c.zone)
			continue
		}
		if got.RawScore != c.score {
			t.Errorf("interpretation lost the raw score, got %f", got.RawScore)
		}
		if math.Abs(got.Confidence-c.confidence) > 1e-9 {
			t.Errorf("score %f confidence is %f, expected %f", c.score, got.Confidence, c.confidence)
		}
	}
}
