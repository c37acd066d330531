package keydist_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/keydist"
)

func TestDistributeAndImport(t *testing.T) {
	pub, sec, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}

	blob, err := keydist.DistributePublic(pub)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := keydist.ImportPublic(blob)
	if err != nil {
		t.Fatal(err)
	}

	if imported.Fingerprint() != pub.Fingerprint() {
		t.Errorf("imported fingerprint is %s, expected %s", imported.Fingerprint(), pub.Fingerprint())
	}
	if imported.ParamsName() != pub.ParamsName() {
		t.Errorf("imported params set is %s, expected %s", imported.ParamsName(), pub.ParamsName())
	}

	// 经导入的上下文加密，原始密钥持有者必须能解密
	ct, err := imported.Encrypt([]float64{6.8})
	if err != nil {
		t.Fatal(err)
	}
	values, err := sec.Decrypt(ct)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(values[0]-6.8) > 0.01 {
		t.Errorf("cross-context decryption drifted, got %f, expected 6.8", values[0])
	}
}

// 传输途中被调包的公钥在导入时必须被指纹核对拦下
func TestImportTamperedBlobRejected(t *testing.T) {
	pub, _, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}
	blob, err := keydist.DistributePublic(pub)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	if err = json.Unmarshal(blob, &fields); err != nil {
		t.Fatal(err)
	}
	fields["fingerprint"] = "deadbeefdeadbeef"
	tampered, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = keydist.ImportPublic(tampered); err == nil {
		t.Error("tampered blob was imported without error")
	}
}

func TestEpochRecordsContext(t *testing.T) {
	pub, _, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}

	epoch := keydist.NewEpoch(pub)
	if epoch.Fingerprint != pub.Fingerprint() {
		t.Error("epoch does not carry the context fingerprint")
	}
	if epoch.Params != pub.ParamsName() {
		t.Error("epoch does not carry the parameter set name")
	}
}

// 解密能力只允许 utility 角色触达
func TestExportPolicy(t *testing.T) {
	_, sec, err := fhe.GenerateKeys(fhe.Config{Params: "PN12QP109"})
	if err != nil {
		t.Fatal(err)
	}

	for _, role := range []keydist.Role{keydist.RoleAgent, keydist.RoleCoordinator} {
		if err := keydist.Export(role, sec); !errors.Is(err, keydist.ErrPolicyViolation) {
			t.Errorf("role %s: expected ErrPolicyViolation, got %v", role, err)
		}
	}
	if err := keydist.Export(keydist.RoleUtility, sec); err != nil {
		t.Errorf("utility role was denied: %v", err)
	}
	if err := keydist.Export(keydist.RoleUtility, nil); err == nil {
		t.Error("nil secret context passed the export check")
	}
}
