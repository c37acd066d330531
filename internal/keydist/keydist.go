// 包 keydist 负责把加密上下文按角色分发，
// 并在 API 边界上阻止任何把解密能力交给非 utility 角色的尝试。
// 公开上下文可以经任意信道分发；SecretContext 不离开 utility 进程。
package keydist

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/fhe"
)

// Role 是方案中的三种信任角色
type Role string

const (
	RoleAgent       Role = "agent"
	RoleCoordinator Role = "coordinator"
	RoleUtility     Role = "utility"
)

// ErrPolicyViolation 表示试图把 SecretContext 交给非 utility 角色。
// 这是进程级不变量，不是约定：任何此类调用必须在边界上被拒绝。
var ErrPolicyViolation = errors.New("keydist: secret context must not leave the utility boundary")

// Epoch 记录一次密钥生成周期的元数据
type Epoch struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Params      string    `json:"params"`
	Fingerprint string    `json:"fingerprint"`
}

// NewEpoch 为一个新生成的上下文建立周期记录
func NewEpoch(ctx *fhe.PublicContext) *Epoch {
	return &Epoch{
		ID:          uuid.New(),
		CreatedAt:   time.Now(),
		Params:      ctx.ParamsName(),
		Fingerprint: ctx.Fingerprint(),
	}
}

// publicBlob 是公开上下文的线上格式，公钥部分使用 base64 编码
type publicBlob struct {
	Params      string `json:"params"`
	PublicKey   string `json:"publicKey"`
	Fingerprint string `json:"fingerprint"`
}

// DistributePublic 序列化公开上下文。
// 产物不含任何解密能力，可以经任意信道发送。
func DistributePublic(ctx *fhe.PublicContext) ([]byte, error) {
	pkBytes, err := ctx.PublicKeyBytes()
	if err != nil {
		return nil, errors.Wrap(err, "marshal public key")
	}
	return json.Marshal(publicBlob{
		Params:      ctx.ParamsName(),
		PublicKey:   base64.RawStdEncoding.EncodeToString(pkBytes),
		Fingerprint: ctx.Fingerprint(),
	})
}

// ImportPublic 在接收方重建公开上下文，
// 并核对指纹，防止传输途中被调包。
func ImportPublic(blob []byte) (*fhe.PublicContext, error) {
	var b publicBlob
	if err := json.Unmarshal(blob, &b); err != nil {
		return nil, errors.Wrap(err, "unmarshal public blob")
	}

	pkBytes, err := base64.RawStdEncoding.DecodeString(b.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "decode public key")
	}

	ctx, err := fhe.RestorePublic(b.Params, pkBytes)
	if err != nil {
		return nil, err
	}
	if ctx.Fingerprint() != b.Fingerprint {
		return nil, errors.Errorf("keydist: fingerprint mismatch, got %s want %s",
			ctx.Fingerprint(), b.Fingerprint)
	}
	return ctx, nil
}

// Export 是密钥材料离开进程的唯一入口。
// 只有 utility 角色能通过检查，而且即便是 utility，
// SecretContext 也只确认在进程内保留，绝不序列化。
func Export(role Role, secret *fhe.SecretContext) error {
	if secret == nil {
		return errors.New("keydist: nil secret context")
	}
	if role != RoleUtility {
		return errors.Wrapf(ErrPolicyViolation, "requested by role %q", role)
	}
	return nil
}
