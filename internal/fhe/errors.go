package fhe

import "github.com/pkg/errors"

// 本包可能返回的协议级错误。
// 配置类错误（ErrKeyGeneration）是致命的，调用方必须中止启动；
// 其余错误只导致单条数据被拒绝，回合继续。
var (
	ErrKeyGeneration    = errors.New("fhe: parameter set below configured security floor")
	ErrCapacityExceeded = errors.New("fhe: input length exceeds ciphertext slot capacity")
	ErrWrongContext     = errors.New("fhe: ciphertext does not belong to this context")
	ErrContextMismatch  = errors.New("fhe: ciphertexts originate from different contexts")
)
