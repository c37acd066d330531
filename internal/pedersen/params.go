package pedersen

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// 承诺群使用 RFC 3526 MODP Group 14 的 2048-bit 安全素数。
// 运行时生成同等规模的安全素数对正确性没有帮助，
// 固定公开参数也让所有角色无需协商。
const modpGroup14Hex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
	"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
	"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05" +
	"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
	"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718" +
	"3995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF"

// 第二生成元 h 的派生种子。公开发布，
// h = g^SHA3(seed) mod p，任何一方都不知道 log_g(h)。
var defaultHSeed = []byte("Inazuma_Pedersen_Commitment_Generator_H_v1")

// DefaultScaleFactor 把 kW 读数放大成整数，保留 6 位小数
const DefaultScaleFactor int64 = 1_000_000

// hashToExponent 把种子映射进指数域
func hashToExponent(seed []byte) *big.Int {
	sum := sha3.Sum256(seed)
	return new(big.Int).SetBytes(sum[:])
}
