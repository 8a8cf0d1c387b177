package usecase

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// AssignAddressSuffix はクライアントIDからトンネルIPの末尾オクテットを導出する。
// MD5ハッシュの先頭16桁（64bit）を254で割った余りに2を加えることで、
// /24内のネットワークアドレス(.0)とゲートウェイ(.1)を避けた[2,255]の値になる。
// トンネル側のプロビジョニングスクリプトと同一の導出式であり、
// アルゴリズムと切り詰め幅を変えると割り当てが一致しなくなる。
func AssignAddressSuffix(clientID string) int {
	sum := md5.Sum([]byte(clientID))
	hexDigest := hex.EncodeToString(sum[:])

	// 先頭16桁は64bitに収まるためエラーにはならない
	v, _ := strconv.ParseUint(hexDigest[:16], 16, 64)
	return int(v%254) + 2
}
