package misc

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// GenRandDemand 生成一个随机的住户需求读数（0.00 ~ 10.00 kW），
// 供演示和测试使用
func GenRandDemand() float64 {
	randInt, _ := rand.Int(rand.Reader, big.NewInt(1000))
	return float64(randInt.Int64()) / 100.0
}

// RoundKW 把读数归整到两位小数
func RoundKW(v float64) float64 {
	value, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return value
}
