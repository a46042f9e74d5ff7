package session

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
)

// Activation codes are four digits in [CodeMin..CodeMax].
const (
	CodeMin = 1111
	CodeMax = 9999
)

// CodeSource produces activation codes.
type CodeSource interface {
	Code() (string, error)
}

// CryptoCodeSource draws codes uniformly from crypto/rand.
type CryptoCodeSource struct {
	// Rand overrides the entropy source. Nil means crypto/rand.Reader.
	Rand io.Reader
}

// Code returns a uniformly random code in [CodeMin..CodeMax].
func (c CryptoCodeSource) Code() (string, error) {
	r := c.Rand
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+CodeMin, 10), nil
}
