package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinLength = 6
	// MaxLength bcrypt 只接受72字节以内的输入
	MaxLength = 72
)

var (
	ErrTooShort = errors.New("password too short")
	ErrTooLong  = errors.New("password too long")
)

// Check 校验长度，按字节计算
func Check(plain string) error {
	switch {
	case len(plain) < MinLength:
		return ErrTooShort
	case len(plain) > MaxLength:
		return ErrTooLong
	}
	return nil
}

// Hash 校验长度后生成 bcrypt 哈希
func Hash(plain string) (string, error) {
	if err := Check(plain); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify 空哈希（例如第三方登录的账号）永远不匹配
func Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
