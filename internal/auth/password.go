package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength минимальная длина пароля оператора
const MinPasswordLength = 8

var ErrWeakPassword = fmt.Errorf("auth: пароль короче %d символов", MinPasswordLength)

// HashPassword возвращает bcrypt-хеш пароля оператора для конфигурации.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword сверяет пароль с хешем
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validHash проверяет, что строка из конфигурации похожа на bcrypt-хеш,
// а не на пароль открытым текстом.
func validHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return errors.Join(errors.New("auth: ожидается bcrypt-хеш"), err)
	}
	return nil
}
