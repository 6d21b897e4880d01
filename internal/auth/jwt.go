// Package auth выдаёт и проверяет токены операторов REST API.
// Операторы задаются в конфигурации парами имя → bcrypt-хеш пароля.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "horde-simrun"

var (
	ErrBadCredentials = errors.New("auth: неверное имя или пароль")
	ErrInvalidToken   = errors.New("auth: недействительный токен")
)

// Claims represents JWT claims
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// Authenticator проверяет операторов и подписывает их токены
type Authenticator struct {
	secret    []byte
	operators map[string]string
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthenticator создаёт аутентификатор. secret в base64, не короче 32
// байт; пустой secret генерируется случайно (токены живут до перезапуска).
func NewAuthenticator(secret string, operators map[string]string, ttl time.Duration) (*Authenticator, error) {
	var key []byte
	if secret == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	} else {
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, err
		}
		if len(decoded) < 32 {
			return nil, errors.New("secret key must be at least 32 bytes")
		}
		key = decoded
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	ops := make(map[string]string, len(operators))
	for name, hash := range operators {
		if err := validHash(hash); err != nil {
			return nil, fmt.Errorf("оператор %s: %w", name, err)
		}
		ops[name] = hash
	}
	return &Authenticator{secret: key, operators: ops, ttl: ttl, now: time.Now}, nil
}

// Login проверяет пароль оператора и выдаёт токен
func (a *Authenticator) Login(name, password string) (string, error) {
	hash, ok := a.operators[name]
	if !ok || !CheckPassword(hash, password) {
		return "", ErrBadCredentials
	}
	return a.Issue(name)
}

// Issue подписывает токен для оператора без проверки пароля
func (a *Authenticator) Issue(name string) (string, error) {
	now := a.now()
	claims := &Claims{
		Operator: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   name,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Validate checks token validity and returns its claims
func (a *Authenticator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, ok := a.operators[claims.Operator]; !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecureSecret generates a new secure secret key
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
