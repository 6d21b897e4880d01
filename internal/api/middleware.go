package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/annel0/horde-survival/internal/auth"
)

const operatorKey = "operator"

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin обрабатывает запрос на вход оператора
func (rs *RestServer) handleLogin(c *gin.Context) {
	if rs.auth == nil {
		c.JSON(http.StatusForbidden, GenericResponse{Success: false, Message: "Аутентификация не настроена"})
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	token, err := rs.auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, GenericResponse{Success: false, Message: "Неверное имя пользователя или пароль"})
		return
	}
	if err != nil {
		rs.internalError(c, err)
		return
	}
	rs.logger.Info("🔑 Оператор %s вошёл", req.Username)
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Успешный вход", Data: gin.H{"token": token}})
}

// jwtMiddleware проверяет JWT токен в заголовке Authorization
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.auth == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Изменяющие операции отключены",
			})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			return
		}

		// Проверяем формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Неверный формат токена",
			})
			return
		}

		claims, err := rs.auth.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			return
		}
		c.Set(operatorKey, claims.Operator)
		c.Next()
	}
}
