package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/horde-survival/internal/auth"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/metrics"
	"github.com/annel0/horde-survival/internal/middleware"
	"github.com/annel0/horde-survival/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// RestServer отдаёт итоги забегов, баланс и метрики раннера
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	repo    storage.RunRepo
	balance *config.Balance
	process *metrics.ProcessMetrics
	auth    *auth.Authenticator
	started time.Time
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // адрес для запуска сервера
	Repo     storage.RunRepo      // хранилище итогов
	Balance  *config.Balance      // баланс текущего запуска, может быть nil
	Registry *prometheus.Registry // общий регистр метрик, отдаётся на /metrics
	Process  *metrics.ProcessMetrics
	// Auth защищает изменяющие маршруты. nil: они отключены.
	Auth *auth.Authenticator
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) *RestServer {
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("horde_api"))
	router.Use(middleware.NewRequestLogger().Handler())
	router.Use(middleware.NewPrometheusMiddleware("horde_api", cfg.Registry).Handler())

	rs := &RestServer{
		router:  router,
		repo:    cfg.Repo,
		balance: cfg.Balance,
		process: cfg.Process,
		auth:    cfg.Auth,
		started: time.Now(),
		logger:  logging.GetComponentLogger("api"),
	}
	rs.server = &http.Server{Addr: cfg.Port, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/runs", rs.handleRecentRuns)
		api.GET("/runs/:id", rs.handleGetRun)
		api.GET("/summary", rs.handleSummary)
		api.GET("/balance", rs.handleBalance)
		api.POST("/auth/login", rs.handleLogin)
	}

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.DELETE("/runs/:id", rs.handleDeleteRun)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler роутер целиком, для тестов и встраивания
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxLimit {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "limit должен быть в диапазоне 1.." + strconv.Itoa(maxLimit),
		})
		return 0, false
	}
	return n, true
}

// handleRecentRuns последние забеги, новые первыми
func (rs *RestServer) handleRecentRuns(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	runs, err := rs.repo.Recent(c.Request.Context(), limit)
	if err != nil {
		rs.internalError(c, err)
		return
	}
	if runs == nil {
		runs = []storage.RunResult{}
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список забегов получен",
		Data: map[string]interface{}{
			"runs":  runs,
			"total": len(runs),
		},
	})
}

func (rs *RestServer) handleGetRun(c *gin.Context) {
	res, found, err := rs.repo.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.internalError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Забег не найден"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Забег найден", Data: res})
}

func (rs *RestServer) handleDeleteRun(c *gin.Context) {
	if err := rs.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		rs.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Забег удалён"})
}

// handleSummary сводка по последним limit забегам
func (rs *RestServer) handleSummary(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	runs, err := rs.repo.Recent(c.Request.Context(), limit)
	if err != nil {
		rs.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сводка", Data: storage.Summarize(runs)})
}

func (rs *RestServer) handleBalance(c *gin.Context) {
	if rs.balance == nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Баланс не загружен"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Баланс", Data: rs.balance})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
		"uptime": time.Since(rs.started).Round(time.Second).String(),
	}
	if rs.process != nil {
		body["heap_mb"] = rs.process.MemoryUsage()
	}
	c.JSON(http.StatusOK, body)
}

func (rs *RestServer) internalError(c *gin.Context, err error) {
	rs.logger.Error("ошибка обработки %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, GenericResponse{
		Success: false,
		Message: "Внутренняя ошибка сервера",
	})
}

// Start запускает REST сервер в отдельной горутине
func (rs *RestServer) Start() {
	go func() {
		rs.logger.Info("🌐 REST API доступен по адресу %s", rs.server.Addr)
		if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rs.logger.Error("❌ Ошибка REST API: %v", err)
		}
	}()
}

// Stop останавливает REST сервер, дожидаясь текущих запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rs.server.Shutdown(ctx)
}
