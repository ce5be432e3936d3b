package router

import (
	"net/http"
	"strconv"

	"seckill/internal/auth"
	"seckill/internal/catalog"
	"seckill/internal/config"
	"seckill/internal/middleware"
	"seckill/internal/seckill"
	rediskey "seckill/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, svc *seckill.Service, cat *catalog.Service, rdb *rd.Client, verifier *auth.Verifier, cfg config.AppConfig) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	api := r.Group("/api/seckill")
	api.GET("/activities", listActivities(cat))
	api.GET("/stock/:activity_id", getStock(rdb))
	api.POST("/warmup", warmUp(cat, cfg.AdminToken))

	authed := api.Group("", middleware.RequireAuth(verifier))
	authed.GET("/path/:activity_id", issuePath(svc))
	authed.POST("/do", middleware.RedisRateLimit(rdb, cfg.BuyRateLimit, cfg.BuyRateWindow), doSeckill(svc))
	authed.GET("/result/:activity_id", getResult(svc))
}

// listActivities 列出进行中与即将开始的活动。
func listActivities(cat *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := cat.ListLive(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

// warmUp 从 DB 权威数据重建库存账本与活动缓存。
// 该接口要求简单管理员 token，避免被任意调用重置库存。
func warmUp(cat *catalog.Service, adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-Token") != adminToken {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "admin token 无效"})
			return
		}
		n, err := cat.WarmUp(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"warmed": n}})
	}
}

// getStock 查询 Redis 中的实时库存。
func getStock(rdb *rd.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		activityID, ok := parseActivityID(c)
		if !ok {
			return
		}
		val, err := rediskey.GetStock(c.Request.Context(), rdb, activityID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"stock": val}})
	}
}

// issuePath 为当前用户签发某活动的秒杀口令。
func issuePath(svc *seckill.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		activityID, ok := parseActivityID(c)
		if !ok {
			return
		}
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "未登录"})
			return
		}
		path, err := svc.IssuePath(c.Request.Context(), activityID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"path": path}})
	}
}

// doSeckill 抢购入口：准入临界区的 HTTP 封装。
// 每次请求恰好得到 {拒绝+原因, pending} 之一；确认结果只能轮询获得。
func doSeckill(svc *seckill.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ActivityID uint   `json:"activity_id" binding:"required,min=1"`
			Path       string `json:"path" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "未登录"})
			return
		}

		outcome, err := svc.Admit(c.Request.Context(), req.ActivityID, userID, req.Path)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}

		status := seckill.StatusEnded
		if outcome.Pending {
			status = seckill.StatusPending
		}
		c.JSON(http.StatusOK, gin.H{
			"code": 0,
			"data": gin.H{
				"status":  status,
				"reason":  outcome.Reason,
				"message": outcome.Message,
			},
		})
	}
}

// getResult 查询当前用户在某活动上的秒杀结果，纯读可重复轮询。
func getResult(svc *seckill.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		activityID, ok := parseActivityID(c)
		if !ok {
			return
		}
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "未登录"})
			return
		}
		result, err := svc.Result(c.Request.Context(), activityID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": result})
	}
}

// parseActivityID 解析路径参数中的活动ID，非法时直接写 400。
func parseActivityID(c *gin.Context) (uint, bool) {
	idStr := c.Param("activity_id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "活动ID无效"})
		return 0, false
	}
	return uint(id), true
}
