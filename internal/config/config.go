package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox（中签事件原子入流，Relay 异步转 Kafka）
	ReservationStream   string
	ReservationGroup    string
	ReservationConsumer string

	// 秒杀口令与临界区参数
	TokenTTL  time.Duration // 秒杀口令有效期
	LockWait  time.Duration // 获取活动锁的最长等待
	LockLease time.Duration // 活动锁租约，防止持有者崩溃后死锁

	// 抢购接口限流与活动缓存策略
	BuyRateLimit     int
	BuyRateWindow    time.Duration
	ActivityCacheTTL time.Duration

	// 预热接口的简单管理员令牌（demo 级别保护）
	AdminToken string

	// JWT 签名密钥（与身份服务共享）
	JWTSecret string
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "seckill.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             0,
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "seckill-reservations"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "seckill-ticket-writer"),
		ReservationStream:   getEnv("RESERVATION_STREAM", "seckill:stream"),
		ReservationGroup:    getEnv("RESERVATION_GROUP", "seckill-relay-group"),
		ReservationConsumer: getEnv("RESERVATION_CONSUMER", "seckill-relay-1"),
		TokenTTL:            5 * time.Minute,
		LockWait:            3 * time.Second,
		LockLease:           10 * time.Second,
		BuyRateLimit:        1000,
		BuyRateWindow:       time.Second,
		ActivityCacheTTL:    30 * time.Minute,
		AdminToken:          getEnv("ADMIN_TOKEN", "dev-admin-token"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	tokenTTLSec, err := getEnvInt("TOKEN_TTL_SEC", int(cfg.TokenTTL.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid TOKEN_TTL_SEC: %w", err)
	}
	if tokenTTLSec <= 0 {
		return AppConfig{}, fmt.Errorf("TOKEN_TTL_SEC must be > 0")
	}
	cfg.TokenTTL = time.Duration(tokenTTLSec) * time.Second

	lockWaitMs, err := getEnvInt("LOCK_WAIT_MS", int(cfg.LockWait.Milliseconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid LOCK_WAIT_MS: %w", err)
	}
	if lockWaitMs <= 0 {
		return AppConfig{}, fmt.Errorf("LOCK_WAIT_MS must be > 0")
	}
	cfg.LockWait = time.Duration(lockWaitMs) * time.Millisecond

	lockLeaseMs, err := getEnvInt("LOCK_LEASE_MS", int(cfg.LockLease.Milliseconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid LOCK_LEASE_MS: %w", err)
	}
	// 租约必须明显长于等待上限，否则极端情况下旧持有者未退出新持有者已进入。
	if lockLeaseMs <= lockWaitMs {
		return AppConfig{}, fmt.Errorf("LOCK_LEASE_MS must be > LOCK_WAIT_MS")
	}
	cfg.LockLease = time.Duration(lockLeaseMs) * time.Millisecond

	rateLimit, err := getEnvInt("BUY_RATE_LIMIT", cfg.BuyRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BUY_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("BUY_RATE_LIMIT must be > 0")
	}
	cfg.BuyRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("BUY_RATE_WINDOW_SEC", int(cfg.BuyRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BUY_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("BUY_RATE_WINDOW_SEC must be > 0")
	}
	cfg.BuyRateWindow = time.Duration(rateWindowSec) * time.Second

	cacheTTLMin, err := getEnvInt("ACTIVITY_CACHE_TTL_MIN", int(cfg.ActivityCacheTTL.Minutes()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid ACTIVITY_CACHE_TTL_MIN: %w", err)
	}
	if cacheTTLMin <= 0 {
		return AppConfig{}, fmt.Errorf("ACTIVITY_CACHE_TTL_MIN must be > 0")
	}
	cfg.ActivityCacheTTL = time.Duration(cacheTTLMin) * time.Minute

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.ReservationStream == "" {
		return AppConfig{}, fmt.Errorf("RESERVATION_STREAM must not be empty")
	}
	if cfg.ReservationGroup == "" {
		return AppConfig{}, fmt.Errorf("RESERVATION_GROUP must not be empty")
	}
	if cfg.ReservationConsumer == "" {
		return AppConfig{}, fmt.Errorf("RESERVATION_CONSUMER must not be empty")
	}
	if cfg.JWTSecret == "" {
		return AppConfig{}, fmt.Errorf("JWT_SECRET must not be empty")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
