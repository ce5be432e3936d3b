package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seckill/internal/auth"
	"seckill/internal/catalog"
	"seckill/internal/config"
	"seckill/internal/model"
	"seckill/internal/queue"
	"seckill/internal/router"
	"seckill/internal/seckill"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 收到 SIGINT/SIGTERM 时取消根 context，后台循环据此退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. SQLite + 自动建表（票表的联合唯一索引在这里生效）
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}, &model.Activity{}, &model.Ticket{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// 2. Redis：口令、库存账本、活动锁、事件流、限流
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// 3. 事件通道：Stream → Relay → Kafka → 出票消费者
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}
	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	relay := queue.NewRelay(rdb, producer, cfg.ReservationStream, cfg.ReservationGroup, cfg.ReservationConsumer)
	go relay.Run(ctx)

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db, node)
	defer consumer.Close()
	go consumer.Run(ctx)

	// 4. 核心服务装配
	svc := seckill.NewService(
		seckill.NewRedisTokenStore(rdb, cfg.TokenTTL),
		seckill.NewRedisLedger(rdb, cfg.ReservationStream),
		seckill.NewRedisLocker(rdb, cfg.LockWait, cfg.LockLease),
		seckill.NewGormTicketReader(db),
		seckill.NewCachedActivityReader(db, rdb, cfg.ActivityCacheTTL),
	)
	cat := catalog.NewService(db, rdb, cfg.ActivityCacheTTL)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	r := gin.Default()
	router.Setup(r, svc, cat, rdb, verifier, cfg)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("seckill server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http serve: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
		os.Exit(1)
	}
}
