package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ChatRelay/data/mongo/mongoutil"
	"ChatRelay/global/config"
	"ChatRelay/logger"
	"ChatRelay/module/message"
	"ChatRelay/module/room"
	"ChatRelay/service/auth"
	"ChatRelay/service/bus"
	"ChatRelay/service/chat"
	"ChatRelay/service/chat/handlers"
	"ChatRelay/service/dispatcher"
	"ChatRelay/service/queue"
	"ChatRelay/service/storage"
	storageredis "ChatRelay/service/storage/redis"
	"ChatRelay/tools/ids"
	"ChatRelay/tools/safe"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	// connection IDs must not collide across nodes
	ids.SetNodeID(int64(xxhash.Sum64String(cfg.NodeID) % 1024))

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// storage collaborator
	mongoCli, err := mongoutil.NewMongoDB(bootCtx, &mongoutil.Config{
		Uri:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		Username:    cfg.MongoUser,
		Password:    cfg.MongoPassword,
		MaxPoolSize: cfg.MongoPoolSize,
	})
	if err != nil {
		logger.Fatalf("mongo: %v", err)
	}
	rooms := room.NewRepo(mongoCli.GetDB())
	messages := message.NewRepo(mongoCli.GetDB())
	if err := rooms.EnsureIndexes(bootCtx); err != nil {
		logger.Fatalf("room indexes: %v", err)
	}
	if err := messages.EnsureIndexes(bootCtx); err != nil {
		logger.Fatalf("message indexes: %v", err)
	}

	// cluster session index
	rdb, err := storageredis.NewClient(storageredis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	active := storage.NewActiveIndex(rdb, cfg.NodeID)
	if err := active.Cleanup(bootCtx); err != nil {
		logger.Warnf("active index cleanup: %v", err)
	}

	// fan-out bus
	natsBus, err := bus.NewNatsBus(cfg.NatsServers)
	if err != nil {
		logger.Fatalf("nats: %v", err)
	}
	defer natsBus.Close()

	// bot bridge
	producer, err := queue.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		logger.Fatalf("kafka producer: %v", err)
	}
	defer func() { _ = producer.Close() }()

	// connection gate
	var gate auth.Authenticator
	if cfg.AuthServer != "" {
		gate = auth.NewOracleClient(cfg.AuthServer, cfg.AuthTimeout)
	} else {
		logger.Warn("[boot] AUTH_SERVER unset, using local JWT validation")
		gate = auth.NewLocalValidator(cfg.JwtSecret)
	}

	deps := chat.Deps{
		Cfg:      cfg,
		Rooms:    rooms,
		Messages: messages,
		Bus:      natsBus,
		Auth:     gate,
		Producer: producer,
		Active:   active,
	}

	// bot reply consumer, one per node
	runCtx, stop := context.WithCancel(context.Background())
	consumer, err := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID)
	if err != nil {
		logger.Fatalf("kafka consumer: %v", err)
	}
	consumer.RegisterHandler(cfg.BotReplyTopic, chat.BotReplyHandler(deps))
	safe.Go("bot-consumer", func() {
		if err := consumer.Run(runCtx, []string{cfg.BotReplyTopic}); err != nil && err != context.Canceled {
			logger.Errorf("bot consumer stopped: %v", err)
		}
	})

	// sticky worker table
	sticky := dispatcher.NewSticky(cfg.Instances, dispatcher.NewWorkerFactory(deps, handlers.RegisterAll))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		logger.Fatalf("listen :%d: %v", cfg.Port, err)
	}
	logger.Infof("[boot] node=%s listening on :%d workers=%d", cfg.NodeID, cfg.Port, cfg.Instances)

	safe.Go("shutdown", func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("[boot] shutting down")
		stop()
		_ = ln.Close()
		shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shCancel()
		sticky.Stop(shCtx)
		_ = consumer.Close()
	})

	if err := sticky.Run(ln); err != nil {
		logger.Errorf("accept loop: %v", err)
	}
	logger.Info("[boot] bye")
}
