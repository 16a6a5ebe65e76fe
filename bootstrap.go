package main

import (
	"context"
	"fmt"
	"io"

	"PPHub/global/config"
	"PPHub/logger"
	"PPHub/service/chat"
	"PPHub/service/kafka"
	"PPHub/service/mgo"
	"PPHub/service/natsx"
	"PPHub/service/storage"
	rds "PPHub/service/storage/redis"
	"PPHub/service/store"
	"PPHub/tools/ids"

	"go.uber.org/zap"
)

type closer func()

func nopCloser() {}

// openStore mongo 或内存实现
func openStore(ctx context.Context, cfg *config.AppConfig, gen *ids.Generator) (store.Store, closer, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(gen), nopCloser, nil
	}
	db, err := mgo.Connect(ctx, &mgo.Config{
		Uri:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		AuthSource:  cfg.Mongo.AuthSource,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MaxRetry:    cfg.Mongo.MaxRetry,
		Timeout:     cfg.Mongo.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: %w", err)
	}
	st := store.NewMongoStore(db, gen)
	if err := st.EnsureIndexes(ctx); err != nil {
		logger.Warn("ensure indexes", zap.Error(err))
	}
	return st, func() {
		c, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = db.Client().Disconnect(c)
	}, nil
}

// openPresence redis 地址为空时不启用镜像
func openPresence(ctx context.Context, cfg *config.AppConfig) (chat.PresenceMirror, closer, error) {
	if cfg.Redis.Addr == "" {
		return nil, nopCloser, nil
	}
	rdb, err := rds.NewClient(ctx, rds.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return storage.NewPresence(rdb, cfg.Server.NodeID, cfg.Redis.PresenceTTL), func() { _ = rdb.Close() }, nil
}

type eventBus interface {
	chat.Publisher
	io.Closer
}

func openPublisher(cfg *config.AppConfig) (chat.Publisher, closer, error) {
	var (
		bus eventBus
		err error
	)
	switch cfg.Events.Driver {
	case config.EventsDriverNats:
		bus, err = natsx.NewNatsxClient(natsx.NatsxConfig{
			Servers:  cfg.Nats.Servers,
			Name:     cfg.Nats.Name,
			User:     cfg.Nats.User,
			Password: cfg.Nats.Password,
			Timeout:  cfg.Nats.Timeout,
		})
	case config.EventsDriverKafka:
		bus, err = kafka.NewPublisher(kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			Version:     cfg.Kafka.Version,
			Retries:     cfg.Kafka.Retries,
			Compression: cfg.Kafka.Compression,
			ClientID:    cfg.Server.NodeID,
		})
	default:
		return nil, nopCloser, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cfg.Events.Driver, err)
	}
	return bus, func() { _ = bus.Close() }, nil
}
