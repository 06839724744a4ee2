// db/redis.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

var RedisClient *redis.Client

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func CacheResource(ctx context.Context, resource *model.ResourceItem) error {
	resourceJSON, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to marshal resource: %w", err)
	}

	key := fmt.Sprintf("resource:%s", resource.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, resourceJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache resource: %w", err)
	}

	logger.Debug("Resource cached successfully", zap.String("resourceID", resource.ID))
	return nil
}

func GetCachedResource(ctx context.Context, resourceID string) (*model.ResourceItem, error) {
	key := fmt.Sprintf("resource:%s", resourceID)
	resourceJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Resource not found in cache", zap.String("resourceID", resourceID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get resource from cache: %w", err)
	}

	var resource model.ResourceItem
	err = json.Unmarshal([]byte(resourceJSON), &resource)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource: %w", err)
	}

	logger.Debug("Resource retrieved from cache", zap.String("resourceID", resourceID))
	return &resource, nil
}

func DeleteCachedResource(ctx context.Context, resourceID string) error {
	key := fmt.Sprintf("resource:%s", resourceID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete resource from cache: %w", err)
	}
	logger.Debug("Resource deleted from cache", zap.String("resourceID", resourceID))
	return nil
}

func CacheAgentConfig(ctx context.Context, cfg *model.AgentConfiguration) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal agent config: %w", err)
	}

	key := fmt.Sprintf("agentconfig:%s", cfg.TenantID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, cfgJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache agent config: %w", err)
	}

	logger.Debug("Agent config cached successfully", zap.String("tenantID", cfg.TenantID))
	return nil
}

func GetCachedAgentConfig(ctx context.Context, tenantID string) (*model.AgentConfiguration, error) {
	key := fmt.Sprintf("agentconfig:%s", tenantID)
	cfgJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Agent config not found in cache", zap.String("tenantID", tenantID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get agent config from cache: %w", err)
	}

	var cfg model.AgentConfiguration
	err = json.Unmarshal([]byte(cfgJSON), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent config: %w", err)
	}

	logger.Debug("Agent config retrieved from cache", zap.String("tenantID", tenantID))
	return &cfg, nil
}

func DeleteCachedAgentConfig(ctx context.Context, tenantID string) error {
	key := fmt.Sprintf("agentconfig:%s", tenantID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete agent config from cache: %w", err)
	}
	logger.Debug("Agent config deleted from cache", zap.String("tenantID", tenantID))
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

func LockTenant(ctx context.Context, tenantID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:tenant:%s", tenantID)
	locked, err := RedisClient.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	logger.Debug("Lock acquisition attempt",
		zap.String("tenantID", tenantID),
		zap.Bool("locked", locked))
	return locked, nil
}

func UnlockTenant(ctx context.Context, tenantID string) error {
	key := fmt.Sprintf("lock:tenant:%s", tenantID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	logger.Debug("Lock released", zap.String("tenantID", tenantID))
	return nil
}
