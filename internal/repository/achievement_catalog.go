package repository

import (
	"context"
	"encoding/json"
	"errors"
	"learnquest_backend/internal/model"
	"learnquest_backend/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const catalogKeyPrefix = "learnquest:achievements:active:"

// AchievementCatalog 启用成就目录的读取入口，配置了 Redis 时带缓存。
// 目录只由管理端修改，这里允许 TTL 内的短暂不一致。
type AchievementCatalog struct {
	repo  *AchievementRepository
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewAchievementCatalog rdb 为 nil 时直接读数据库
func NewAchievementCatalog(repo *AchievementRepository, rdb *redis.Client, ttl time.Duration) *AchievementCatalog {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AchievementCatalog{repo: repo, rdb: rdb, ttl: ttl}
}

func catalogKey(criteria model.CriteriaType) string {
	if criteria == "" {
		return catalogKeyPrefix + "all"
	}
	return catalogKeyPrefix + string(criteria)
}

// catalogKeys 目录缓存可能用到的全部键，失效时逐个删除
func catalogKeys() []string {
	keys := []string{catalogKey("")}
	for _, criteria := range model.CriteriaTypes() {
		keys = append(keys, catalogKey(criteria))
	}
	return keys
}

func (c *AchievementCatalog) ListActive(ctx context.Context, criteria model.CriteriaType) ([]model.Achievement, error) {
	// 未知类型不进缓存，否则 Invalidate 清不到
	if c.rdb == nil || (criteria != "" && !criteria.IsKnown()) {
		return c.repo.ListActive(ctx, criteria)
	}

	key := catalogKey(criteria)
	if cached, ok := c.get(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// 结果由所有等待者共享，不能随第一个请求一起取消
		loadCtx := context.WithoutCancel(ctx)
		list, err := c.repo.ListActive(loadCtx, criteria)
		if err != nil {
			return nil, err
		}
		c.set(loadCtx, key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Achievement), nil
}

// Invalidate 清除所有目录缓存
func (c *AchievementCatalog) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, catalogKeys()...).Err()
}

func (c *AchievementCatalog) get(ctx context.Context, key string) ([]model.Achievement, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("achievement catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var list []model.Achievement
	if err := json.Unmarshal(raw, &list); err != nil {
		logger.Log.Warn("achievement catalog cache corrupted", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return list, true
}

func (c *AchievementCatalog) set(ctx context.Context, key string, list []model.Achievement) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Log.Warn("achievement catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
