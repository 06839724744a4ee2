// util/cache_service.go

package util

import (
	"context"

	"github.com/stonefield/resourcing/db"
	"github.com/stonefield/resourcing/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetResource(ctx context.Context, resourceID string) (*model.ResourceItem, error) {
	return db.GetCachedResource(ctx, resourceID)
}

func (c *CacheService) SetResource(ctx context.Context, resource model.ResourceItem) error {
	return db.CacheResource(ctx, &resource)
}

func (c *CacheService) DeleteResource(ctx context.Context, resourceID string) error {
	return db.DeleteCachedResource(ctx, resourceID)
}

func (c *CacheService) GetAgentConfig(ctx context.Context, tenantID string) (*model.AgentConfiguration, error) {
	return db.GetCachedAgentConfig(ctx, tenantID)
}

func (c *CacheService) SetAgentConfig(ctx context.Context, cfg model.AgentConfiguration) error {
	return db.CacheAgentConfig(ctx, &cfg)
}

func (c *CacheService) DeleteAgentConfig(ctx context.Context, tenantID string) error {
	return db.DeleteCachedAgentConfig(ctx, tenantID)
}
