// audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	Record(ctx context.Context, entry Entry) error
	QueryEntries(ctx context.Context, from, to time.Time, tenantID, requestID string) ([]Entry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	return s.repo.Record(ctx, entry)
}

func (s *service) QueryEntries(ctx context.Context, from, to time.Time, tenantID, requestID string) ([]Entry, error) {
	return s.repo.QueryEntries(ctx, from, to, tenantID, requestID)
}
