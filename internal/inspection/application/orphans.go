package application

import (
	"context"
	"strings"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

const (
	defaultOrphanPageSize = 50
	maxOrphanPageSize     = 200
)

// OrphanService describes the operator reconciliation use-cases.
type OrphanService interface {
	List(ctx context.Context, filter OrphanFilter, paging Paging) ([]domain.OrphanedUpload, error)
	Resolve(ctx context.Context, id string) (*domain.OrphanedUpload, error)
}

type orphanService struct {
	repo OrphanRepository
}

// NewOrphanService creates the reconciliation service.
func NewOrphanService(repo OrphanRepository) OrphanService {
	return &orphanService{repo: repo}
}

func (s *orphanService) List(ctx context.Context, filter OrphanFilter, paging Paging) ([]domain.OrphanedUpload, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	filter.StoreName = strings.TrimSpace(filter.StoreName)
	if paging.Page < 1 {
		paging.Page = 1
	}
	if paging.Limit <= 0 {
		paging.Limit = defaultOrphanPageSize
	}
	if paging.Limit > maxOrphanPageSize {
		paging.Limit = maxOrphanPageSize
	}
	return s.repo.Find(ctx, filter, paging)
}

func (s *orphanService) Resolve(ctx context.Context, id string) (*domain.OrphanedUpload, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ValidationError("id is required")
	}
	return s.repo.MarkResolved(ctx, id)
}
