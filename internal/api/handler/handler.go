package handler

import (
	"github.com/d60-Lab/croak-backend/config"
	"github.com/d60-Lab/croak-backend/internal/cachestat"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/internal/service"
)

// Handler 聚合所有 HTTP 处理依赖
type Handler struct {
	cfg         *config.Config
	dispatcher  *service.Dispatcher
	digestSvc   service.DigestService
	relService  service.RelationshipService
	postService service.PostService
	queueRepo   repository.EmailQueueRepository
	prefRepo    repository.PreferenceRepository
	userRepo    repository.UserRepository
	statsCache  *cachestat.StatsCache
}

func New(cfg *config.Config,
	dispatcher *service.Dispatcher,
	digestSvc service.DigestService,
	relService service.RelationshipService,
	postService service.PostService,
	queueRepo repository.EmailQueueRepository,
	prefRepo repository.PreferenceRepository,
	userRepo repository.UserRepository,
	statsCache *cachestat.StatsCache,
) *Handler {
	return &Handler{
		cfg:         cfg,
		dispatcher:  dispatcher,
		digestSvc:   digestSvc,
		relService:  relService,
		postService: postService,
		queueRepo:   queueRepo,
		prefRepo:    prefRepo,
		userRepo:    userRepo,
		statsCache:  statsCache,
	}
}
