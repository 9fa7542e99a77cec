package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers 路由依赖
type Handlers struct {
	Auth       *AuthMiddleware
	Ingest     *IngestHandler
	Resolution *ResolutionHandler
	Review     *ReviewHandler
}

// RegisterRoutes 注册全部业务路由；写操作要求入库权限，查询只要求已认证
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	g := r.Group("/api", h.Auth.Authenticate())

	taxonomy := g.Group("/taxonomy")
	taxonomy.POST("/sets/:set_id/ingest", h.Auth.RequireIngest(), h.Ingest.Ingest)
	taxonomy.POST("/sets/:set_id/backfill", h.Auth.RequireIngest(), h.Ingest.Backfill)
	taxonomy.POST("/sets/:set_id/patch", h.Auth.RequireIngest(), h.Ingest.Patch)
	taxonomy.GET("/sets/:set_id/scope", h.Resolution.GetScope)
	taxonomy.GET("/sets/:set_id/program", h.Resolution.ResolveProgram)
	taxonomy.GET("/sets/:set_id/parallel", h.Resolution.ResolveParallel)
	taxonomy.POST("/identity/resolve", h.Resolution.ResolveIdentities)

	review := g.Group("/review")
	review.GET("/conflicts", h.Review.ListConflicts)
	review.GET("/ambiguities", h.Review.ListAmbiguities)
	review.POST("/conflicts/:id/resolve", h.Auth.RequireIngest(), h.Review.ResolveConflict)
	review.POST("/ambiguities/:id/dismiss", h.Auth.RequireIngest(), h.Review.DismissAmbiguity)
}
