package api

import (
	"net/http"

	"TaxonomySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ResolutionHandler 匹配器使用的只读查询接口
type ResolutionHandler struct {
	resolutionService *service.ResolutionService
	identityResolver  *service.IdentityResolver
	logger            *logrus.Logger
}

func NewResolutionHandler(resolution *service.ResolutionService, identity *service.IdentityResolver, logger *logrus.Logger) *ResolutionHandler {
	return &ResolutionHandler{
		resolutionService: resolution,
		identityResolver:  identity,
		logger:            logger,
	}
}

// GetScope 整套系层级视图
// GET /api/taxonomy/sets/:set_id/scope
func (h *ResolutionHandler) GetScope(c *gin.Context) {
	result, err := h.resolutionService.ResolveTaxonomyScopeForMatcher(c.Request.Context(), c.Param("set_id"))
	if err != nil {
		h.logger.WithError(err).Error("GetScope failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResolveProgram 卡种与变体
// GET /api/taxonomy/sets/:set_id/program?program=Base&variation=Photo
func (h *ResolutionHandler) ResolveProgram(c *gin.Context) {
	result, err := h.resolutionService.ResolveProgramAndVariation(c.Request.Context(), c.Param("set_id"), c.Query("program"), c.Query("variation"))
	if err != nil {
		h.logger.WithError(err).Error("ResolveProgram failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResolveParallel 平行版及其在卡种下的合法范围
// GET /api/taxonomy/sets/:set_id/parallel?program=Base&token=Gold%20%2F50
func (h *ResolutionHandler) ResolveParallel(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	result, err := h.resolutionService.ResolveScopedParallel(c.Request.Context(), c.Param("set_id"), c.Query("program"), token)
	if err != nil {
		h.logger.WithError(err).Error("ResolveParallel failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type identityItem struct {
	SetID         string `json:"setId" binding:"required"`
	CardNumber    string `json:"cardNumber" binding:"required"`
	ParallelLabel string `json:"parallel"`
}

// ResolveIdentities 批量解析规范键，一次请求只构建一次查找表
// POST /api/taxonomy/identity/resolve
func (h *ResolutionHandler) ResolveIdentities(c *gin.Context) {
	var body struct {
		Items []identityItem `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	setIDs := make([]string, 0, len(body.Items))
	for _, it := range body.Items {
		setIDs = append(setIDs, it.SetID)
	}
	ix, err := h.identityResolver.Build(c.Request.Context(), setIDs)
	if err != nil {
		h.logger.WithError(err).Error("ResolveIdentities failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]service.Resolution, 0, len(body.Items))
	for _, it := range body.Items {
		out = append(out, ix.Resolve(it.SetID, it.CardNumber, it.ParallelLabel))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}
