package api

import (
	"net/http"
	"strconv"

	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReviewHandler 冲突与待定记录的审核接口
type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *logrus.Logger
}

func NewReviewHandler(svc *service.ReviewService, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: svc, logger: logger}
}

type pageResult struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

func reviewFilter(c *gin.Context) repository.ReviewFilter {
	return repository.ReviewFilter{
		SetID:      c.Query("set_id"),
		Status:     model.ReviewStatus(c.DefaultQuery("status", string(model.ReviewOpen))),
		EntityType: model.EntityType(c.Query("entity_type")),
	}
}

// ListConflicts 冲突列表 GET /api/review/conflicts?set_id=...&status=OPEN&page=1&page_size=50
func (h *ReviewHandler) ListConflicts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	list, total, err := h.reviewService.ListConflicts(c.Request.Context(), reviewFilter(c), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListConflicts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pageResult{Total: total, Page: page, PageSize: pageSize, Items: list})
}

// ListAmbiguities 待定列表 GET /api/review/ambiguities?set_id=...&status=OPEN
func (h *ReviewHandler) ListAmbiguities(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	list, total, err := h.reviewService.ListAmbiguities(c.Request.Context(), reviewFilter(c), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListAmbiguities failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pageResult{Total: total, Page: page, PageSize: pageSize, Items: list})
}

type reviewNote struct {
	Note string `json:"note"`
}

// ResolveConflict 关闭冲突（只记录备注，不应用任何值）POST /api/review/conflicts/:id/resolve
func (h *ReviewHandler) ResolveConflict(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body reviewNote
	_ = c.ShouldBindJSON(&body)

	result, err := h.reviewService.ResolveConflict(c.Request.Context(), id, body.Note, actorOf(c))
	if err != nil {
		h.logger.WithError(err).Error("ResolveConflict failed")
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// DismissAmbiguity 忽略待定记录 POST /api/review/ambiguities/:id/dismiss
func (h *ReviewHandler) DismissAmbiguity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body reviewNote
	_ = c.ShouldBindJSON(&body)

	result, err := h.reviewService.DismissAmbiguity(c.Request.Context(), id, body.Note, actorOf(c))
	if err != nil {
		h.logger.WithError(err).Error("DismissAmbiguity failed")
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
