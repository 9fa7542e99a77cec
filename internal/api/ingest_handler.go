package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"TaxonomySync/internal/model"
	"TaxonomySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type IngestHandler struct {
	ingestionService *service.IngestionService
	logger           *logrus.Logger
}

func NewIngestHandler(svc *service.IngestionService, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{
		ingestionService: svc,
		logger:           logger,
	}
}

// ingestBody 上游解析流水线提交的原始行
type ingestBody struct {
	IngestionJobID string                 `json:"ingestionJobId"`
	DatasetType    model.DatasetType      `json:"datasetType"`
	RawPayload     json.RawMessage        `json:"rawPayload"`
	SourceURL      string                 `json:"sourceUrl"`
	ParserVersion  string                 `json:"parserVersion"`
	ParseSummary   map[string]interface{} `json:"parseSummary"`
}

// Ingest 入库一份解析结果
// @Summary 入库套系层级数据
// @Param set_id path string true "套系ID"
// @Success 200 {object} service.IngestResult
// @Failure 400 {object} map[string]string
// @Router /api/taxonomy/sets/{set_id}/ingest [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	var body ingestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.DatasetType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datasetType is required"})
		return
	}

	result, err := h.ingestionService.Ingest(c.Request.Context(), &service.IngestRequest{
		SetID:          c.Param("set_id"),
		IngestionJobID: body.IngestionJobID,
		DatasetType:    body.DatasetType,
		RawPayload:     body.RawPayload,
		SourceURL:      body.SourceURL,
		ParserVersion:  body.ParserVersion,
		ParseSummary:   body.ParseSummary,
		Actor:          actorOf(c),
	})
	if err != nil {
		h.logger.WithError(err).WithField("set_id", c.Param("set_id")).Error("Ingest failed")
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Backfill 从旧版变体回填最小层级并刷新映射
// POST /api/taxonomy/sets/:set_id/backfill
func (h *IngestHandler) Backfill(c *gin.Context) {
	var body struct {
		IngestionJobID string `json:"ingestionJobId"`
		SourceLabel    string `json:"sourceLabel"`
	}
	// body 可为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	result, err := h.ingestionService.BackfillFromLegacyVariants(c.Request.Context(), &service.BackfillRequest{
		SetID:          c.Param("set_id"),
		IngestionJobID: body.IngestionJobID,
		SourceLabel:    body.SourceLabel,
		Actor:          actorOf(c),
	})
	if err != nil {
		h.logger.WithError(err).WithField("set_id", c.Param("set_id")).Error("Backfill failed")
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Patch 人工补丁：直接提交规范化实体，来源记为 MANUAL_PATCH
// POST /api/taxonomy/sets/:set_id/patch
func (h *IngestHandler) Patch(c *gin.Context) {
	var patch service.ManualPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patch contains no entities"})
		return
	}
	patch.SetID = c.Param("set_id")
	patch.Actor = actorOf(c)

	result, err := h.ingestionService.ApplyManualPatch(c.Request.Context(), &patch)
	if err != nil {
		h.logger.WithError(err).WithField("set_id", patch.SetID).Error("Manual patch failed")
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// statusOf 业务错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSetID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrIngestionDisabled):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotOpen):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
