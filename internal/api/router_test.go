package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"TaxonomySync/internal/adapter"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	editorToken = "editor-token"
	viewerToken = "viewer-token"
	setPath     = "/api/taxonomy/sets/" + "2024%20Topps%20Chrome"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(repository.Models()...))
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.Default()
	cfg.Auth.Tokens = map[string]string{editorToken: "taxonomy_editor", viewerToken: "viewer"}

	dispatcher, err := adapter.NewDispatcher(cfg, log)
	require.NoError(t, err)
	flags := service.NewStaticFeatureFlags(cfg.Features)
	cache := service.NewVariantSetCache(db, cfg.Ingestion.VariantSetCacheTTL, nil, log)
	audit := service.NewLogAuditSink(log)
	ingestion := service.NewIngestionService(db, dispatcher, log, cfg).
		WithFeatureFlags(flags).
		WithAuditSink(audit).
		WithCache(cache)

	r := gin.New()
	RegisterRoutes(r, &Handlers{
		Auth:       NewAuthMiddleware(service.NewStaticAuthorizer(cfg.Auth), log),
		Ingest:     NewIngestHandler(ingestion, log),
		Resolution: NewResolutionHandler(service.NewResolutionService(db, flags, cache, log), service.NewIdentityResolver(db, cache, log), log),
		Review:     NewReviewHandler(service.NewReviewService(db, audit, log), log),
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ingestBodyFor(rows ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"ingestionJobId": "job-1",
		"datasetType":    "CHECKLIST",
		"rawPayload":     map[string]interface{}{"rows": rows},
	}
}

func TestIngestRequiresIngestRole(t *testing.T) {
	r := newTestRouter(t)
	body := ingestBodyFor(map[string]interface{}{"program": "Base", "cardNumber": "1"})

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodPost, setPath+"/ingest", "", body).Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPost, setPath+"/ingest", viewerToken, body).Code)

	w := do(t, r, http.MethodPost, setPath+"/ingest", editorToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Applied)
	assert.Equal(t, "Topps", res.Adapter)
	assert.Equal(t, "2024 Topps Chrome", res.SetID)
	assert.Equal(t, 1, res.Counts.Cards)
}

func TestIngestValidation(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, setPath+"/ingest", editorToken, map[string]interface{}{"rawPayload": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/taxonomy/sets/%20/ingest", editorToken, ingestBodyFor())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScopeAndParallelQueries(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, setPath+"/ingest", editorToken,
		ingestBodyFor(map[string]interface{}{"program": "Base", "cardNumber": "1", "parallel": "Gold /50"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, setPath+"/scope", viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var scope service.MatcherScope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scope))
	assert.True(t, scope.HasTaxonomy)
	require.Len(t, scope.Programs, 1)
	assert.Equal(t, []string{"gold-50"}, scope.Programs[0].ParallelIDs)

	q := url.Values{"program": {"Base"}, "token": {"gold /50"}}
	w = do(t, r, http.MethodGet, setPath+"/parallel?"+q.Encode(), viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var par service.ScopedParallelResolution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &par))
	assert.True(t, par.InScope)

	w = do(t, r, http.MethodGet, setPath+"/parallel", viewerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/taxonomy/identity/resolve", viewerToken, map[string]interface{}{
		"items": []map[string]interface{}{{"setId": "2024 Topps Chrome", "cardNumber": "1", "parallel": "Gold /50"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ids struct {
		Items []service.Resolution `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	require.Len(t, ids.Items, 1)
	assert.Equal(t, "2024-topps-chrome::base::1::none::gold-50", ids.Items[0].Preferred)
	assert.Equal(t, service.StrategyScoped, ids.Items[0].Strategy)
}

func TestConflictReviewFlow(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, setPath+"/ingest", editorToken,
		ingestBodyFor(map[string]interface{}{"program": "Base", "cardNumber": "1", "playerName": "A. Example"}))
	require.Equal(t, http.StatusOK, w.Code)
	patch := ingestBodyFor(map[string]interface{}{"program": "Base", "cardNumber": "1", "playerName": "B. Other"})
	patch["datasetType"] = "MANUAL_PATCH"
	w = do(t, r, http.MethodPost, setPath+"/ingest", editorToken, patch)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/review/conflicts?set_id=2024%20Topps%20Chrome", viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
		Items []struct {
			ID            uint64 `json:"ID"`
			ConflictField string `json:"ConflictField"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "playerName", page.Items[0].ConflictField)

	path := "/api/review/conflicts/" + jsonNumber(page.Items[0].ID) + "/resolve"
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPost, path, viewerToken, map[string]string{"note": "x"}).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, path, editorToken, map[string]string{"note": "kept"}).Code)
	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPost, path, editorToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/api/review/conflicts/999/resolve", editorToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/review/conflicts/abc/resolve", editorToken, nil).Code)
}

func TestBackfillWithoutVariants(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, setPath+"/backfill", editorToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.BackfillResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Applied)
	assert.Equal(t, service.SkipNoLegacyVariants, res.SkippedReason)
}

func TestManualPatchDeflectsUnknownParallel(t *testing.T) {
	r := newTestRouter(t)
	patch := map[string]interface{}{
		"ingestionJobId": "patch-1",
		"programs":       []map[string]interface{}{{"label": "Base"}},
		"scopes":         []map[string]interface{}{{"programLabel": "Base", "parallelLabel": "Gold /99"}},
	}
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPost, setPath+"/patch", viewerToken, patch).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, setPath+"/patch", editorToken, map[string]interface{}{}).Code)

	w := do(t, r, http.MethodPost, setPath+"/patch", editorToken, patch)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Applied)
	assert.Equal(t, "manual_patch", res.Adapter)
	assert.Equal(t, model.SourceManualPatch, res.SourceKind)
	assert.Equal(t, 1, res.Counts.Programs)
	assert.Equal(t, 0, res.Counts.Scopes)
	assert.Equal(t, 1, res.Counts.Ambiguities)

	w = do(t, r, http.MethodGet, "/api/review/ambiguities?entity_type=PARALLEL_SCOPE", viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)
}

func jsonNumber(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
