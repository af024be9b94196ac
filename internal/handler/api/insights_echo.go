package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	icache "AlphaPull/internal/service/cache"
	"AlphaPull/internal/service/ratelimit"
	"AlphaPull/internal/usecase"
	xhttp "AlphaPull/pkg/http"
	xlogger "AlphaPull/pkg/logger"
	"AlphaPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// InsightsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type InsightsEchoHandler struct {
	logger  *xlogger.Logger
	writer  *usecase.InsightWriteUseCase
	query   *usecase.InsightQueryUseCase
	applier *usecase.ScoreApplier
	metrics domrepo.Metrics
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewInsightsEchoHandler(logger *xlogger.Logger, writer *usecase.InsightWriteUseCase, query *usecase.InsightQueryUseCase, applier *usecase.ScoreApplier, metrics domrepo.Metrics) *InsightsEchoHandler {
	return &InsightsEchoHandler{
		logger:  logger,
		writer:  writer,
		query:   query,
		applier: applier,
		metrics: metrics,
		rl:      ratelimit.New(),
	}
}

// SetCache enables response caching for read endpoints.
func (h *InsightsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *InsightsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/insights", h.Create)
	g.GET("/insights", h.List)
	g.GET("/insights/active", h.Active)
	g.GET("/insights/:id", h.Get)
	g.DELETE("/insights/:id", h.Cancel)
	g.POST("/insights/group", h.Group)
	g.GET("/insights/group/:group_id", h.ByGroup)
	g.POST("/insights/:id/score", h.Score)
}

func (h *InsightsEchoHandler) Create(c echo.Context) error {
	req := &models.CreateInsightRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p := usecase.CreateInsightParams{
		Symbol:        req.Symbol,
		Market:        req.Market,
		Type:          req.Type,
		Direction:     req.Direction,
		Magnitude:     req.Magnitude,
		Confidence:    req.Confidence,
		Weight:        req.Weight,
		SourceModel:   req.SourceModel,
		Source:        req.Source,
		Tag:           req.Tag,
		PeriodSeconds: req.PeriodSeconds,
		Resolution:    req.Resolution,
		BarCount:      req.BarCount,
		ExpiryRule:    req.ExpiryRule,
	}
	if req.CloseTime != "" {
		t, ok := util.ParseTime(req.CloseTime)
		if !ok {
			return xhttp.BadRequestResponse(c, "close_time must be RFC3339 or unix seconds")
		}
		p.CloseTimeLocal = t
	}
	if req.Generated != "" {
		t, ok := util.ParseTime(req.Generated)
		if !ok {
			return xhttp.BadRequestResponse(c, "generated must be RFC3339 or unix seconds")
		}
		p.GeneratedUTC = t
	}

	ins, err := h.writer.Create(c.Request().Context(), p)
	if err != nil {
		return h.respondError(c, "insights.create", err)
	}
	return xhttp.CreatedResponse(c, ins.ToRecord())
}

func (h *InsightsEchoHandler) List(c echo.Context) error {
	req := &models.ListInsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "list", 5, 2) {
		return echo.NewHTTPError(429, "rate limited")
	}

	now := time.Now().UTC()
	from, to := util.AlignFromTo(
		util.ParseTimeDefault(req.From, now.Add(-24*time.Hour)),
		util.ParseTimeDefault(req.To, now),
		time.Minute,
	)
	p := usecase.ListInsightsParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	}

	cacheKey := fmt.Sprintf("insights:%s:%d:%d:%d", req.Symbol, p.From.Unix(), p.To.Unix(), p.Limit)
	if b, ok := h.cached(c.Request().Context(), cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.query.List(c.Request().Context(), p)
	if err != nil {
		return h.respondError(c, "insights.list", err)
	}
	payload := &xhttp.ListDataResponse{Rows: toRecords(res.Insights), Total: int64(res.Count)}
	h.store(c.Request().Context(), cacheKey, payload, 10*time.Second)
	return xhttp.SuccessResponse(c, payload)
}

func (h *InsightsEchoHandler) Active(c echo.Context) error {
	req := &models.ActiveInsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "active", 5, 2) {
		return echo.NewHTTPError(429, "rate limited")
	}

	p := usecase.ActiveInsightsParams{Symbol: req.Symbol, Limit: req.Limit}
	if req.At != "" {
		t, ok := util.ParseTime(req.At)
		if !ok {
			return xhttp.BadRequestResponse(c, "at must be RFC3339 or unix seconds")
		}
		p.At = t
	}

	insights, err := h.query.Active(c.Request().Context(), p)
	if err != nil {
		return h.respondError(c, "insights.active", err)
	}
	return xhttp.ListResponse(c, toRecords(insights), int64(len(insights)))
}

func (h *InsightsEchoHandler) Get(c echo.Context) error {
	ins, err := h.query.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, "insights.get", err)
	}
	return xhttp.SuccessResponse(c, ins.ToRecord())
}

func (h *InsightsEchoHandler) Cancel(c echo.Context) error {
	ins, err := h.writer.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, "insights.cancel", err)
	}
	return xhttp.SuccessResponse(c, ins.ToRecord())
}

func (h *InsightsEchoHandler) Group(c echo.Context) error {
	req := &models.GroupInsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	gid, err := h.writer.Group(c.Request().Context(), req.IDs)
	if err != nil {
		return h.respondError(c, "insights.group", err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"group_id": gid})
}

func (h *InsightsEchoHandler) ByGroup(c echo.Context) error {
	insights, err := h.query.ByGroup(c.Request().Context(), c.Param("group_id"))
	if err != nil {
		return h.respondError(c, "insights.by_group", err)
	}
	return xhttp.ListResponse(c, toRecords(insights), int64(len(insights)))
}

func (h *InsightsEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreInsightRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	upd := models.ScoreUpdate{
		DirectionScore:      req.DirectionScore,
		MagnitudeScore:      req.MagnitudeScore,
		Final:               req.Final,
		ReferenceValueFinal: req.ReferenceValueFinal,
		EstimatedValue:      req.EstimatedValue,
	}
	if err := h.applier.Apply(c.Request().Context(), c.Param("id"), upd); err != nil {
		return h.respondError(c, "insights.score", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *InsightsEchoHandler) allow(c echo.Context, op string, capacity, refill float64) bool {
	if h.rl.Allow(c.RealIP()+":"+op, capacity, refill) {
		return true
	}
	h.metrics.RecordError("api_rate_limited")
	h.logger.Warn("api rate limited",
		xlogger.String("op", op),
		xlogger.String("remote", c.RealIP()))
	return false
}

func (h *InsightsEchoHandler) cached(ctx context.Context, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return b, true
}

func (h *InsightsEchoHandler) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = h.cache.SetBytes(ctx, key, b, ttl)
}

func (h *InsightsEchoHandler) respondError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundResponse(c, err.Error())
	case errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrAlreadyGrouped):
		return xhttp.BadRequestResponse(c, err.Error())
	default:
		h.metrics.RecordError("api_" + op)
		h.logger.Error(op+" failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("%s failed", op).WithError(err))
	}
}

func toRecords(insights []*models.Insight) []models.InsightRecord {
	out := make([]models.InsightRecord, 0, len(insights))
	for _, ins := range insights {
		out = append(out, ins.ToRecord())
	}
	return out
}
