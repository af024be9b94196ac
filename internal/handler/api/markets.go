package api

import (
	"fmt"
	"time"

	"AlphaPull/internal/service/hours"
	xhttp "AlphaPull/pkg/http"

	"github.com/labstack/echo/v4"
)

// MarketsHandler exposes the configured trading calendars.
type MarketsHandler struct {
	calendar *hours.Registry
}

func NewMarketsHandler(calendar *hours.Registry) *MarketsHandler {
	return &MarketsHandler{calendar: calendar}
}

func (h *MarketsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/markets", h.List)
	g.GET("/markets/:market", h.Get)
}

func (h *MarketsHandler) List(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string][]string{"markets": h.calendar.Markets()})
}

type sessionView struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type marketView struct {
	Market                string        `json:"market"`
	TimeZone              string        `json:"timezone"`
	RegularSessionSeconds float64       `json:"regular_session_seconds"`
	OpenNow               bool          `json:"open_now"`
	NextOpenUTC           time.Time     `json:"next_open_utc"`
	SessionsToday         []sessionView `json:"sessions_today"`
}

func (h *MarketsHandler) Get(c echo.Context) error {
	ex, ok := h.calendar.Exchange(c.Param("market"))
	if !ok {
		return xhttp.NotFoundResponse(c, fmt.Sprintf("market %s not configured", c.Param("market")))
	}

	nowLocal := time.Now().In(ex.TimeZone())
	sessions := ex.Sessions(nowLocal)
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{Open: clockString(s.Open), Close: clockString(s.Close)})
	}

	return xhttp.SuccessResponse(c, marketView{
		Market:                ex.Market(),
		TimeZone:              ex.TimeZone().String(),
		RegularSessionSeconds: ex.RegularSessionDuration().Seconds(),
		OpenNow:               ex.IsOpen(nowLocal),
		NextOpenUTC:           ex.NextMarketOpen(nowLocal).UTC(),
		SessionsToday:         views,
	})
}

func clockString(off time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(off.Hours()), int(off.Minutes())%60)
}
