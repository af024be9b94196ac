package scoring

import (
    "context"
    "fmt"

    "AlphaPull/internal/domain/models"
    domsvc "AlphaPull/internal/domain/service"
    "AlphaPull/pkg/config"
)

// HTTPScoreSource pulls score updates from the external scorer service.
type HTTPScoreSource struct{ base *HTTPServiceBase }

func NewHTTPScoreSource(cfg *config.Config) *HTTPScoreSource {
    return &HTTPScoreSource{base: NewHTTPServiceBase(cfg)}
}

type scoreReq struct {
    ID            string   `json:"id"`
    Symbol        string   `json:"symbol"`
    Market        string   `json:"market"`
    Type          string   `json:"type"`
    Direction     int      `json:"direction"`
    Magnitude     *float64 `json:"magnitude,omitempty"`
    Confidence    *float64 `json:"confidence,omitempty"`
    GeneratedUnix int64    `json:"generated_unix"`
    CloseUnix     int64    `json:"close_unix"`
    Reference     float64  `json:"reference_value"`
}

type scoreResp struct {
    DirectionScore      float64  `json:"direction_score"`
    MagnitudeScore      float64  `json:"magnitude_score"`
    Final               bool     `json:"final"`
    ReferenceValueFinal *float64 `json:"reference_value_final,omitempty"`
    EstimatedValue      *float64 `json:"estimated_value,omitempty"`
}

func (s *HTTPScoreSource) FetchScore(ctx context.Context, ins *models.Insight) (models.ScoreUpdate, error) {
    req := scoreReq{
        ID:            ins.ID,
        Symbol:        ins.Symbol.Ticker,
        Market:        ins.Symbol.Market,
        Type:          ins.Type.String(),
        Direction:     int(ins.Direction),
        Magnitude:     ins.Magnitude,
        Confidence:    ins.Confidence,
        GeneratedUnix: ins.GeneratedUTC.Unix(),
        CloseUnix:     ins.CloseTimeUTC.Unix(),
        Reference:     ins.ReferenceValue,
    }
    var resp scoreResp
    if err := s.base.PostJSONWithRetry(ctx, "/score", req, &resp, 3); err != nil {
        return models.ScoreUpdate{}, fmt.Errorf("fetch score %s: %w", ins.ID, err)
    }
    return models.ScoreUpdate{
        DirectionScore:      resp.DirectionScore,
        MagnitudeScore:      resp.MagnitudeScore,
        Final:               resp.Final,
        ReferenceValueFinal: resp.ReferenceValueFinal,
        EstimatedValue:      resp.EstimatedValue,
    }, nil
}

var _ domsvc.ScoreSource = (*HTTPScoreSource)(nil)
