package alphafeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"AlphaPull/internal/domain/models"
	drepo "AlphaPull/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Config carries the feed connection settings.
type Config struct {
	APIKey         string
	WebSocketURL   string
	Symbols        []string
	Market         string
	SourceModel    string
	DefaultPeriod  time.Duration
	FlatTolerance  float64
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Client implements an InsightStream backed by the AlphaFeed WebSocket.
// Frames carry raw predictions; the client turns them into unresolved
// insights and leaves close-time resolution to the pipeline downstream.
type Client struct {
	cfg Config

	conn      *websocket.Conn
	connected bool
}

// New creates a new AlphaFeed InsightStream.
func New(cfg Config) drepo.InsightStream {
	if cfg.DefaultPeriod < time.Second {
		cfg.DefaultPeriod = 5 * time.Minute
	}
	return &Client{cfg: cfg}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.cfg.WebSocketURL, c.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("alphafeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("alphafeed: connected")
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("alphafeed not connected")
	}
	for _, s := range c.cfg.Symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("alphafeed: subscribed %s", s)
	}
	return nil
}

type feedPrediction struct {
	Symbol     string   `json:"symbol"`
	Market     string   `json:"market"`
	Kind       string   `json:"kind"`
	Direction  string   `json:"direction"`
	Period     float64  `json:"period"` // seconds
	Resolution string   `json:"resolution"`
	BarCount   int      `json:"bar_count"`
	Magnitude  *float64 `json:"magnitude"`
	Confidence *float64 `json:"confidence"`
	Weight     *float64 `json:"weight"`
	Model      string   `json:"model"`
	Tag        string   `json:"tag"`
	T          int64    `json:"t"` // ms
}

type feedMessage struct {
	Type string           `json:"type"`
	Data []feedPrediction `json:"data"`
}

// Read streams Insight events and errors. Both channels close when the
// read loop dies; callers reconnect and call Read again for a fresh pair.
func (c *Client) Read(ctx context.Context) (<-chan *models.Insight, <-chan error) {
	insights := make(chan *models.Insight, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// ping loop, tied to this read's lifetime
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(insights)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("alphafeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("alphafeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-prediction frames
					continue
				}
				if m.Type != "insight" {
					continue
				}
				for _, d := range m.Data {
					ins, err := c.buildInsight(d)
					if err != nil {
						log.Printf("alphafeed: drop prediction %s: %v", d.Symbol, err)
						continue
					}
					select {
					case insights <- ins:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return insights, errs
}

func (c *Client) buildInsight(d feedPrediction) (*models.Insight, error) {
	var direction models.Direction
	var err error
	if d.Direction == "" && d.Magnitude != nil {
		// some models send only an expected change; classify it
		direction = models.DirectionFromChange(*d.Magnitude, c.cfg.FlatTolerance)
	} else if direction, err = models.ParseDirection(d.Direction); err != nil {
		return nil, err
	}
	kind := models.TypePrice
	if d.Kind != "" {
		if kind, err = models.ParseInsightType(d.Kind); err != nil {
			return nil, err
		}
	}
	market := d.Market
	if market == "" {
		market = c.cfg.Market
	}
	model := d.Model
	if model == "" {
		model = c.cfg.SourceModel
	}

	opts := []models.InsightOption{models.WithSourceModel(model)}
	if d.Magnitude != nil {
		opts = append(opts, models.WithMagnitude(*d.Magnitude))
	}
	if d.Confidence != nil {
		opts = append(opts, models.WithConfidence(*d.Confidence))
	}
	if d.Weight != nil {
		opts = append(opts, models.WithWeight(*d.Weight))
	}
	if d.Tag != "" {
		opts = append(opts, models.WithTag(d.Tag))
	}

	sym := models.NewSymbol(d.Symbol, market)
	var ins *models.Insight
	if d.Resolution != "" && d.BarCount > 0 {
		res, rerr := models.ParseResolution(d.Resolution)
		if rerr != nil {
			return nil, rerr
		}
		ins, err = models.NewAtResolution(sym, kind, direction, res, d.BarCount, opts...)
	} else {
		period := time.Duration(d.Period * float64(time.Second))
		if period < time.Second {
			period = c.cfg.DefaultPeriod
		}
		ins, err = models.New(sym, kind, direction, period, opts...)
	}
	if err != nil {
		return nil, err
	}
	if d.T > 0 {
		ins.GeneratedUTC = time.Unix(d.T/1000, (d.T%1000)*int64(time.Millisecond)).UTC()
	} else {
		ins.GeneratedUTC = time.Now().UTC()
	}
	return ins, nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.cfg.ReconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
