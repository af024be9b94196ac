package hours

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"AlphaPull/internal/domain/models"
)

const (
	oneDay     = 24 * time.Hour
	dateLayout = "2006-01-02"
)

// Session is one contiguous open range inside a trading day, expressed as
// wall-clock offsets from local midnight.
type Session struct {
	Open  time.Duration
	Close time.Duration
}

// Config describes one market's weekly schedule. Sessions are "HH:MM-HH:MM"
// ranges keyed by lowercase weekday name, exception dates are "2006-01-02"
// in the market's zone.
type Config struct {
	Market      string              `yaml:"market"`
	TimeZone    string              `yaml:"timezone"`
	Week        map[string][]string `yaml:"week"`
	Holidays    []string            `yaml:"holidays"`
	EarlyCloses map[string]string   `yaml:"early_closes"`
	LateOpens   map[string]string   `yaml:"late_opens"`
}

// Exchange answers calendar questions for a single market: whether an
// instant is inside a trading session, and how trade bars line up around
// it. All methods take and return times in the exchange zone.
type Exchange struct {
	market      string
	loc         *time.Location
	week        [7][]Session
	holidays    map[string]bool
	earlyCloses map[string]time.Duration
	lateOpens   map[string]time.Duration
	regular     time.Duration
}

var _ models.MarketHours = (*Exchange)(nil)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// New builds an Exchange from its schedule config.
func New(cfg Config) (*Exchange, error) {
	if cfg.Market == "" {
		return nil, fmt.Errorf("market hours: market name is required")
	}
	loc := time.UTC
	if cfg.TimeZone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("market hours %s: load timezone: %w", cfg.Market, err)
		}
	}

	e := &Exchange{
		market:      cfg.Market,
		loc:         loc,
		holidays:    make(map[string]bool, len(cfg.Holidays)),
		earlyCloses: make(map[string]time.Duration, len(cfg.EarlyCloses)),
		lateOpens:   make(map[string]time.Duration, len(cfg.LateOpens)),
	}

	open := false
	for name, ranges := range cfg.Week {
		day, ok := weekdays[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("market hours %s: unknown weekday %q", cfg.Market, name)
		}
		for _, rng := range ranges {
			s, err := parseSession(rng)
			if err != nil {
				return nil, fmt.Errorf("market hours %s: %s: %w", cfg.Market, name, err)
			}
			e.week[day] = append(e.week[day], s)
			open = true
		}
		sessions := e.week[day]
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].Open < sessions[j].Open })
	}
	if !open {
		return nil, fmt.Errorf("market hours %s: schedule has no open sessions", cfg.Market)
	}

	for _, d := range cfg.Holidays {
		if _, err := time.ParseInLocation(dateLayout, d, loc); err != nil {
			return nil, fmt.Errorf("market hours %s: holiday %q: %w", cfg.Market, d, err)
		}
		e.holidays[d] = true
	}
	for date, clock := range cfg.EarlyCloses {
		off, err := parseExceptionClock(loc, date, clock)
		if err != nil {
			return nil, fmt.Errorf("market hours %s: early close: %w", cfg.Market, err)
		}
		e.earlyCloses[date] = off
	}
	for date, clock := range cfg.LateOpens {
		off, err := parseExceptionClock(loc, date, clock)
		if err != nil {
			return nil, fmt.Errorf("market hours %s: late open: %w", cfg.Market, err)
		}
		e.lateOpens[date] = off
	}

	e.regular = regularSession(e.week)
	return e, nil
}

// Market returns the market this schedule belongs to.
func (e *Exchange) Market() string { return e.market }

// TimeZone returns the exchange zone.
func (e *Exchange) TimeZone() *time.Location { return e.loc }

// RegularSessionDuration returns the open time of a normal trading day,
// the most common daily total across the week.
func (e *Exchange) RegularSessionDuration() time.Duration { return e.regular }

// Sessions returns the open ranges in effect on the given date, after
// holidays, early closes and late opens are applied.
func (e *Exchange) Sessions(date time.Time) []Session {
	key := date.Format(dateLayout)
	if e.holidays[key] {
		return nil
	}
	base := e.week[date.Weekday()]
	if len(base) == 0 {
		return nil
	}
	lateOpen, hasLate := e.lateOpens[key]
	earlyClose, hasEarly := e.earlyCloses[key]
	if !hasLate && !hasEarly {
		return base
	}
	out := make([]Session, 0, len(base))
	for _, s := range base {
		if hasLate {
			if s.Close <= lateOpen {
				continue
			}
			if s.Open < lateOpen {
				s.Open = lateOpen
			}
		}
		if hasEarly {
			if s.Open >= earlyClose {
				continue
			}
			if s.Close > earlyClose {
				s.Close = earlyClose
			}
		}
		out = append(out, s)
	}
	return out
}

// IsOpen reports whether the market is trading at the given local instant.
func (e *Exchange) IsOpen(local time.Time) bool {
	off := clockOffset(local)
	for _, s := range e.Sessions(local) {
		if off >= s.Open && off < s.Close {
			return true
		}
	}
	return false
}

// NextMarketOpen returns the earliest open instant at or after local.
func (e *Exchange) NextMarketOpen(local time.Time) time.Time {
	if e.IsOpen(local) {
		return local
	}
	day := dayStart(local)
	// a valid schedule opens within a week, plus however many holidays can
	// stack up in front of it
	for i := 0; i <= len(e.holidays)+8; i++ {
		for _, s := range e.Sessions(day) {
			if open := day.Add(s.Open); open.After(local) {
				return open
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return local
}

// EndOfBars walks barCount trade bars of barSize forward from startLocal
// and returns the instant the last one closes. Bars are aligned to
// midnight and only bars overlapping open trading time are counted, so a
// step that begins near the close spills into the next trading day.
func (e *Exchange) EndOfBars(startLocal time.Time, barSize time.Duration, barCount int) time.Time {
	if barCount < 1 || barSize <= 0 {
		return startLocal
	}
	if barSize >= oneDay {
		cur := dayStart(startLocal)
		for n := 0; n < barCount; {
			prev := cur
			cur = cur.AddDate(0, 0, 1)
			if e.tradableDate(prev) {
				n++
			}
		}
		return cur
	}
	cur := alignToBar(startLocal, barSize)
	for n := 0; n < barCount; {
		prev := cur
		cur = cur.Add(barSize)
		if e.isOpenBetween(prev, cur) {
			n++
		}
	}
	return cur
}

// BarsBetween counts the trade bars of barSize between the two local
// instants, using the same alignment and counting rule as EndOfBars.
func (e *Exchange) BarsBetween(startLocal, endLocal time.Time, barSize time.Duration) int {
	if !startLocal.Before(endLocal) || barSize <= 0 {
		return 0
	}
	count := 0
	if barSize >= oneDay {
		for day := dayStart(startLocal); day.Before(endLocal); day = day.AddDate(0, 0, 1) {
			if e.tradableDate(day) {
				count++
			}
		}
		return count
	}
	cur := alignToBar(startLocal, barSize)
	for cur.Before(endLocal) {
		prev := cur
		cur = cur.Add(barSize)
		if e.isOpenBetween(prev, cur) {
			count++
		}
	}
	return count
}

func (e *Exchange) tradableDate(day time.Time) bool {
	return len(e.Sessions(day)) > 0
}

func (e *Exchange) isOpenBetween(start, end time.Time) bool {
	for day := dayStart(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, s := range e.Sessions(day) {
			if day.Add(s.Open).Before(end) && day.Add(s.Close).After(start) {
				return true
			}
		}
	}
	return false
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clockOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func alignToBar(t time.Time, barSize time.Duration) time.Time {
	return dayStart(t).Add(clockOffset(t) / barSize * barSize)
}

func parseSession(s string) (Session, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Session{}, fmt.Errorf("malformed session %q, want HH:MM-HH:MM", s)
	}
	open, err := parseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return Session{}, err
	}
	close, err := parseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return Session{}, err
	}
	if close <= open {
		return Session{}, fmt.Errorf("session %q closes before it opens", s)
	}
	return Session{Open: open, Close: close}, nil
}

func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func parseExceptionClock(loc *time.Location, date, clock string) (time.Duration, error) {
	if _, err := time.ParseInLocation(dateLayout, date, loc); err != nil {
		return 0, fmt.Errorf("date %q: %w", date, err)
	}
	off, err := parseClock(clock)
	if err != nil {
		return 0, err
	}
	return off, nil
}

func regularSession(week [7][]Session) time.Duration {
	counts := make(map[time.Duration]int)
	for _, sessions := range week {
		var total time.Duration
		for _, s := range sessions {
			total += s.Close - s.Open
		}
		if total > 0 {
			counts[total]++
		}
	}
	var best time.Duration
	bestN := 0
	for total, n := range counts {
		if n > bestN || (n == bestN && total > best) {
			best, bestN = total, n
		}
	}
	return best
}
