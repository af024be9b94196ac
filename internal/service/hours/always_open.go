package hours

// AlwaysOpen is a continuously trading schedule, used for crypto markets
// and as the fallback for markets with no configured calendar.
func AlwaysOpen(market string) *Exchange {
	week := make(map[string][]string, len(weekdays))
	for name := range weekdays {
		week[name] = []string{"00:00-24:00"}
	}
	e, err := New(Config{Market: market, TimeZone: "UTC", Week: week})
	if err != nil {
		// static schedule, cannot fail
		panic(err)
	}
	return e
}
