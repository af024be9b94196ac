package config

import "testing"

func validConfig() *Config {
	c := &Config{}
	c.Environment = "test"
	c.Backend.Type = "kafka"
	c.Feed.Symbols = []string{"AAPL"}
	c.Feed.APIKey = "key"
	return c
}

func TestValidateBackendTypes(t *testing.T) {
	for _, typ := range []string{"kafka", "clickhouse", "both"} {
		c := validConfig()
		c.Backend.Type = typ
		if err := c.Validate(); err != nil {
			t.Errorf("backend %q rejected: %v", typ, err)
		}
	}

	c := validConfig()
	c.Backend.Type = "postgres"
	if err := c.Validate(); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing environment", func(c *Config) { c.Environment = "" }},
		{"missing backend", func(c *Config) { c.Backend.Type = "" }},
		{"no symbols", func(c *Config) { c.Feed.Symbols = nil }},
		{"missing api key", func(c *Config) { c.Feed.APIKey = "" }},
		{"unnamed market", func(c *Config) { c.Markets = []MarketConfig{{TimeZone: "UTC"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("want validation error")
			}
		})
	}
}
