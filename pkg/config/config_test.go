package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate, got: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Negative Delay", func(c *Config) { c.Spider.RequestDelay = -0.5 }},
		{"Zero Page Limit", func(c *Config) { c.Spider.MaxPagesLimit = 0 }},
		{"Empty Database Path", func(c *Config) { c.Database.Path = "" }},
		{"Unknown Format", func(c *Config) { c.Output.DefaultFormat = "xml" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidateMaxPages(t *testing.T) {
	cfg := Default()
	cfg.Spider.MaxPagesLimit = 50

	if err := cfg.ValidateMaxPages(1); err != nil {
		t.Errorf("1 page should be valid: %v", err)
	}
	if err := cfg.ValidateMaxPages(50); err != nil {
		t.Errorf("limit itself should be valid: %v", err)
	}
	if err := cfg.ValidateMaxPages(0); err == nil {
		t.Errorf("0 pages must be rejected")
	}
	if err := cfg.ValidateMaxPages(51); err == nil {
		t.Errorf("pages above the limit must be rejected")
	}
}

func TestValidateFormat(t *testing.T) {
	for _, ok := range []string{"table", "json", "csv"} {
		if err := ValidateFormat(ok); err != nil {
			t.Errorf("%s should be supported: %v", ok, err)
		}
	}
	if err := ValidateFormat("yaml"); err == nil {
		t.Errorf("yaml is not a supported format")
	}
}
