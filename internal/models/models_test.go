package models

import "testing"

func TestValidateSeedURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http URL", "http://example.com", false},
		{"valid https URL", "https://example.com", false},
		{"URL with path", "https://example.com/path/to/resource", false},
		{"invalid scheme", "ftp://example.com", true},
		{"not a URL", "not a url", true},
		{"empty URL", "", true},
		{"missing scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeedURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSeedURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewIDIsUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || b == "" {
		t.Fatal("NewID returned an empty string")
	}
	if a == b {
		t.Fatal("NewID returned the same value twice")
	}
}

func TestScanConfigValidate(t *testing.T) {
	base := func() ScanConfig {
		return ScanConfig{
			SeedURL:           "https://example.com",
			MaxDepth:          5,
			MaxPages:          100,
			WalkerWorkers:     4,
			DownloaderWorkers: 4,
			ExtractorWorkers:  4,
			ScriptsChanCap:    64,
			SourcesChanCap:    32,
		}
	}

	if err := func() error { c := base(); return c.Validate() }(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*ScanConfig)
	}{
		{"empty seed", func(c *ScanConfig) { c.SeedURL = "" }},
		{"invalid seed", func(c *ScanConfig) { c.SeedURL = "://bad" }},
		{"depth too high", func(c *ScanConfig) { c.MaxDepth = 101 }},
		{"negative depth", func(c *ScanConfig) { c.MaxDepth = -1 }},
		{"zero max pages", func(c *ScanConfig) { c.MaxPages = 0 }},
		{"walker workers too low", func(c *ScanConfig) { c.WalkerWorkers = 1 }},
		{"walker workers too high", func(c *ScanConfig) { c.WalkerWorkers = 33 }},
		{"scripts chan cap too low", func(c *ScanConfig) { c.ScriptsChanCap = 10 }},
		{"sources chan cap too low", func(c *ScanConfig) { c.SourcesChanCap = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestNewInlineScriptURL(t *testing.T) {
	got := NewInlineScriptURL("https://example.com/page", 2)
	want := "https://example.com/page#script-2"
	if got != want {
		t.Errorf("NewInlineScriptURL() = %q, want %q", got, want)
	}
}

func TestScriptKindString(t *testing.T) {
	if ScriptExternal.String() != "external" {
		t.Errorf("ScriptExternal.String() = %q", ScriptExternal.String())
	}
	if ScriptInline.String() != "inline" {
		t.Errorf("ScriptInline.String() = %q", ScriptInline.String())
	}
}
