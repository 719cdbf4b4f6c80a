package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	if err := Verify(Default()); err != nil {
		t.Fatalf("Verify(Default()) error = %v", err)
	}
}

func TestVerifyRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"nil addr", func(c *ServerConfig) { c.Server.Addr = "" }},
		{"zero databases", func(c *ServerConfig) { c.Server.Databases = 0 }},
		{"too many databases", func(c *ServerConfig) { c.Server.Databases = 100000 }},
		{"negative max clients", func(c *ServerConfig) { c.Limits.MaxClients = -1 }},
		{"negative conn rate", func(c *ServerConfig) { c.Limits.ConnRatePerSec = -1 }},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Verify(cfg); err == nil {
				t.Error("Verify() should reject the configuration")
			}
		})
	}

	if err := Verify(nil); err == nil {
		t.Error("Verify(nil) should fail")
	}
}
