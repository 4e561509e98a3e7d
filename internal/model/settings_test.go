package model

import (
	"errors"
	"testing"
)

// TestProxySettingsValidate exercises the port boundary exactly:
// 0 and 65536 are rejected, 1 and 65535 are accepted.
func TestProxySettingsValidate(t *testing.T) {
	t.Parallel()

	valid := func() ProxySettings {
		return ProxySettings{Port: 1080, BindAddress: DefaultBindAddress}
	}

	t.Run("valid settings return nil", func(t *testing.T) {
		t.Parallel()
		if err := valid().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("port boundaries", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			port int
			ok   bool
		}{
			{0, false},
			{1, true},
			{65535, true},
			{65536, false},
			{-1, false},
		}
		for _, c := range cases {
			s := valid()
			s.Port = c.port
			err := s.Validate()
			if c.ok && err != nil {
				t.Errorf("port %d: expected valid, got %v", c.port, err)
			}
			if !c.ok && !errors.Is(err, ErrInvalidPort) {
				t.Errorf("port %d: expected ErrInvalidPort, got %v", c.port, err)
			}
		}
	})

	t.Run("empty bind address returns ErrEmptyBindAddress", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.BindAddress = ""
		if err := s.Validate(); !errors.Is(err, ErrEmptyBindAddress) {
			t.Errorf("expected ErrEmptyBindAddress, got %v", err)
		}
	})
}

// TestNewProxySettings verifies backend defaults are applied.
func TestNewProxySettings(t *testing.T) {
	t.Parallel()

	s := NewProxySettings(HTTPBasicAuth)
	if s.Port != 3128 {
		t.Errorf("expected port 3128, got %d", s.Port)
	}
	if s.BindAddress != DefaultBindAddress {
		t.Errorf("expected bind address %q, got %q", DefaultBindAddress, s.BindAddress)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings should validate, got %v", err)
	}
}

// TestProxySettingsSpecific verifies fallback behavior of Specific.
func TestProxySettingsSpecific(t *testing.T) {
	t.Parallel()

	s := ProxySettings{BackendSpecific: map[string]string{"method": "aes-256-gcm", "empty": ""}}
	if got := s.Specific("method", "chacha20"); got != "aes-256-gcm" {
		t.Errorf("expected configured value, got %q", got)
	}
	if got := s.Specific("empty", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for empty value, got %q", got)
	}
	if got := s.Specific("missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for missing key, got %q", got)
	}
}
