package confsync

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/proxyadm/proxyadm/internal/model"
)

// shadowsocksPortPattern extracts server_port from the JSON config.
var shadowsocksPortPattern = regexp.MustCompile(`"server_port"\s*:\s*(\d+)`)

// defaultCipher is the cipher used when the operator specifies none.
const defaultCipher = "aes-256-gcm"

// shadowsocksConfig mirrors shadowsocks-libev's config.json. Field order
// is fixed by the struct, which keeps the rendered JSON deterministic.
type shadowsocksConfig struct {
	Server     string `json:"server"`
	ServerPort int    `json:"server_port"`
	Password   string `json:"password"`
	Timeout    int    `json:"timeout"`
	Method     string `json:"method"`
	Mode       string `json:"mode"`
}

// ShadowsocksRenderer renders config.json for the Shadowsocks backend.
// The preshared secret travels inside the settings as the "password"
// backend-specific value; the credential store owns updating it.
type ShadowsocksRenderer struct{}

// NewShadowsocksRenderer creates a Shadowsocks config renderer.
func NewShadowsocksRenderer() *ShadowsocksRenderer {
	return &ShadowsocksRenderer{}
}

// Render produces config.json text. Backend-specific keys understood:
// "password" (the shared secret), "method" (default aes-256-gcm),
// "timeout" (seconds, default 300).
func (r *ShadowsocksRenderer) Render(settings model.ProxySettings) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", err
	}

	timeout := 300
	if raw := settings.Specific("timeout", ""); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return "", fmt.Errorf("invalid shadowsocks timeout %q", raw)
		}
		timeout = parsed
	}

	cfg := shadowsocksConfig{
		Server:     settings.BindAddress,
		ServerPort: settings.Port,
		Password:   settings.Specific("password", ""),
		Timeout:    timeout,
		Method:     settings.Specific("method", defaultCipher),
		Mode:       "tcp_and_udp",
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to render shadowsocks config: %w", err)
	}
	return string(data) + "\n", nil
}

// PortPattern implements Renderer.
func (r *ShadowsocksRenderer) PortPattern() *regexp.Regexp {
	return shadowsocksPortPattern
}
