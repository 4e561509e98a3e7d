package confsync

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/proxyadm/proxyadm/internal/model"
)

// squidPortPattern extracts the port from an http_port directive, with
// or without a bind address prefix.
var squidPortPattern = regexp.MustCompile(`(?m)^http_port\s+(?:[0-9.]+:)?(\d+)`)

// defaultAuthHelper is the conventional path of Squid's NCSA basic auth
// helper on Debian-family systems.
const defaultAuthHelper = "/usr/lib/squid/basic_ncsa_auth"

// SquidRenderer renders squid.conf for the HTTP backend. Authentication
// is HTTP basic against the digest file the credential store maintains.
type SquidRenderer struct {
	digestPath string
}

// NewSquidRenderer creates a renderer wiring auth_param at the given
// digest file.
func NewSquidRenderer(digestPath string) *SquidRenderer {
	return &SquidRenderer{digestPath: digestPath}
}

// Render produces squid.conf text. Backend-specific keys understood:
// "authHelper" (default /usr/lib/squid/basic_ncsa_auth), "visibleHostname".
func (r *SquidRenderer) Render(settings model.ProxySettings) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", err
	}

	helper := settings.Specific("authHelper", defaultAuthHelper)

	var sb strings.Builder
	sb.WriteString("# squid.conf managed by proxyadm\n")
	fmt.Fprintf(&sb, "http_port %s:%d\n", settings.BindAddress, settings.Port)
	fmt.Fprintf(&sb, "auth_param basic program %s %s\n", helper, r.digestPath)
	sb.WriteString("auth_param basic realm proxy\n")
	sb.WriteString("auth_param basic credentialsttl 24 hours\n")
	sb.WriteString("acl authenticated proxy_auth REQUIRED\n")
	sb.WriteString("http_access allow authenticated\n")
	sb.WriteString("http_access deny all\n")
	if hostname := settings.Specific("visibleHostname", ""); hostname != "" {
		fmt.Fprintf(&sb, "visible_hostname %s\n", hostname)
	}
	sb.WriteString("via off\n")
	sb.WriteString("forwarded_for delete\n")

	return sb.String(), nil
}

// PortPattern implements Renderer.
func (r *SquidRenderer) PortPattern() *regexp.Regexp {
	return squidPortPattern
}
