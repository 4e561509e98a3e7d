package confsync

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/proxyadm/proxyadm/internal/model"
)

// dantePortPattern extracts the port from an "internal:" directive.
var dantePortPattern = regexp.MustCompile(`(?m)^internal:.*port\s*=\s*(\d+)`)

// DanteRenderer renders danted.conf for the SOCKS5 backend.
// Authentication is username-based against OS accounts (socksmethod:
// username), which is why the credential store provisions system users.
type DanteRenderer struct {
	// logPath is written into the logoutput directive so that usage
	// accounting reads the same file the daemon writes.
	logPath string
}

// NewDanteRenderer creates a renderer that points Dante's log output at
// logPath.
func NewDanteRenderer(logPath string) *DanteRenderer {
	return &DanteRenderer{logPath: logPath}
}

// Render produces danted.conf text. Backend-specific keys understood:
// "externalInterface" (default eth0).
func (r *DanteRenderer) Render(settings model.ProxySettings) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", err
	}

	external := settings.Specific("externalInterface", "eth0")

	var sb strings.Builder
	sb.WriteString("# danted.conf managed by proxyadm\n")
	fmt.Fprintf(&sb, "logoutput: %s\n", r.logPath)
	fmt.Fprintf(&sb, "internal: %s port = %d\n", settings.BindAddress, settings.Port)
	fmt.Fprintf(&sb, "external: %s\n", external)
	sb.WriteString("socksmethod: username\n")
	sb.WriteString("user.privileged: root\n")
	sb.WriteString("user.unprivileged: nobody\n")
	sb.WriteString("\n")
	sb.WriteString("client pass {\n")
	sb.WriteString("    from: 0.0.0.0/0 to: 0.0.0.0/0\n")
	sb.WriteString("    log: connect disconnect error\n")
	sb.WriteString("}\n")
	sb.WriteString("\n")
	sb.WriteString("socks pass {\n")
	sb.WriteString("    from: 0.0.0.0/0 to: 0.0.0.0/0\n")
	sb.WriteString("    log: connect disconnect error\n")
	sb.WriteString("}\n")

	return sb.String(), nil
}

// PortPattern implements Renderer.
func (r *DanteRenderer) PortPattern() *regexp.Regexp {
	return dantePortPattern
}
