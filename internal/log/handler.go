package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace credential values.
const MaskValue = "***REDACTED***"

// credentialKeys are attribute keys whose values are always masked.
var credentialKeys = map[string]bool{
	"password":   true,
	"passwd":     true,
	"secret":     true,
	"psk":        true,
	"credential": true,
	"token":      true,
}

// credentialPatterns match values that are credentials regardless of the
// attribute key they arrive under.
var credentialPatterns = []*regexp.Regexp{
	// bcrypt digests as written to the htpasswd file
	regexp.MustCompile(`^\$2[aby]\$\d\d\$`),

	// htpasswd lines ("user:$2y$...")
	regexp.MustCompile(`^[^:\s]+:\$2[aby]\$`),

	// HTTP basic auth values
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// MaskingHandler wraps an slog.Handler and masks credential attributes
// before passing records on. It works with any underlying handler, so
// text and JSON output get the same treatment.
type MaskingHandler struct {
	handler slog.Handler
}

// NewMaskingHandler creates a MaskingHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewMaskingHandler(handler slog.Handler) *MaskingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &MaskingHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *MaskingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added,
// masked first.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &MaskingHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursing into groups.
func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if credentialKeys[keyLower] || containsCredentialKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString && isCredentialValue(a.Value.String()) {
		return slog.String(a.Key, MaskValue)
	}

	return a
}

// containsCredentialKeyword checks for credential keywords embedded in
// longer keys (e.g. "newPassword", "sharedSecret").
func containsCredentialKeyword(key string) bool {
	for _, keyword := range []string{"password", "passwd", "secret", "credential"} {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isCredentialValue checks whether a value matches a credential pattern.
func isCredentialValue(value string) bool {
	for _, pattern := range credentialPatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewLogger creates a masking slog.Logger writing text output to w.
// Verbose lowers the level from Warn to Debug.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewMaskingHandler(textHandler))
}
