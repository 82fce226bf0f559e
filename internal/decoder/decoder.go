// Package decoder turns raw framework log lines into structured LogLines.
//
// A line is expected to match the bracketed-field grammar
//
//	[ts][level][pid][tid]([opt1])([opt2])([opt3]) rest
//
// where the three optional bracket groups are classified heuristically: three
// present means (source file, line number, function), one present containing a
// file-extension-like token means source file, one present otherwise means
// function, two present means (source file, line number). The heuristic is
// lossy and is kept as-is; the source log format does not label these fields.
package decoder

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/crimson-sun/pipelens/internal/model"
)

// lineRE matches the mandatory header and up to three optional bracket groups.
// The message, when present, is separated from the header by a single space.
var lineRE = regexp.MustCompile(
	`^\[([^\[\]]*)\]\[([^\[\]]*)\]\[([^\[\]]*)\]\[([^\[\]]*)\]` +
		`(?:\[([^\[\]]*)\])?(?:\[([^\[\]]*)\])?(?:\[([^\[\]]*)\])?` +
		`(?: (.*))?$`)

var (
	extensionRE = regexp.MustCompile(`\.\w+$`)
	intRE       = regexp.MustCompile(`^-?\d+$`)
	floatRE     = regexp.MustCompile(`^-?\d+\.\d+$`)
	statusRE    = regexp.MustCompile(`\s*\|\s*(enter|leave)(?:,\s*(\d+)ms)?$`)
)

// Decoder decodes one raw log line at a time. It is stateless apart from its
// logger; a single instance serves a whole parse pass.
type Decoder struct {
	logger *slog.Logger
}

// New creates a Decoder that reports dropped lines through logger.
func New(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger.With("component", "decoder")}
}

// Decode parses one trimmed, non-empty line. ok is false when the line does not
// match the header grammar; such lines are dropped with a warning and never
// abort the parse.
func (d *Decoder) Decode(raw string, lineNo int) (model.LogLine, bool) {
	m := lineRE.FindStringSubmatch(raw)
	if m == nil {
		d.logger.Warn("dropping unparseable line", "line", lineNo)
		return model.LogLine{}, false
	}

	line := model.LogLine{
		Timestamp: m[1],
		Level:     model.ParseLineLevel(m[2]),
		ProcessID: m[3],
		ThreadID:  m[4],
		Raw:       raw,
		LineNo:    lineNo,
	}
	classifyOptional(&line, m[5], m[6], m[7])

	msg, params := extractParams(m[8])
	line.Params = params
	line.Message, line.Status, line.DurationMS = stripStatus(msg)
	return line, true
}

// classifyOptional applies the shape heuristic to the optional bracket groups.
func classifyOptional(line *model.LogLine, groups ...string) {
	var opts []string
	for _, g := range groups {
		if g != "" {
			opts = append(opts, g)
		}
	}
	switch len(opts) {
	case 3:
		line.SourceFile, line.LineNumber, line.FunctionName = opts[0], opts[1], opts[2]
	case 2:
		line.SourceFile, line.LineNumber = opts[0], opts[1]
	case 1:
		if extensionRE.MatchString(opts[0]) {
			line.SourceFile = opts[0]
		} else {
			line.FunctionName = opts[0]
		}
	}
}

// extractParams scans the message left to right for [key=value] spans and
// removes them. A span runs from '[' to the matching ']', where matching tracks
// nested [...] and {...} independently so a value containing JSON or nested
// brackets is captured whole. An unbalanced candidate is skipped: the remaining
// text stays in the message verbatim.
func extractParams(s string) (string, []model.Param) {
	var params []model.Param
	var clean strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '[' {
			clean.WriteByte(s[i])
			i++
			continue
		}
		end, ok := matchSpan(s, i)
		if !ok {
			clean.WriteString(s[i:])
			break
		}
		params = append(params, parseParam(s[i+1:end]))
		i = end + 1
	}
	return strings.TrimSpace(clean.String()), params
}

// matchSpan finds the ']' closing the span opened at s[start]. The span closes
// only when both bracket depth and brace depth return to zero.
func matchSpan(s string, start int) (int, bool) {
	brackets, braces := 0, 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '[':
			brackets++
		case ']':
			brackets--
			if brackets == 0 && braces == 0 {
				return i, true
			}
		case '{':
			braces++
		case '}':
			braces--
		}
	}
	return 0, false
}

// parseParam interprets a captured span body. "key=value" yields a typed value;
// a body without '=' is a bare flag stored as boolean true under its own text.
func parseParam(body string) model.Param {
	idx := strings.Index(body, "=")
	if idx < 0 {
		return model.Param{Key: body, Value: true}
	}
	return model.Param{Key: body[:idx], Value: coerceValue(body[idx+1:])}
}

// coerceValue types a raw parameter value: JSON object/array (string fallback),
// booleans, integers, decimals, quoted strings, else the raw text.
func coerceValue(raw string) any {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
		return s
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if intRE.MatchString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if floatRE.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// stripStatus removes a trailing "| enter" or "| leave[, Nms]" marker from the
// clean message and surfaces it as explicit status/duration.
func stripStatus(msg string) (string, string, int64) {
	m := statusRE.FindStringSubmatch(msg)
	if m == nil {
		return msg, "", 0
	}
	clean := strings.TrimSpace(msg[:len(msg)-len(m[0])])
	var dur int64
	if m[2] != "" {
		dur, _ = strconv.ParseInt(m[2], 10, 64)
	}
	if m[1] == model.StatusEnter {
		return clean, model.StatusEnter, 0
	}
	return clean, model.StatusLeave, dur
}
