package render

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	dateOnlyRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	timeOnlyRe = regexp.MustCompile(`^T(\d{2})(\d{2})(\d{2})(?:,\d+)?(?:[+-]\d{2})?$`)
	dateTimeRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})T(\d{2})(\d{2})(\d{2})(?:,\d+)?(?:[+-]\d{2})?$`)
)

// NormalizeDateTime rewrites the export's raw datetime notations into
// readable forms: "20241031" -> "2024/10/31", "T141700,00" ->
// "14:17:00", "20241031T154057,98+09" -> "2024/10/31 15:40:57".
// Fractional seconds and the zone offset are dropped. Anything that is
// not datetime-shaped passes through unchanged.
func NormalizeDateTime(s string) string {
	t := strings.TrimSpace(s)
	if m := dateOnlyRe.FindStringSubmatch(t); m != nil {
		return fmt.Sprintf("%s/%s/%s", m[1], m[2], m[3])
	}
	if m := timeOnlyRe.FindStringSubmatch(t); m != nil {
		return fmt.Sprintf("%s:%s:%s", m[1], m[2], m[3])
	}
	if m := dateTimeRe.FindStringSubmatch(t); m != nil {
		return fmt.Sprintf("%s/%s/%s %s:%s:%s", m[1], m[2], m[3], m[4], m[5], m[6])
	}
	return t
}
