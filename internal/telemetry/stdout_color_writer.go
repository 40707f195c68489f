// ColorStdoutWriter prints human-friendly, colorized output to STDOUT.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// levelColors maps threat level names to ANSI colors.
var levelColors = map[string]string{
	"GREEN":  colorGreen,
	"YELLOW": colorYellow,
	"ORANGE": colorMagenta,
	"RED":    colorRed,
	"OMEGA":  colorCyan,
}

func levelColor(level string) string {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return colorGray
}

// ColorStdoutWriter prints every event and only those status rows that change
// the unit's level, criticality or landed flag.
type ColorStdoutWriter struct {
	out  io.Writer
	last *StatusRow
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return &ColorStdoutWriter{out: os.Stdout}
}

// WriteEvent prints one colorized event line.
func (w *ColorStdoutWriter) WriteEvent(row EventRow) error {
	col := levelColor(row.ThreatLevel)
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%s%-6s%s ", col, row.ThreatLevel, colorReset)
	fmt.Fprintf(w.out, "%s%s%s ", colorBlue, row.EventType, colorReset)
	fmt.Fprint(w.out, row.Description)
	if len(row.ResponseActions) > 0 {
		fmt.Fprintf(w.out, " %s[%s]%s", colorGray, strings.Join(row.ResponseActions, "; "), colorReset)
	}
	_, err := fmt.Fprintln(w.out)
	return err
}

// WriteStatus prints a status table when the row differs materially from
// the previous one.
func (w *ColorStdoutWriter) WriteStatus(row StatusRow) error {
	if w.last != nil && w.last.ThreatLevel == row.ThreatLevel &&
		w.last.Critical == row.Critical && w.last.Landed == row.Landed {
		return nil
	}
	w.last = &row

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Unit:\t%s\n", row.Name)
	fmt.Fprintf(tw, "Threat Level:\t%s%s%s\n", levelColor(row.ThreatLevel), row.ThreatLevel, colorReset)
	fmt.Fprintf(tw, "Critical:\t%t\n", row.Critical)
	fmt.Fprintf(tw, "Battery:\t%.0f%%\n", row.Battery)
	fmt.Fprintf(tw, "Shield:\t%.0f%%\n", row.ShieldIntegrity)
	fmt.Fprintf(tw, "Strobe:\t%s\n", row.StrobePattern)
	fmt.Fprintf(tw, "Fire Suppression:\t%s (armed=%t)\n", row.FireHealth, row.FireArmed)
	if row.Landed {
		fmt.Fprintf(tw, "State:\t%sLANDED%s\n", colorRed, colorReset)
	}
	return tw.Flush()
}
