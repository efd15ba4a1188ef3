package bench

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

// FormatNumber renders sample counts with thousands separators, 10,000,000.
func FormatNumber(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// durationUnits are tried from the smallest up; a duration is shown in the
// first unit it stays below the limit of.
var durationUnits = []struct {
	limit  time.Duration
	unit   time.Duration
	suffix string
	prec   int
}{
	{time.Microsecond, time.Nanosecond, "ns", 0},
	{time.Millisecond, time.Microsecond, "µs", 1},
	{time.Second, time.Millisecond, "ms", 2},
}

// FormatDuration renders a timing for the results table: whole values
// without decimals, fractional ones with the precision of their unit.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0"
	}

	for _, u := range durationUnits {
		if d >= u.limit {
			continue
		}
		if d%u.unit == 0 {
			return strconv.FormatInt(int64(d/u.unit), 10) + u.suffix
		}
		return strconv.FormatFloat(float64(d)/float64(u.unit), 'f', u.prec, 64) + u.suffix
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func colorFprintln(w io.Writer, c *color.Color, a ...any) {
	_, _ = c.Fprintln(w, a...)
}

func colorFprintf(w io.Writer, c *color.Color, format string, a ...any) {
	_, _ = c.Fprintf(w, format, a...)
}
