// Package plates converts between per-side barbell plate loads and total weights.
package plates

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Denominations are the available plate weights, largest first. Every count in [PlateCounts] is
// indexed by the position of its denomination in this list.
var Denominations = [...]float64{45, 35, 25, 10, 5, 2.5} //nolint:gochecknoglobals // fixed plate set

// PlateCounts holds how many plates of each denomination are loaded on one side of a barbell.
type PlateCounts [len(Denominations)]int

// Count returns the number of plates of the given denomination, zero for unknown denominations.
func (c PlateCounts) Count(denomination float64) int {
	i := indexOf(denomination)
	if i < 0 {
		return 0
	}
	return max(c[i], 0)
}

// With returns a copy of c with the count of denomination set to n.
func (c PlateCounts) With(denomination float64, n int) PlateCounts {
	if i := indexOf(denomination); i >= 0 {
		c[i] = max(n, 0)
	}
	return c
}

// PerSide is the weight loaded on one side.
func (c PlateCounts) PerSide() float64 {
	var sum float64
	for i, d := range Denominations {
		sum += d * float64(max(c[i], 0))
	}
	return sum
}

// Add returns the plate-wise sum of c and other.
func (c PlateCounts) Add(other PlateCounts) PlateCounts {
	var out PlateCounts
	for i := range c {
		out[i] = max(c[i], 0) + max(other[i], 0)
	}
	return out
}

// IsZero reports whether no plates are loaded.
func (c PlateCounts) IsZero() bool {
	for _, n := range c {
		if n > 0 {
			return false
		}
	}
	return true
}

// String renders the non-zero counts largest first, e.g. "45×1 + 10×2", or "empty".
func (c PlateCounts) String() string {
	var parts []string
	for i, d := range Denominations {
		if c[i] > 0 {
			parts = append(parts, fmt.Sprintf("%s×%d", formatDenomination(d), c[i]))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " + ")
}

// MarshalJSON writes every denomination, e.g. {"45":1,"35":0,"25":0,"10":0,"5":0,"2.5":0}.
func (c PlateCounts) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, d := range Denominations {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%d", formatDenomination(d), max(c[i], 0))
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts an object keyed by denomination. Missing keys count as zero, unknown keys
// are ignored and negative counts are clamped to zero.
func (c *PlateCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal plate counts: %w", err)
	}
	var out PlateCounts
	for key, n := range raw {
		d, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		if i := indexOf(d); i >= 0 {
			out[i] = max(int(n), 0)
		}
	}
	*c = out
	return nil
}

// ParseCounts parses the compact form "45:1,10:2" used on the command line.
func ParseCounts(s string) (PlateCounts, error) {
	var out PlateCounts
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		denomStr, countStr, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return PlateCounts{}, fmt.Errorf("plate %q: want denomination:count", part)
		}
		d, err := strconv.ParseFloat(denomStr, 64)
		if err != nil {
			return PlateCounts{}, fmt.Errorf("plate %q: parse denomination: %w", part, err)
		}
		i := indexOf(d)
		if i < 0 {
			return PlateCounts{}, fmt.Errorf("plate %q: unknown denomination %v", part, d)
		}
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return PlateCounts{}, fmt.Errorf("plate %q: parse count: %w", part, err)
		}
		out[i] += max(n, 0)
	}
	return out, nil
}

// TotalFromPerSide is the full barbell load: the bar plus both sides.
func TotalFromPerSide(counts PlateCounts, barWeight float64) float64 {
	return barWeight + 2*counts.PerSide() //nolint:mnd // two sides
}

// DecomposeTargetPerSide greedily breaks a per-side target into plates, largest first. Whatever the
// plate set cannot represent is dropped, see [Decompose] to observe it.
func DecomposeTargetPerSide(targetPerSide float64) PlateCounts {
	counts, _ := Decompose(targetPerSide)
	return counts
}

// Decompose is [DecomposeTargetPerSide] that also returns the per-side remainder no plate
// combination could cover. The target is rounded to the nearest half unit and negative targets
// count as zero.
func Decompose(targetPerSide float64) (PlateCounts, float64) {
	var counts PlateCounts
	remaining := roundHalf(math.Max(targetPerSide, 0))
	for i, d := range Denominations {
		n := math.Floor(remaining / d)
		counts[i] = int(n)
		remaining = roundHalf(remaining - n*d)
	}
	return counts, remaining
}

// roundHalf rounds to the nearest half unit, which also absorbs floating point drift.
func roundHalf(x float64) float64 {
	return math.Round(x*2) / 2 //nolint:mnd // half units
}

func indexOf(denomination float64) int {
	for i, d := range Denominations {
		if d == denomination {
			return i
		}
	}
	return -1
}

func formatDenomination(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
