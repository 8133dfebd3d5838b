// Package savecodec encodes progression snapshots into the delimited text
// payload stored in local and cloud save slots, and decides between competing
// save candidates.
//
// Payload layout (every field terminated by the separator):
//
//	difficulty;easy;normal;hard;coins;currentBird;p0;..;pN-1;a0;..;aN-1;
//
// where p are purchased flags ("1"/"0") and a are aggregated scores in roster
// order. The versioned format prefixes the same fields with "v2;N;".
package savecodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/skybird/internal/progress"
)

// Separator terminates every field of a payload.
const Separator = ";"

const (
	scalarFields = 6
	v2Tag        = "v2"
)

var (
	ErrEmpty          = errors.New("savecodec: empty payload")
	ErrFieldCount     = errors.New("savecodec: unexpected field count")
	ErrMalformed      = errors.New("savecodec: malformed field")
	ErrRosterMismatch = errors.New("savecodec: roster size mismatch")
)

// Format selects the payload layout produced by Encode.
type Format int

const (
	// FormatLegacy is the headerless layout shared with existing saves.
	FormatLegacy Format = iota
	// FormatV2 records the roster size in a header.
	FormatV2
)

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "legacy":
		return FormatLegacy, nil
	case "v2":
		return FormatV2, nil
	}
	return FormatLegacy, fmt.Errorf("savecodec: unknown format %q", s)
}

func (f Format) String() string {
	if f == FormatV2 {
		return "v2"
	}
	return "legacy"
}

// Codec encodes and decodes snapshots.
type Codec struct {
	Format Format
}

// Encode serializes snap. TotalPlayTime is not part of the payload.
func (c Codec) Encode(snap progress.Snapshot) []byte {
	var b strings.Builder
	field := func(v string) {
		b.WriteString(v)
		b.WriteString(Separator)
	}

	if c.Format == FormatV2 {
		field(v2Tag)
		field(strconv.Itoa(snap.Birds()))
	}

	field(strconv.Itoa(int(snap.Difficulty)))
	field(strconv.Itoa(snap.EasyRecord))
	field(strconv.Itoa(snap.NormalRecord))
	field(strconv.Itoa(snap.HardRecord))
	field(strconv.Itoa(snap.Coins))
	field(strconv.Itoa(snap.CurrentBird))
	for _, p := range snap.Purchased {
		if p {
			field("1")
		} else {
			field("0")
		}
	}
	for _, a := range snap.AggregatedScores {
		field(strconv.Itoa(a))
	}
	return []byte(b.String())
}

// Decode parses a payload written for a roster of n birds. Both formats are
// accepted. The field count is checked before any positional access, so a
// payload from a roster of a different size fails instead of being
// truncated.
func (c Codec) Decode(data []byte, n int) (progress.Snapshot, error) {
	var snap progress.Snapshot

	if n < 0 {
		return snap, fmt.Errorf("%w: negative roster size %d", ErrRosterMismatch, n)
	}
	if len(data) == 0 {
		return snap, ErrEmpty
	}
	fields := strings.Split(string(data), Separator)
	if last := len(fields) - 1; fields[last] == "" {
		fields = fields[:last]
	}

	if len(fields) > 0 && fields[0] == v2Tag {
		if len(fields) < 2 {
			return snap, fmt.Errorf("%w: truncated header", ErrFieldCount)
		}
		recorded, err := strconv.Atoi(fields[1])
		if err != nil {
			return snap, fmt.Errorf("%w: roster size %q", ErrMalformed, fields[1])
		}
		if recorded != n {
			return snap, fmt.Errorf("%w: payload has %d birds, roster has %d", ErrRosterMismatch, recorded, n)
		}
		fields = fields[2:]
	}

	if want := scalarFields + 2*n; len(fields) != want {
		return snap, fmt.Errorf("%w: got %d, want %d for %d birds", ErrFieldCount, len(fields), want, n)
	}

	ints := make([]int, scalarFields)
	for i := range ints {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return snap, fmt.Errorf("%w: field %d %q", ErrMalformed, i, fields[i])
		}
		ints[i] = v
	}

	snap.Difficulty = progress.Difficulty(ints[0])
	snap.EasyRecord = ints[1]
	snap.NormalRecord = ints[2]
	snap.HardRecord = ints[3]
	snap.Coins = ints[4]
	snap.CurrentBird = ints[5]
	snap.Purchased = make([]bool, n)
	snap.AggregatedScores = make([]int, n)

	for i := 0; i < n; i++ {
		snap.Purchased[i] = fields[scalarFields+i] == "1"

		raw := fields[scalarFields+n+i]
		v, err := strconv.Atoi(raw)
		if err != nil {
			return progress.Snapshot{}, fmt.Errorf("%w: aggregated score %d %q", ErrMalformed, i, raw)
		}
		snap.AggregatedScores[i] = v
	}

	if err := snap.Validate(n); err != nil {
		return progress.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return snap, nil
}
