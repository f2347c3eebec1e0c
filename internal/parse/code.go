package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	gridRe   = regexp.MustCompile(`^(.+)-(\d+)-(\d+)$`)
	singleRe = regexp.MustCompile(`^(.+)-(\d+)$`)
)

// ParsedCode holds the structured data parsed from a locker's display code.
// Grid codes fill Row and Col; individually created lockers fill Number.
type ParsedCode struct {
	Block  string
	Row    int
	Col    int
	Number int
}

// IsGrid reports whether the code carried a row/column position.
func (p ParsedCode) IsGrid() bool {
	return p.Row > 0 && p.Col > 0
}

// GridCode formats the code of a locker generated with its block: "{block}-{row}-{col}".
func GridCode(block string, row, col int) string {
	return fmt.Sprintf("%s-%d-%d", block, row, col)
}

// Code formats the code of an individually created locker: "{block}-{number}".
func Code(block string, number int) string {
	return fmt.Sprintf("%s-%d", block, number)
}

// ParseCode splits a locker code back into its parts. Block names may contain
// dashes, so the numeric parts are taken from the end.
func ParseCode(raw string) (ParsedCode, error) {
	s := strings.TrimSpace(raw)

	if m := gridRe.FindStringSubmatch(s); m != nil {
		row, errRow := strconv.Atoi(m[2])
		col, errCol := strconv.Atoi(m[3])
		if errRow == nil && errCol == nil && row > 0 && col > 0 {
			return ParsedCode{Block: m[1], Row: row, Col: col}, nil
		}
	}

	if m := singleRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil && n > 0 {
			return ParsedCode{Block: m[1], Number: n}, nil
		}
	}

	return ParsedCode{}, fmt.Errorf("unable to parse locker code: %q", raw)
}
