package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedCode
		expectErr bool
	}{
		{
			name:     "Grid code",
			raw:      "A-2-3",
			expected: ParsedCode{Block: "A", Row: 2, Col: 3},
		},
		{
			name:     "Grid code with spaces in block name",
			raw:      "Bloque Norte-10-15",
			expected: ParsedCode{Block: "Bloque Norte", Row: 10, Col: 15},
		},
		{
			name:     "Block name containing dashes",
			raw:      "Ala-Este-1-1",
			expected: ParsedCode{Block: "Ala-Este", Row: 1, Col: 1},
		},
		{
			name:     "Individual locker",
			raw:      "B-42",
			expected: ParsedCode{Block: "B", Number: 42},
		},
		{
			name:     "Zero row falls back to single number",
			raw:      "C-0-4",
			expected: ParsedCode{Block: "C-0", Number: 4},
		},
		{
			name:      "No number",
			raw:       "Bloque",
			expectErr: true,
		},
		{
			name:      "Empty",
			raw:       "",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseCode(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestCodeFormatting(t *testing.T) {
	assert.Equal(t, "Test-2-3", GridCode("Test", 2, 3))
	assert.Equal(t, "Test-7", Code("Test", 7))

	parsed, err := ParseCode(GridCode("Test", 2, 3))
	assert.NoError(t, err)
	assert.True(t, parsed.IsGrid())

	parsed, err = ParseCode(Code("Test", 7))
	assert.NoError(t, err)
	assert.False(t, parsed.IsGrid())
}
