package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	t.Run("generates codes of the requested length", func(t *testing.T) {
		for _, length := range []int{2, 6, 20} {
			code, err := GenerateCode(length)
			require.NoError(t, err)
			assert.Len(t, code, length)
		}
	})

	t.Run("uses only the allowed charset", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code, err := GenerateCode(8)
			require.NoError(t, err)
			for _, ch := range code {
				assert.True(t, strings.ContainsRune(codeCharset, ch), "unexpected character %q in %q", ch, code)
			}
		}
	})

	t.Run("successive codes differ", func(t *testing.T) {
		a, err := GenerateCode(10)
		require.NoError(t, err)
		b, err := GenerateCode(10)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestValidateAlias(t *testing.T) {
	t.Run("accepts alphanumerics, hyphen and underscore", func(t *testing.T) {
		for _, alias := range []string{"ab", "abc123", "my-link", "my_link", "A1-b2_C3"} {
			assert.NoError(t, ValidateAlias(alias), "alias %q", alias)
		}
	})

	t.Run("rejects invalid shapes", func(t *testing.T) {
		for _, alias := range []string{"", "a", strings.Repeat("x", 21), "has space", "uni±code", "semi;colon"} {
			assert.ErrorIs(t, ValidateAlias(alias), ErrInvalidAlias, "alias %q", alias)
		}
	})
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "passes through absolute https", input: "https://example.com/page", expected: "https://example.com/page"},
		{name: "passes through absolute http", input: "http://example.com", expected: "http://example.com"},
		{name: "prepends scheme when missing", input: "example.com/page", expected: "https://example.com/page"},
		{name: "trims surrounding whitespace", input: "  example.com  ", expected: "https://example.com"},
		{name: "rejects non-http scheme", input: "ftp://example.com", wantErr: true},
		{name: "rejects javascript scheme", input: "javascript://alert(1)", wantErr: true},
		{name: "rejects empty input", input: "", wantErr: true},
		{name: "rejects scheme without host", input: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
