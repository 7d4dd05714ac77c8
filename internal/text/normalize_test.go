package text_test

import (
	"testing"

	"github.com/book-expert/vridge/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims and collapses whitespace", input: "  안녕 \n\t하세요  ", want: "안녕 하세요"},
		{name: "smart quotes", input: "“hi” ‘there’", want: `"hi" 'there'`},
		{name: "dashes and ellipsis", input: "wait—what…", want: "wait-what..."},
		{name: "repeated marks", input: "정말요???!!", want: "정말요?!"},
		{name: "keeps ellipsis dots", input: "음...", want: "음..."},
	}

	normalizer := text.NewNormalizer()

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := normalizer.Normalize(testCase.input)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestNormalizer_Empty(t *testing.T) {
	t.Parallel()

	_, err := text.NewNormalizer().Normalize(" \n\t ")
	require.ErrorIs(t, err, text.ErrTextEmpty)
}
