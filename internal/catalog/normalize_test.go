package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldTerm(t *testing.T) {
	cases := map[string]string{
		"Açúcar":        "acucar",
		"CAFÉ":          "cafe",
		"  Feijão  ":    "feijao",
		"leite":         "leite",
		"Pão de Queijo": "pao de queijo",
		"":              "",
	}
	for input, want := range cases {
		require.Equal(t, want, foldTerm(input), "input %q", input)
	}
}
