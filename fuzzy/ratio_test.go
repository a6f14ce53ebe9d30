package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "bleeding gums", "bleeding gums", 1},
		{"word order and case", "Gums BLEEDING", "bleeding gums", 1},
		{"subset", "bleeding gums", "my gums are bleeding a lot", 1},
		{"duplicates ignored", "gums gums gums", "gums", 1},
		{"blank left", "", "bleeding gums", 0},
		{"blank right", "bleeding gums", "   ", 0},
		{"punctuation only", "!!!", "?", 0},
		{"partial overlap", "apple banana", "apple cherry", 10.0 / 17.0},
		{"no shared words", "abc xyz", "abd", 0.4},
		{"nothing in common", "banana", "cherry", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TokenSetRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTokenSetRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"apple banana", "apple cherry"},
		{"toothache with sweets", "sensitive to sweets and cold"},
		{"दांत में दर्द", "दांत दर्द मीठा"},
	}
	for _, p := range pairs {
		assert.InDelta(t, TokenSetRatio(p[0], p[1]), TokenSetRatio(p[1], p[0]), 1e-12)
	}
}

func TestTokenSetRatio_Bounds(t *testing.T) {
	inputs := []string{"", "a", "toothache", "tooth ache", "দাঁতে ব্যথা", "12345 67890", "sweets sweets sweet"}
	for _, a := range inputs {
		for _, b := range inputs {
			r := TokenSetRatio(a, b)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 1.0)
		}
	}
}

func TestIndelDistance(t *testing.T) {
	assert.Equal(t, 0, indelDistance([]rune("abc"), []rune("abc")))
	assert.Equal(t, 2, indelDistance([]rune("abc"), []rune("abd")))
	assert.Equal(t, 3, indelDistance([]rune(""), []rune("abc")))
	assert.Equal(t, 12, indelDistance([]rune("banana"), []rune("cherry")))
}

func TestSplit(t *testing.T) {
	sect, onlyA, onlyB := split([]string{"a", "b", "d"}, []string{"b", "c", "d", "e"})
	assert.Equal(t, []string{"b", "d"}, sect)
	assert.Equal(t, []string{"a"}, onlyA)
	assert.Equal(t, []string{"c", "e"}, onlyB)
}
