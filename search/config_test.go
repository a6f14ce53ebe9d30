package search

import (
	"testing"

	"github.com/poiesic/symptomatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, core.English, cfg.DefaultLanguage)
	assert.False(t, cfg.StemEnglish)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(WithDefaultLanguage(core.Bengali), WithEnglishStemming(true))
	assert.Equal(t, core.Bengali, cfg.DefaultLanguage)
	assert.True(t, cfg.StemEnglish)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		lang    core.Language
		want    core.Language
		wantErr bool
	}{
		{"english", core.English, core.English, false},
		{"locale variant", "hi-IN", core.Hindi, false},
		{"upper case", "BN", core.Bengali, false},
		{"empty", "", "", true},
		{"unsupported", "fr", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithDefaultLanguage(tt.lang))
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.DefaultLanguage)
		})
	}
}
