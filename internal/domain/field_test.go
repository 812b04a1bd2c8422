package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferFootballFormat(t *testing.T) {
	tests := []struct {
		name string
		want FootballFormat
	}{
		{"Terrain 6", FormatSixASide},
		{"Foot à six", FormatSixASide},
		{"SIX Nord", FormatSixASide},
		{"Terrain 7", FormatSevenOrEightASide},
		{"Terrain sept", FormatSevenOrEightASide},
		{"Terrain huit", FormatSevenOrEightASide},
		{"Eight pitch", FormatSevenOrEightASide},
		{"Grand terrain", FormatStandard},
		{"Field 16", FormatStandard},
		{"Sixties arena", FormatStandard},
		// 6 is checked first
		{"Terrain 6 ou 8", FormatSixASide},
		// a number that is part of an address still counts
		{"Field 8 Avenue", FormatSevenOrEightASide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferFootballFormat(tt.name))
		})
	}
}

func TestFieldNormalize(t *testing.T) {
	f := Field{Name: "Terrain sept", Sport: SportFootball}
	f.Normalize()
	assert.Equal(t, FormatSevenOrEightASide, f.Format)

	f = Field{Name: "Terrain 6", Sport: SportFootball, Format: FormatStandard}
	f.Normalize()
	assert.Equal(t, FormatStandard, f.Format)

	f = Field{Name: "Court 6", Sport: SportTennis, Format: FormatSixASide}
	f.Normalize()
	assert.Empty(t, f.Format)
}
