package codes

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNAICSSectorFromCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want NAICSSector
		ok   bool
	}{
		{"finance", "52", "FinanceAndInsurance", true},
		{"manufacturing primary", "31", "Manufacturing", true},
		{"manufacturing alias", "33", "Manufacturing", true},
		{"manufacturing range", "31-33", "Manufacturing", true},
		{"retail alias", "45", "RetailTrade", true},
		{"leading zero", "052", "FinanceAndInsurance", true},
		{"whitespace", " 23 ", "Construction", true},
		{"unknown numeric", "999999999", "", false},
		{"not a number", "not-a-number", "", false},
		{"empty", "", "", false},
		{"negative", "-52", "", false},
		{"plus sign", "+52", "", false},
		{"signed with zeros", "+052", "", false},
		{"all zeros", "000", "", false},
		{"inner space", "5 2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NAICSSectorFromCode(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNAICS_RoundTrip(t *testing.T) {
	for _, s := range NAICSSectors.Symbols() {
		got, ok := NAICSSectorFromCode(strconv.Itoa(s.Code()))
		require.True(t, ok, "sector %s", s)
		assert.Equal(t, s, got)

		parsed, err := NAICSSectors.Parse(s.Description())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	for _, s := range NAICSSubsectors.Symbols() {
		got, ok := NAICSSubsectorFromCode(strconv.Itoa(s.Code()))
		require.True(t, ok, "subsector %s", s)
		assert.Equal(t, s, got)
	}
	for _, s := range NAICSIndustries.Symbols() {
		got, ok := NAICSIndustryFromCode(strconv.Itoa(s.Code()))
		require.True(t, ok, "industry %s", s)
		assert.Equal(t, s, got)
	}
}

func TestNAICS_CodesArePositive(t *testing.T) {
	for _, s := range NAICSSectors.Symbols() {
		assert.Positive(t, s.Code(), "sector %s", s)
		assert.NotEmpty(t, s.Description())
	}
	for _, s := range NAICSSubsectors.Symbols() {
		assert.Positive(t, s.Code(), "subsector %s", s)
	}
	for _, s := range NAICSIndustries.Symbols() {
		assert.Positive(t, s.Code(), "industry %s", s)
	}
}

func TestNAICS_ParentsResolve(t *testing.T) {
	for _, s := range NAICSSubsectors.Symbols() {
		_, ok := s.Sector()
		assert.True(t, ok, "subsector %s (%d) has no sector", s, s.Code())
	}
	for _, i := range NAICSIndustries.Symbols() {
		_, ok := i.Subsector()
		assert.True(t, ok, "industry %s (%d) has no subsector", i, i.Code())
	}

	sub, ok := NAICSSubsectorFromCode("324")
	require.True(t, ok)
	sector, ok := sub.Sector()
	require.True(t, ok)
	assert.Equal(t, NAICSSector("Manufacturing"), sector)

	ind, ok := NAICSIndustryFromCode("1111")
	require.True(t, ok)
	assert.Equal(t, "Oilseed and Grain Farming", ind.Description())
	parent, ok := ind.Subsector()
	require.True(t, ok)
	assert.Equal(t, 111, parent.Code())
}

func TestNAICS_ParseDescription(t *testing.T) {
	got, err := NAICSSubsectors.Parse("MINING (EXCEPT OIL AND GAS)")
	require.NoError(t, err)
	assert.Equal(t, 212, got.Code())

	_, err = NAICSSubsectors.Parse("Underwater Basket Weaving")
	assert.ErrorIs(t, err, ErrNoMatch)
}
