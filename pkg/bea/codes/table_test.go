package codes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTables_RoundTrip(t *testing.T) {
	for _, tbl := range All() {
		t.Run(tbl.Name(), func(t *testing.T) {
			require.NotZero(t, tbl.Len())
			for _, e := range tbl.Entries() {
				got, ok := tbl.Lookup(e.Code)
				require.True(t, ok, "code %q", e.Code)
				assert.Equal(t, e.Symbol, got.Symbol)

				got, ok = tbl.Lookup(e.Symbol)
				require.True(t, ok, "symbol %q", e.Symbol)
				assert.Equal(t, e.Symbol, got.Symbol)
			}
		})
	}
}

func TestAllTables_Totality(t *testing.T) {
	for _, tbl := range All() {
		t.Run(tbl.Name(), func(t *testing.T) {
			assert.NotEmpty(t, tbl.Title())
			for _, e := range tbl.Entries() {
				assert.NotEmpty(t, e.Symbol)
				assert.NotEmpty(t, e.Code, "symbol %q", e.Symbol)
				assert.NotEmpty(t, e.Description, "symbol %q", e.Symbol)
			}
		})
	}
}

func TestAllTables_UniqueCodes(t *testing.T) {
	for _, tbl := range All() {
		t.Run(tbl.Name(), func(t *testing.T) {
			seenCodes := make(map[string]bool)
			seenSymbols := make(map[string]bool)
			for _, e := range tbl.Entries() {
				for _, c := range append([]string{e.Code}, e.Aliases...) {
					assert.False(t, seenCodes[c], "duplicate code %q", c)
					seenCodes[c] = true
				}
				assert.False(t, seenSymbols[e.Symbol], "duplicate symbol %q", e.Symbol)
				seenSymbols[e.Symbol] = true
			}
			assert.Len(t, seenSymbols, tbl.Len())
		})
	}
}

func TestTable_TypedRoundTrip(t *testing.T) {
	for _, s := range ParameterNames.Symbols() {
		got, ok := ParameterNames.FromCode(s.Code())
		require.True(t, ok)
		assert.Equal(t, s, got)

		parsed, err := ParameterNames.Parse(s.Description())
		if err == nil {
			// Descriptions may collide with another symbol's name; symbols never do.
			assert.NotEmpty(t, parsed)
		}
		parsed, err = ParameterNames.Parse(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestTable_Parse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ParameterName
	}{
		{"exact", "Year", ParamYear},
		{"upper", "YEAR", ParamYear},
		{"lower", "tablename", ParamTableName},
		{"spaced", "Table Name", ParamTableName},
		{"punctuated", "geo-fips", ParamGeoFips},
		{"surrounding space", "  LineCode ", ParamLineCode},
		{"by description", "Published table name", ParamTableName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParameterNames.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_ParseNoMatch(t *testing.T) {
	_, err := ParameterNames.Parse("Quarter of the moon")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))

	var nm *NoMatchError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, "parameter_name", nm.Table)
	assert.Equal(t, "Quarter of the moon", nm.Input)

	_, err = Datasets.Parse("")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestTable_UnknownSymbolIsTotal(t *testing.T) {
	assert.Equal(t, "", Dataset("NoSuchDataset").Description())
	assert.Equal(t, "", Dataset("NoSuchDataset").Code())
	assert.False(t, Datasets.Contains("NoSuchDataset"))
	assert.Equal(t, 0, NAICSSector("NoSuchSector").Code())
	assert.Equal(t, "", NAICSSector("NoSuchSector").Description())
}

func TestTable_FromCodeUnknown(t *testing.T) {
	_, ok := Frequencies.FromCode("W")
	assert.False(t, ok)
	got, ok := Frequencies.FromCode("Q")
	require.True(t, ok)
	assert.Equal(t, Quarterly, got)
}

func TestNewTable_Rejects(t *testing.T) {
	t.Run("duplicate symbol", func(t *testing.T) {
		_, err := NewTable[string]("t", "", []Entry{
			{Symbol: "A", Code: "1", Description: "one"},
			{Symbol: "A", Code: "2", Description: "two"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate symbol")
	})
	t.Run("duplicate alias", func(t *testing.T) {
		_, err := NewTable[string]("t", "", []Entry{
			{Symbol: "A", Code: "1", Description: "one", Aliases: []string{"2"}},
			{Symbol: "B", Code: "2", Description: "two"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate code")
	})
	t.Run("missing description", func(t *testing.T) {
		_, err := NewTable[string]("t", "", []Entry{{Symbol: "A", Code: "1"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no description")
	})
}

func TestNewTable_Defaults(t *testing.T) {
	tbl, err := NewTable[string]("t", "", []Entry{
		{Code: "9", Description: "Oil and Gas Extraction"},
		{Symbol: "Plain", Description: "plain entry"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OilAndGasExtraction", "Plain"}, tbl.Symbols())
	assert.Equal(t, "Plain", tbl.Code("Plain"))
}

func TestFind(t *testing.T) {
	tbl, ok := Find("NAICS_Sector")
	require.True(t, ok)
	assert.Equal(t, "naics_sector", tbl.Name())

	_, ok = Find("nope")
	assert.False(t, ok)

	names := make([]string, 0)
	for _, l := range All() {
		names = append(names, l.Name())
	}
	assert.IsIncreasing(t, names)
}

func TestConstantsExistInTables(t *testing.T) {
	for _, d := range []Dataset{NIPA, NIUnderlyingDetail, MNE, FixedAssets, ITA, IIP, InputOutput,
		IntlServTrade, IntlServSTA, GDPbyIndustry, Regional, UnderlyingGDPbyIndustry, APIDatasetMetaData} {
		assert.True(t, Datasets.Contains(d), "dataset %s", d)
	}
	for _, m := range []Method{MethodGetDataSetList, MethodGetParameterList, MethodGetParameterValues,
		MethodGetParameterValuesFiltered, MethodGetData} {
		assert.True(t, Methods.Contains(m), "method %s", m)
	}
	for _, p := range []ParameterName{ParamDatasetName, ParamParameterName, ParamTargetParameter, ParamYear,
		ParamTableName, ParamTableID, ParamFrequency, ParamShowMillions, ParamGeoFips, ParamLineCode,
		ParamIndustry, ParamIndicator, ParamAreaOrCountry, ParamComponent, ParamTypeOfInvestment,
		ParamTypeOfService, ParamTradeDirection, ParamAffiliation, ParamChannel, ParamDestination,
		ParamDirectionOfInvestment, ParamClassification, ParamCountry, ParamOwnershipLevel,
		ParamNonbankAffiliatesOnly, ParamState, ParamSeriesID, ParamInvestment, ParamParentInvestment,
		ParamGetFootnotes, ParamDataset} {
		assert.True(t, ParameterNames.Contains(p), "parameter %s", p)
	}
	for _, f := range []Frequency{Annual, Quarterly, Monthly} {
		assert.True(t, Frequencies.Contains(f), "frequency %s", f)
	}
}

func TestDimensionAccessors(t *testing.T) {
	assert.Equal(t, "A", Annual.Code())
	assert.Equal(t, "Gross Domestic Product", NIPATable("T10105").Description())
	assert.Equal(t, "DebtLiabsUsd", TypeOfInvestment("DebtLiabsUsd").Code())
	assert.Equal(t, "STATE", GeoFips("AllStates").Code())
	assert.Equal(t, "00000", GeoFips("UnitedStates").Code())
	assert.Equal(t, "Outward", DirectionOfInvestment("Outward").Code())
	assert.Equal(t, "Position", Component("Pos").Description())
	assert.Equal(t, "Balance on current account", Indicator("BalCurrAcct").Description())
	assert.Equal(t, "Japan", AreaOrCountry("Japan").Description())
	assert.Equal(t, "Travel", TypeOfService("Travel").Code())
	assert.Equal(t, "Exports", TradeDirection("Exports").Code())
	assert.Equal(t, "Affiliated", Affiliation("Affiliated").Code())
	assert.Equal(t, "By industry", Classification("Industry").Description())
	assert.Equal(t, "Standard NIPA tables", NIPA.Description())
	assert.Equal(t, "GetData", MethodGetData.Code())
}
