package bea

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

// Request-level query keys. BEA matches keys case-insensitively; these are
// spelled the way the API documentation spells them.
const (
	keyUserID       = "USERID"
	keyMethod       = "METHOD"
	keyResultFormat = "RESULTFORMAT"
	resultFormat    = "JSON"
)

// QueryParam is one key/value pair of the outgoing query string.
type QueryParam struct {
	Key   string
	Value string
}

// Options is a sparse set of query parameters. Empty fields are omitted from
// the request. Multiple values are comma separated, as BEA expects
// (e.g. Year: "2021,2022").
type Options struct {
	Dataset         codes.Dataset
	ParameterName   codes.ParameterName
	TargetParameter codes.ParameterName

	TableName    string
	TableID      string
	Frequency    string
	Year         string
	ShowMillions string
	GeoFips      string
	LineCode     string
	Industry     string

	Indicator        string
	AreaOrCountry    string
	Component        string
	TypeOfInvestment string
	TypeOfService    string
	TradeDirection   string
	Affiliation      string
	Channel          string
	Destination      string

	DirectionOfInvestment string
	Classification        string
	Country               string
	OwnershipLevel        string
	NonbankAffiliatesOnly string
	State                 string
	SeriesID              string
	Investment            string
	ParentInvestment      string
	GetFootnotes          string

	// Extra carries parameters without a dedicated field, keyed by wire name.
	Extra map[string]string
}

type optionField struct {
	name  codes.ParameterName
	value *string
}

// fields lists every dedicated field in emission order.
func (o *Options) fields() []optionField {
	dataset := string(o.Dataset)
	param := string(o.ParameterName)
	target := string(o.TargetParameter)
	return []optionField{
		{codes.ParamDatasetName, &dataset},
		{codes.ParamParameterName, &param},
		{codes.ParamTargetParameter, &target},
		{codes.ParamTableName, &o.TableName},
		{codes.ParamTableID, &o.TableID},
		{codes.ParamFrequency, &o.Frequency},
		{codes.ParamYear, &o.Year},
		{codes.ParamShowMillions, &o.ShowMillions},
		{codes.ParamGeoFips, &o.GeoFips},
		{codes.ParamLineCode, &o.LineCode},
		{codes.ParamIndustry, &o.Industry},
		{codes.ParamIndicator, &o.Indicator},
		{codes.ParamAreaOrCountry, &o.AreaOrCountry},
		{codes.ParamComponent, &o.Component},
		{codes.ParamTypeOfInvestment, &o.TypeOfInvestment},
		{codes.ParamTypeOfService, &o.TypeOfService},
		{codes.ParamTradeDirection, &o.TradeDirection},
		{codes.ParamAffiliation, &o.Affiliation},
		{codes.ParamChannel, &o.Channel},
		{codes.ParamDestination, &o.Destination},
		{codes.ParamDirectionOfInvestment, &o.DirectionOfInvestment},
		{codes.ParamClassification, &o.Classification},
		{codes.ParamCountry, &o.Country},
		{codes.ParamOwnershipLevel, &o.OwnershipLevel},
		{codes.ParamNonbankAffiliatesOnly, &o.NonbankAffiliatesOnly},
		{codes.ParamState, &o.State},
		{codes.ParamSeriesID, &o.SeriesID},
		{codes.ParamInvestment, &o.Investment},
		{codes.ParamParentInvestment, &o.ParentInvestment},
		{codes.ParamGetFootnotes, &o.GetFootnotes},
	}
}

// Params flattens the options in a fixed order: dedicated fields first, then
// Extra sorted by key. Empty values are dropped.
func (o Options) Params() []QueryParam {
	var out []QueryParam
	for _, f := range o.fields() {
		if v := strings.TrimSpace(*f.value); v != "" {
			out = append(out, QueryParam{Key: f.name.Code(), Value: v})
		}
	}

	for _, k := range sortedKeys(o.Extra) {
		if v := strings.TrimSpace(o.Extra[k]); v != "" {
			out = append(out, QueryParam{Key: k, Value: v})
		}
	}
	return out
}

// Set assigns a parameter by name. The name is matched against the
// parameter table ignoring case, so "year", "YEAR" and "Year" all set Year.
// Names outside the table go to Extra unchanged.
func (o *Options) Set(name, value string) {
	p, err := codes.ParameterNames.Parse(name)
	if err != nil {
		if o.Extra == nil {
			o.Extra = make(map[string]string)
		}
		o.Extra[name] = value
		return
	}
	switch p {
	case codes.ParamDatasetName:
		o.Dataset = codes.Dataset(value)
	case codes.ParamParameterName:
		o.ParameterName = codes.ParameterName(value)
	case codes.ParamTargetParameter:
		o.TargetParameter = codes.ParameterName(value)
	default:
		for _, f := range o.fields() {
			if f.name == p {
				*f.value = value
				return
			}
		}
		// Known to the table but without a field, e.g. Dataset.
		if o.Extra == nil {
			o.Extra = make(map[string]string)
		}
		o.Extra[p.Code()] = value
	}
}

// buildQuery renders the full query string: USERID and METHOD lead,
// RESULTFORMAT=JSON always closes it.
func buildQuery(apiKey string, method codes.Method, opts Options) string {
	params := make([]QueryParam, 0, 8)
	params = append(params, QueryParam{Key: keyUserID, Value: apiKey})
	params = append(params, QueryParam{Key: keyMethod, Value: string(method)})
	for _, p := range opts.Params() {
		if isReservedKey(p.Key) {
			continue
		}
		params = append(params, p)
	}
	params = append(params, QueryParam{Key: keyResultFormat, Value: resultFormat})

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func isReservedKey(k string) bool {
	switch normalizeKey(k) {
	case keyUserID, keyMethod, keyResultFormat:
		return true
	}
	return false
}

func normalizeKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
