package bea

import (
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

// Response mirrors the {"BEAAPI": {"Request": ..., "Results": ...}} envelope.
type Response[T any] struct {
	Request Request `json:"Request"`
	Results T       `json:"Results"`
}

// Request echoes the parameters BEA received.
type Request struct {
	RequestParams []RequestParameter `json:"RequestParam"`
}

// RequestParameter is one echoed parameter. BEA upper-cases both sides.
type RequestParameter struct {
	ParameterName  string `json:"ParameterName"`
	ParameterValue string `json:"ParameterValue"`
}

// Value returns the echoed value for name (case-insensitive match on the key).
func (r Request) Value(name string) (string, bool) {
	want := normalizeKey(name)
	for _, p := range r.RequestParams {
		if normalizeKey(p.ParameterName) == want {
			return p.ParameterValue, true
		}
	}
	return "", false
}

// DatasetInfo is one entry of GetDataSetList.
type DatasetInfo struct {
	DatasetName        codes.Dataset `json:"DatasetName"`
	DatasetDescription string        `json:"DatasetDescription"`
}

// DatasetList is the result of GetDataSetList.
type DatasetList struct {
	Datasets []DatasetInfo `json:"Dataset"`
}

// Find returns the entry for d, or a KindDatasetMissing error.
func (l DatasetList) Find(d codes.Dataset) (DatasetInfo, error) {
	for _, ds := range l.Datasets {
		if ds.DatasetName == d {
			return ds, nil
		}
	}
	return DatasetInfo{}, DatasetMissingError("bea: find dataset", string(d))
}

// Parameter describes one input dimension of a dataset (GetParameterList).
type Parameter struct {
	ParameterName           codes.ParameterName `json:"ParameterName"`
	ParameterDataType       string              `json:"ParameterDataType"`
	ParameterDescription    string              `json:"ParameterDescription"`
	ParameterIsRequiredFlag bool                `json:"ParameterIsRequiredFlag"`
	ParameterDefaultValue   *string             `json:"ParameterDefaultValue,omitempty"`
	MultipleAcceptedFlag    bool                `json:"MultipleAcceptedFlag"`
	AllValue                *string             `json:"AllValue,omitempty"`
}

// ParameterList is the result of GetParameterList.
type ParameterList struct {
	Parameters []Parameter `json:"Parameter"`
}

// Required returns the parameters flagged as required.
func (l ParameterList) Required() []Parameter {
	var out []Parameter
	for _, p := range l.Parameters {
		if p.ParameterIsRequiredFlag {
			out = append(out, p)
		}
	}
	return out
}

// ParameterValue is one accepted value of a parameter. BEA publishes either
// Key/Desc or TableName/Description pairs; both land in Key/Desc. Any other
// members are kept in Extra.
type ParameterValue struct {
	Key   string            `json:"Key"`
	Desc  string            `json:"Desc"`
	Extra map[string]string `json:"Extra,omitempty"`
}

// ParameterValueList is the result of GetParameterValues(Filtered).
type ParameterValueList struct {
	Values []ParameterValue `json:"ParamValue"`
}

// Datum is one observation of GetData. TimePeriod and DataValue are
// present for every dataset; the rest varies and is kept in Fields.
type Datum struct {
	TimePeriod string `json:"TimePeriod"`
	// DataValue is the published string, e.g. "21,060,474" or "(D)".
	DataValue string `json:"DataValue"`
	// Value is DataValue parsed as a number; nil for suppression markers.
	Value    *float64          `json:"Value,omitempty"`
	Unit     string            `json:"CL_UNIT,omitempty"`
	UnitMult int               `json:"UNIT_MULT,omitempty"`
	NoteRef  string            `json:"NoteRef,omitempty"`
	Fields   map[string]string `json:"Fields,omitempty"`
}

// Note is a footnote referenced by Datum.NoteRef.
type Note struct {
	NoteRef  string `json:"NoteRef"`
	NoteText string `json:"NoteText"`
}

// Dimension describes one column of the Data rows.
type Dimension struct {
	Name     string `json:"Name"`
	DataType string `json:"DataType"`
	IsValue  bool   `json:"IsValue"`
}

// DataResults is the result of GetData.
type DataResults struct {
	Statistic     string      `json:"Statistic,omitempty"`
	UnitOfMeasure string      `json:"UnitOfMeasure,omitempty"`
	PublicTable   string      `json:"PublicTable,omitempty"`
	Dimensions    []Dimension `json:"Dimensions,omitempty"`
	Data          []Datum     `json:"Data"`
	Notes         []Note      `json:"Notes,omitempty"`
}
