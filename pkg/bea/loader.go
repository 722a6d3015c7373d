package bea

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

const rootKey = "BEAAPI"

// LoadOption configures response parsing.
type LoadOption func(*loader)

// WithStrictFlags makes flag fields reject tokens other than "1", "0",
// "true" and "false" with a KindNotBool error. By default such tokens read
// as false.
func WithStrictFlags() LoadOption {
	return func(l *loader) {
		l.strictFlags = true
	}
}

type loader struct {
	op          string
	strictFlags bool
}

func newLoader(op string, opts []LoadOption) *loader {
	l := &loader{op: op}
	for _, o := range opts {
		o(l)
	}
	return l
}

// node is a JSON value and its path from the document root.
type node struct {
	gjson.Result
	path string
}

func (n node) child(key string) string {
	if n.path == "" {
		return key
	}
	return n.path + "." + key
}

func (n node) index(i int) string {
	return fmt.Sprintf("%s[%d]", n.path, i)
}

// member looks key up without gjson path syntax, so keys containing dots
// or wildcards match literally.
func member(obj gjson.Result, key string) (gjson.Result, bool) {
	var (
		out   gjson.Result
		found bool
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			out, found = v, true
			return false
		}
		return true
	})
	return out, found
}

// ParseDatasetList parses a GetDataSetList response body.
func ParseDatasetList(body []byte, opts ...LoadOption) (*Response[DatasetList], error) {
	l := newLoader("bea: parse dataset list", opts)
	req, results, err := l.envelope(body)
	if err != nil {
		return nil, err
	}
	arr, err := l.array(results, "Dataset")
	if err != nil {
		return nil, err
	}
	ds, err := each(arr, l.datasetInfo)
	if err != nil {
		return nil, err
	}
	return &Response[DatasetList]{Request: req, Results: DatasetList{Datasets: ds}}, nil
}

// ParseParameterList parses a GetParameterList response body.
func ParseParameterList(body []byte, opts ...LoadOption) (*Response[ParameterList], error) {
	l := newLoader("bea: parse parameter list", opts)
	req, results, err := l.envelope(body)
	if err != nil {
		return nil, err
	}
	arr, err := l.array(results, "Parameter")
	if err != nil {
		return nil, err
	}
	ps, err := each(arr, l.parameter)
	if err != nil {
		return nil, err
	}
	return &Response[ParameterList]{Request: req, Results: ParameterList{Parameters: ps}}, nil
}

// ParseParameterValues parses a GetParameterValues or
// GetParameterValuesFiltered response body.
func ParseParameterValues(body []byte, opts ...LoadOption) (*Response[ParameterValueList], error) {
	l := newLoader("bea: parse parameter values", opts)
	req, results, err := l.envelope(body)
	if err != nil {
		return nil, err
	}
	arr, err := l.array(results, "ParamValue")
	if err != nil {
		return nil, err
	}
	vs, err := each(arr, l.parameterValue)
	if err != nil {
		return nil, err
	}
	return &Response[ParameterValueList]{Request: req, Results: ParameterValueList{Values: vs}}, nil
}

// ParseData parses a GetData response body. GDPbyIndustry answers with an
// array of result objects, one per table; their rows are concatenated and
// the metadata of the first one is kept.
func ParseData(body []byte, opts ...LoadOption) (*Response[DataResults], error) {
	l := newLoader("bea: parse data", opts)
	req, results, err := l.envelope(body)
	if err != nil {
		return nil, err
	}

	if !results.IsArray() {
		dr, err := l.dataResults(results)
		if err != nil {
			return nil, err
		}
		return &Response[DataResults]{Request: req, Results: dr}, nil
	}

	parts, err := each(results, l.dataResults)
	if err != nil {
		return nil, err
	}
	var merged DataResults
	for i, p := range parts {
		if i == 0 {
			merged = p
			continue
		}
		merged.Data = append(merged.Data, p.Data...)
		merged.Notes = append(merged.Notes, p.Notes...)
	}
	if merged.Data == nil {
		merged.Data = []Datum{}
	}
	return &Response[DataResults]{Request: req, Results: merged}, nil
}

// envelope validates the BEAAPI wrapper and returns the echoed request and
// the Results node. Error envelopes become KindAPI errors.
func (l *loader) envelope(body []byte) (Request, node, error) {
	if !gjson.ValidBytes(body) {
		return Request{}, node{}, newError(l.op, &Error{Kind: KindInvalidJSON, Msg: "response body is not valid JSON"})
	}
	doc := node{Result: gjson.ParseBytes(body)}

	api, err := l.field(doc, rootKey)
	if err != nil {
		return Request{}, node{}, err
	}
	if err := l.object(api, rootKey); err != nil {
		return Request{}, node{}, err
	}
	if e, ok := member(api.Result, "Error"); ok {
		return Request{}, node{}, l.apiError(node{e, api.child("Error")})
	}

	reqNode, err := l.field(api, "Request")
	if err != nil {
		return Request{}, node{}, err
	}
	req, err := l.request(reqNode)
	if err != nil {
		return Request{}, node{}, err
	}

	results, err := l.field(api, "Results")
	if err != nil {
		return Request{}, node{}, err
	}
	if results.IsObject() {
		if e, ok := member(results.Result, "Error"); ok {
			return Request{}, node{}, l.apiError(node{e, results.child("Error")})
		}
	}
	return req, results, nil
}

func (l *loader) apiError(n node) error {
	e := &Error{Kind: KindAPI, Path: n.path}
	if !n.IsObject() {
		e.Msg = n.String()
		return newError(l.op, e)
	}
	if c, ok := member(n.Result, "APIErrorCode"); ok {
		e.Code = c.String()
	}
	if d, ok := member(n.Result, "APIErrorDescription"); ok {
		e.Msg = d.String()
	}
	if detail, ok := member(n.Result, "ErrorDetail"); ok {
		if d, ok := member(detail, "Description"); ok && d.String() != "" {
			if e.Msg != "" {
				e.Msg += ": "
			}
			e.Msg += d.String()
		}
	}
	return newError(l.op, e)
}

func (l *loader) request(n node) (Request, error) {
	arr, err := l.array(n, "RequestParam")
	if err != nil {
		return Request{}, err
	}
	ps, err := each(arr, l.requestParameter)
	if err != nil {
		return Request{}, err
	}
	return Request{RequestParams: ps}, nil
}

func (l *loader) requestParameter(n node) (RequestParameter, error) {
	name, err := l.str(n, "ParameterName")
	if err != nil {
		return RequestParameter{}, err
	}
	value, err := l.scalar(n, "ParameterValue")
	if err != nil {
		return RequestParameter{}, err
	}
	return RequestParameter{ParameterName: name, ParameterValue: value}, nil
}

func (l *loader) datasetInfo(n node) (DatasetInfo, error) {
	name, err := l.str(n, "DatasetName")
	if err != nil {
		return DatasetInfo{}, err
	}
	ds, perr := codes.Datasets.Parse(name)
	if perr != nil {
		return DatasetInfo{}, l.noVariant(n.child("DatasetName"), "DatasetName", perr)
	}
	desc, err := l.str(n, "DatasetDescription")
	if err != nil {
		return DatasetInfo{}, err
	}
	return DatasetInfo{DatasetName: ds, DatasetDescription: desc}, nil
}

func (l *loader) parameter(n node) (Parameter, error) {
	var p Parameter

	name, err := l.str(n, "ParameterName")
	if err != nil {
		return Parameter{}, err
	}
	if p.ParameterName, err = codes.ParameterNames.Parse(name); err != nil {
		return Parameter{}, l.noVariant(n.child("ParameterName"), "ParameterName", err)
	}
	if p.ParameterDataType, err = l.str(n, "ParameterDataType"); err != nil {
		return Parameter{}, err
	}
	if p.ParameterDescription, err = l.str(n, "ParameterDescription"); err != nil {
		return Parameter{}, err
	}
	if p.ParameterIsRequiredFlag, err = l.flag(n, "ParameterIsRequiredFlag"); err != nil {
		return Parameter{}, err
	}
	if p.ParameterDefaultValue, err = l.optStr(n, "ParameterDefaultValue"); err != nil {
		return Parameter{}, err
	}
	if p.MultipleAcceptedFlag, err = l.flag(n, "MultipleAcceptedFlag"); err != nil {
		return Parameter{}, err
	}
	if p.AllValue, err = l.optStr(n, "AllValue"); err != nil {
		return Parameter{}, err
	}
	return p, nil
}

var (
	valueKeys = []string{"Key", "TableName"}
	descKeys  = []string{"Desc", "Description"}
)

func (l *loader) parameterValue(n node) (ParameterValue, error) {
	if err := l.object(n, ""); err != nil {
		return ParameterValue{}, err
	}

	var (
		v        ParameterValue
		keyUsed  string
		descUsed string
	)
	for _, k := range valueKeys {
		if _, ok := member(n.Result, k); ok {
			s, err := l.scalar(n, k)
			if err != nil {
				return ParameterValue{}, err
			}
			v.Key, keyUsed = s, k
			break
		}
	}
	if keyUsed == "" {
		return ParameterValue{}, keyMissing(l.op, n.path, valueKeys[0])
	}
	for _, k := range descKeys {
		if _, ok := member(n.Result, k); ok {
			s, err := l.scalar(n, k)
			if err != nil {
				return ParameterValue{}, err
			}
			v.Desc, descUsed = s, k
			break
		}
	}

	var err error
	n.ForEach(func(k, val gjson.Result) bool {
		key := k.Str
		if key == keyUsed || key == descUsed {
			return true
		}
		s, serr := l.asScalar(node{val, n.child(key)}, key)
		if serr != nil {
			err = serr
			return false
		}
		if v.Extra == nil {
			v.Extra = make(map[string]string)
		}
		v.Extra[key] = s
		return true
	})
	if err != nil {
		return ParameterValue{}, err
	}
	return v, nil
}

func (l *loader) dataResults(n node) (DataResults, error) {
	var (
		dr  DataResults
		err error
	)
	if err = l.object(n, ""); err != nil {
		return DataResults{}, err
	}
	if dr.Statistic, err = l.optString(n, "Statistic"); err != nil {
		return DataResults{}, err
	}
	if dr.UnitOfMeasure, err = l.optString(n, "UnitOfMeasure"); err != nil {
		return DataResults{}, err
	}
	if dr.PublicTable, err = l.optString(n, "PublicTable"); err != nil {
		return DataResults{}, err
	}

	if dims, ok, err := l.optArray(n, "Dimensions"); err != nil {
		return DataResults{}, err
	} else if ok {
		if dr.Dimensions, err = each(dims, l.dimension); err != nil {
			return DataResults{}, err
		}
	}

	data, err := l.array(n, "Data")
	if err != nil {
		return DataResults{}, err
	}
	if dr.Data, err = each(data, l.datum); err != nil {
		return DataResults{}, err
	}

	if notes, ok, err := l.optArray(n, "Notes"); err != nil {
		return DataResults{}, err
	} else if ok {
		if dr.Notes, err = each(notes, l.note); err != nil {
			return DataResults{}, err
		}
	}
	return dr, nil
}

func (l *loader) dimension(n node) (Dimension, error) {
	name, err := l.str(n, "Name")
	if err != nil {
		return Dimension{}, err
	}
	dt, err := l.optString(n, "DataType")
	if err != nil {
		return Dimension{}, err
	}
	isValue := false
	if _, ok := member(n.Result, "IsValue"); ok {
		if isValue, err = l.flag(n, "IsValue"); err != nil {
			return Dimension{}, err
		}
	}
	return Dimension{Name: name, DataType: dt, IsValue: isValue}, nil
}

func (l *loader) note(n node) (Note, error) {
	ref, err := l.scalar(n, "NoteRef")
	if err != nil {
		return Note{}, err
	}
	text, err := l.str(n, "NoteText")
	if err != nil {
		return Note{}, err
	}
	return Note{NoteRef: ref, NoteText: text}, nil
}

// Datum members handled by dedicated fields.
var datumKeys = map[string]bool{
	"TimePeriod": true,
	"DataValue":  true,
	"UNIT_MULT":  true,
	"CL_UNIT":    true,
	"NoteRef":    true,
}

func (l *loader) datum(n node) (Datum, error) {
	var (
		d   Datum
		err error
	)
	if d.TimePeriod, err = l.scalar(n, "TimePeriod"); err != nil {
		return Datum{}, err
	}
	if d.DataValue, err = l.scalar(n, "DataValue"); err != nil {
		return Datum{}, err
	}
	d.Value = parseDataValue(d.DataValue)

	if d.UnitMult, err = l.optInt(n, "UNIT_MULT"); err != nil {
		return Datum{}, err
	}
	if d.Unit, err = l.optString(n, "CL_UNIT"); err != nil {
		return Datum{}, err
	}
	if d.NoteRef, err = l.optString(n, "NoteRef"); err != nil {
		return Datum{}, err
	}

	n.ForEach(func(k, v gjson.Result) bool {
		if datumKeys[k.Str] {
			return true
		}
		s, serr := l.asScalar(node{v, n.child(k.Str)}, k.Str)
		if serr != nil {
			err = serr
			return false
		}
		if d.Fields == nil {
			d.Fields = make(map[string]string)
		}
		d.Fields[k.Str] = s
		return true
	})
	if err != nil {
		return Datum{}, err
	}
	return d, nil
}

// parseDataValue reads BEA's formatted numbers ("21,060,474", "-3.2").
// Suppression markers such as "(D)" or "(NA)" yield nil.
func parseDataValue(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// each converts every element of arr. The first failure aborts the whole
// conversion.
func each[T any](arr node, fn func(node) (T, error)) ([]T, error) {
	elems := arr.Array()
	out := make([]T, 0, len(elems))
	for i, e := range elems {
		v, err := fn(node{e, arr.index(i)})
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *loader) object(n node, key string) error {
	if !n.IsObject() {
		return wrongKind(l.op, KindNotObject, n.path, key)
	}
	return nil
}

// field returns the required member key of object n.
func (l *loader) field(n node, key string) (node, error) {
	if err := l.object(n, ""); err != nil {
		return node{}, err
	}
	v, ok := member(n.Result, key)
	if !ok {
		return node{}, keyMissing(l.op, n.path, key)
	}
	return node{v, n.child(key)}, nil
}

// optField returns member key of object n; absent and null members report
// false.
func (l *loader) optField(n node, key string) (node, bool, error) {
	if err := l.object(n, ""); err != nil {
		return node{}, false, err
	}
	v, ok := member(n.Result, key)
	if !ok || v.Type == gjson.Null {
		return node{}, false, nil
	}
	return node{v, n.child(key)}, true, nil
}

func (l *loader) array(n node, key string) (node, error) {
	v, err := l.field(n, key)
	if err != nil {
		return node{}, err
	}
	if !v.IsArray() {
		return node{}, wrongKind(l.op, KindNotArray, v.path, key)
	}
	return v, nil
}

func (l *loader) optArray(n node, key string) (node, bool, error) {
	v, ok, err := l.optField(n, key)
	if err != nil || !ok {
		return node{}, false, err
	}
	if !v.IsArray() {
		return node{}, false, wrongKind(l.op, KindNotArray, v.path, key)
	}
	return v, true, nil
}

func (l *loader) str(n node, key string) (string, error) {
	v, err := l.field(n, key)
	if err != nil {
		return "", err
	}
	if v.Type != gjson.String {
		return "", wrongKind(l.op, KindNotString, v.path, key)
	}
	return v.Str, nil
}

func (l *loader) optStr(n node, key string) (*string, error) {
	v, ok, err := l.optField(n, key)
	if err != nil || !ok {
		return nil, err
	}
	if v.Type != gjson.String {
		return nil, wrongKind(l.op, KindNotString, v.path, key)
	}
	s := v.Str
	return &s, nil
}

// optString is optStr for fields where absent and empty mean the same.
func (l *loader) optString(n node, key string) (string, error) {
	s, err := l.optStr(n, key)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// scalar reads a required member that BEA publishes as either a string or
// a bare number. Numbers keep their literal text.
func (l *loader) scalar(n node, key string) (string, error) {
	v, err := l.field(n, key)
	if err != nil {
		return "", err
	}
	return l.asScalar(v, key)
}

func (l *loader) asScalar(v node, key string) (string, error) {
	switch v.Type {
	case gjson.String:
		return v.Str, nil
	case gjson.Number:
		return v.Raw, nil
	}
	return "", wrongKind(l.op, KindNotString, v.path, key)
}

func (l *loader) optInt(n node, key string) (int, error) {
	v, ok, err := l.optField(n, key)
	if err != nil || !ok {
		return 0, err
	}
	var raw string
	switch v.Type {
	case gjson.String:
		raw = strings.TrimSpace(v.Str)
	case gjson.Number:
		raw = v.Raw
	default:
		return 0, wrongKind(l.op, KindNotInteger, v.path, key)
	}
	i, perr := strconv.Atoi(raw)
	if perr != nil {
		return 0, newError(l.op, &Error{Kind: KindNotInteger, Key: key, Path: v.path, Msg: raw})
	}
	return i, nil
}

// flag reads a required boolean. BEA encodes these as "1"/"0" or
// "true"/"false"; unrecognized tokens read as false unless strict.
func (l *loader) flag(n node, key string) (bool, error) {
	v, err := l.field(n, key)
	if err != nil {
		return false, err
	}
	var token string
	switch v.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		token = v.Str
	case gjson.Number:
		token = v.Raw
	case gjson.Null:
		token = "null"
	default:
		return false, wrongKind(l.op, KindNotBool, v.path, key)
	}
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	if l.strictFlags {
		return false, newError(l.op, &Error{Kind: KindNotBool, Key: key, Path: v.path, Msg: token})
	}
	return false, nil
}

func (l *loader) noVariant(path, key string, err error) error {
	return newError(l.op, &Error{Kind: KindNoVariant, Key: key, Path: path, Err: err})
}
