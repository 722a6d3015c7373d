package codes

// Dataset names a BEA dataset (DatasetName).
type Dataset string

// Datasets published by the API.
const (
	NIPA                    Dataset = "NIPA"
	NIUnderlyingDetail      Dataset = "NIUnderlyingDetail"
	MNE                     Dataset = "MNE"
	FixedAssets             Dataset = "FixedAssets"
	ITA                     Dataset = "ITA"
	IIP                     Dataset = "IIP"
	InputOutput             Dataset = "InputOutput"
	IntlServTrade           Dataset = "IntlServTrade"
	IntlServSTA             Dataset = "IntlServSTA"
	GDPbyIndustry           Dataset = "GDPbyIndustry"
	Regional                Dataset = "Regional"
	UnderlyingGDPbyIndustry Dataset = "UnderlyingGDPbyIndustry"
	APIDatasetMetaData      Dataset = "APIDatasetMetaData"
)

// Method is an API verb (METHOD).
type Method string

const (
	MethodGetDataSetList             Method = "GetDataSetList"
	MethodGetParameterList           Method = "GetParameterList"
	MethodGetParameterValues         Method = "GetParameterValues"
	MethodGetParameterValuesFiltered Method = "GetParameterValuesFiltered"
	MethodGetData                    Method = "GetData"
)

// ParameterName is a query dimension accepted by the API.
type ParameterName string

const (
	ParamDatasetName           ParameterName = "DatasetName"
	ParamParameterName         ParameterName = "ParameterName"
	ParamTargetParameter       ParameterName = "TargetParameter"
	ParamYear                  ParameterName = "Year"
	ParamTableName             ParameterName = "TableName"
	ParamTableID               ParameterName = "TableID"
	ParamFrequency             ParameterName = "Frequency"
	ParamShowMillions          ParameterName = "ShowMillions"
	ParamGeoFips               ParameterName = "GeoFips"
	ParamLineCode              ParameterName = "LineCode"
	ParamIndustry              ParameterName = "Industry"
	ParamIndicator             ParameterName = "Indicator"
	ParamAreaOrCountry         ParameterName = "AreaOrCountry"
	ParamComponent             ParameterName = "Component"
	ParamTypeOfInvestment      ParameterName = "TypeOfInvestment"
	ParamTypeOfService         ParameterName = "TypeOfService"
	ParamTradeDirection        ParameterName = "TradeDirection"
	ParamAffiliation           ParameterName = "Affiliation"
	ParamChannel               ParameterName = "Channel"
	ParamDestination           ParameterName = "Destination"
	ParamDirectionOfInvestment ParameterName = "DirectionOfInvestment"
	ParamClassification        ParameterName = "Classification"
	ParamCountry               ParameterName = "Country"
	ParamOwnershipLevel        ParameterName = "OwnershipLevel"
	ParamNonbankAffiliatesOnly ParameterName = "NonbankAffiliatesOnly"
	ParamState                 ParameterName = "State"
	ParamSeriesID              ParameterName = "SeriesID"
	ParamInvestment            ParameterName = "Investment"
	ParamParentInvestment      ParameterName = "ParentInvestment"
	ParamGetFootnotes          ParameterName = "GetFootnotes"
	ParamDataset               ParameterName = "Dataset"
)

// Frequency is the periodicity of a series.
type Frequency string

const (
	Annual    Frequency = "Annual"
	Quarterly Frequency = "Quarterly"
	Monthly   Frequency = "Monthly"
)

// The remaining dimensions are plain symbols over their tables.
type (
	NIPATable             string
	DirectionOfInvestment string
	Classification        string
	TypeOfInvestment      string
	Component             string
	Indicator             string
	AreaOrCountry         string
	TypeOfService         string
	TradeDirection        string
	Affiliation           string
	GeoFips               string
)

var (
	Datasets               = mustLoad[Dataset]("dataset.yaml")
	Methods                = mustLoad[Method]("method.yaml")
	ParameterNames         = mustLoad[ParameterName]("parameter_name.yaml")
	Frequencies            = mustLoad[Frequency]("frequency.yaml")
	NIPATables             = mustLoad[NIPATable]("nipa_table.yaml")
	DirectionsOfInvestment = mustLoad[DirectionOfInvestment]("direction_of_investment.yaml")
	Classifications        = mustLoad[Classification]("classification.yaml")
	TypesOfInvestment      = mustLoad[TypeOfInvestment]("type_of_investment.yaml")
	Components             = mustLoad[Component]("component.yaml")
	Indicators             = mustLoad[Indicator]("indicator.yaml")
	AreasOrCountries       = mustLoad[AreaOrCountry]("area_or_country.yaml")
	TypesOfService         = mustLoad[TypeOfService]("type_of_service.yaml")
	TradeDirections        = mustLoad[TradeDirection]("trade_direction.yaml")
	Affiliations           = mustLoad[Affiliation]("affiliation.yaml")
	GeoFipsAggregates      = mustLoad[GeoFips]("geo_fips.yaml")
)

func (d Dataset) Description() string { return Datasets.Description(d) }
func (d Dataset) Code() string        { return Datasets.Code(d) }
func (d Dataset) String() string      { return string(d) }

func (m Method) Description() string { return Methods.Description(m) }
func (m Method) Code() string        { return Methods.Code(m) }

func (p ParameterName) Description() string { return ParameterNames.Description(p) }
func (p ParameterName) Code() string        { return ParameterNames.Code(p) }
func (p ParameterName) String() string      { return string(p) }

func (f Frequency) Description() string { return Frequencies.Description(f) }
func (f Frequency) Code() string        { return Frequencies.Code(f) }

func (t NIPATable) Description() string { return NIPATables.Description(t) }
func (t NIPATable) Code() string        { return NIPATables.Code(t) }

func (d DirectionOfInvestment) Description() string { return DirectionsOfInvestment.Description(d) }
func (d DirectionOfInvestment) Code() string        { return DirectionsOfInvestment.Code(d) }

func (c Classification) Description() string { return Classifications.Description(c) }
func (c Classification) Code() string        { return Classifications.Code(c) }

func (t TypeOfInvestment) Description() string { return TypesOfInvestment.Description(t) }
func (t TypeOfInvestment) Code() string        { return TypesOfInvestment.Code(t) }

func (c Component) Description() string { return Components.Description(c) }
func (c Component) Code() string        { return Components.Code(c) }

func (i Indicator) Description() string { return Indicators.Description(i) }
func (i Indicator) Code() string        { return Indicators.Code(i) }

func (a AreaOrCountry) Description() string { return AreasOrCountries.Description(a) }
func (a AreaOrCountry) Code() string        { return AreasOrCountries.Code(a) }

func (t TypeOfService) Description() string { return TypesOfService.Description(t) }
func (t TypeOfService) Code() string        { return TypesOfService.Code(t) }

func (t TradeDirection) Description() string { return TradeDirections.Description(t) }
func (t TradeDirection) Code() string        { return TradeDirections.Code(t) }

func (a Affiliation) Description() string { return Affiliations.Description(a) }
func (a Affiliation) Code() string        { return Affiliations.Code(a) }

func (g GeoFips) Description() string { return GeoFipsAggregates.Description(g) }
func (g GeoFips) Code() string        { return GeoFipsAggregates.Code(g) }
