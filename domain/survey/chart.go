package survey

// Series is one named sequence aligned to a payload's labels.
type Series struct {
	Label  string    `json:"label"`
	Colour string    `json:"backgroundColor,omitempty"`
	Data   []float64 `json:"data"`
}

// ChartPayload compares named series over one category axis. Every series
// carries exactly one value per label.
type ChartPayload struct {
	Axis     string   `json:"sideBreak"`
	Labels   []string `json:"labels"`
	Datasets []Series `json:"datasets"`
}

// Point is one bar of a variable chart.
type Point struct {
	X     string   `json:"x"`
	Y     float64  `json:"y"`
	Error *float64 `json:"error,omitempty"`
}

// PointSeries is a named list of points.
type PointSeries struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// AxisLabels names chart axes.
type AxisLabels struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Chart kinds for variable tables.
const (
	ChartStackedBar = "stacked_bar"
	ChartGroupedBar = "grouped_bar"
	ChartBar        = "bar"
	ChartHistogram  = "hist"
)

// VariableChart is the chart returned with a variable table.
type VariableChart struct {
	Kind      string         `json:"kind"`
	X         string         `json:"x"`
	Series    []PointSeries  `json:"series"`
	Labels    AxisLabels     `json:"labels"`
	Histogram *VariableChart `json:"histogram,omitempty"`
}
