package progress

import "strconv"

// Result is the outcome of one cycle. When Status is not OK the numeric
// fields are zero and must not be shown.
type Result struct {
	RemainingUphill          int    `json:"remainingUphill"`
	RemainingDownhill        int    `json:"remainingDownhill"`
	RemainingUphillPercent   int    `json:"remainingUphillPercent"`
	RemainingDownhillPercent int    `json:"remainingDownhillPercent"`
	TotalUphill              int    `json:"totalUphill"`
	TotalDownhill            int    `json:"totalDownhill"`
	RouteID                  int64  `json:"routeId"`
	RouteName                string `json:"routeName,omitempty"`
	MatchedIndex             int    `json:"matchedIndex"`
	Status                   Status `json:"status"`
}

func (r Result) OK() bool { return r.Status == StatusOK }

func (r Result) text(v int) string {
	if r.Status != StatusOK {
		return r.Status.String()
	}
	return strconv.Itoa(v)
}

func (r Result) RemainingUphillText() string          { return r.text(r.RemainingUphill) }
func (r Result) RemainingDownhillText() string        { return r.text(r.RemainingDownhill) }
func (r Result) RemainingUphillPercentText() string   { return r.text(r.RemainingUphillPercent) }
func (r Result) RemainingDownhillPercentText() string { return r.text(r.RemainingDownhillPercent) }
func (r Result) TotalUphillText() string              { return r.text(r.TotalUphill) }
func (r Result) TotalDownhillText() string            { return r.text(r.TotalDownhill) }

// Field describes one value exposed to consumers.
type Field struct {
	Key   string
	Label string
	Get   func(Result) string
}

// Fields is the fixed set of exported values, in display order.
var Fields = []Field{
	{"remain_uphill", "Remaining uphill", Result.RemainingUphillText},
	{"remain_downhill", "Remaining downhill", Result.RemainingDownhillText},
	{"remain_uphill_percent", "Remaining uphill %", Result.RemainingUphillPercentText},
	{"remain_downhill_percent", "Remaining downhill %", Result.RemainingDownhillPercentText},
	{"total_uphill", "Total uphill", Result.TotalUphillText},
	{"total_downhill", "Total downhill", Result.TotalDownhillText},
	{"route_name", "Route name", func(r Result) string { return r.RouteName }},
}

var fieldsByKey = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Key] = f
	}
	return m
}()

// LookupField finds a field by key.
func LookupField(key string) (Field, bool) {
	f, ok := fieldsByKey[key]
	return f, ok
}

// Values renders every field of r keyed by Field.Key.
func (r Result) Values() map[string]string {
	out := make(map[string]string, len(Fields))
	for _, f := range Fields {
		out[f.Key] = f.Get(r)
	}
	return out
}
