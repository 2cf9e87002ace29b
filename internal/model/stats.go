package model

// Stats is the initial snapshot handed to a new subscriber: aggregate counts plus
// the full parsed log list of a site.
type Stats struct {
	TotalCount    int        `json:"totalCount"`
	ErrorsCount   int        `json:"errorsCount"`
	WarningsCount int        `json:"warningsCount"`
	InfoCount     int        `json:"infoCount"`
	DebugCount    int        `json:"debugCount"`
	Logs          []LogEntry `json:"logs"`
}
