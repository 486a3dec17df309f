package domain

// DatasetFormat represents the file formats a dataset can be imported from or exported to.
type DatasetFormat string

const (
	DatasetFormatCSV  DatasetFormat = "csv"
	DatasetFormatXLSX DatasetFormat = "xlsx"
)

// DatasetContentTypes maps DatasetFormat to its MIME content type.
var DatasetContentTypes = map[DatasetFormat]string{
	DatasetFormatCSV:  "text/csv",
	DatasetFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DatasetExtensions maps file extensions (without dot) to DatasetFormat.
var DatasetExtensions = map[string]DatasetFormat{
	"csv":  DatasetFormatCSV,
	"xlsx": DatasetFormatXLSX,
}

// EntryState tracks a history entry in the change log.
type EntryState string

const (
	EntryStateApplied   EntryState = "applied"
	EntryStateUndone    EntryState = "undone"
	EntryStateDiscarded EntryState = "discarded"
)

// ProcessStatus tracks a long-running extraction process.
type ProcessStatus string

const (
	ProcessStatusRunning  ProcessStatus = "running"
	ProcessStatusDone     ProcessStatus = "done"
	ProcessStatusCanceled ProcessStatus = "canceled"
	ProcessStatusFailed   ProcessStatus = "failed"
)

// FilterMode selects how a facet matches a cell.
type FilterMode string

const (
	FilterModeText     FilterMode = "text"
	FilterModeBlank    FilterMode = "blank"
	FilterModeNonBlank FilterMode = "nonblank"
)

// ValidFilterModes is the set of accepted filter modes.
var ValidFilterModes = map[FilterMode]bool{
	FilterModeText:     true,
	FilterModeBlank:    true,
	FilterModeNonBlank: true,
}
