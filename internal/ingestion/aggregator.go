package ingestion

import "sort"

// Messages returned with import reports
const (
	MessageCompleted        = "Procesamiento completado"
	MessageCompletedReplace = "Procesamiento completado con reemplazo"
	MessageRowFailed        = "Error procesando fila (consulte logs)"
)

// Aggregator tallies the outcome of every row of one import.
// A row is either committed or rejected, never both.
type Aggregator struct {
	kind     ReportKind
	total    int
	inserted int
	errors   []RowError
	rejected map[int]struct{}
}

// NewAggregator creates an aggregator for an upload of total rows
func NewAggregator(kind ReportKind, total int) *Aggregator {
	return &Aggregator{
		kind:     kind,
		total:    total,
		rejected: make(map[int]struct{}),
	}
}

// Committed records n rows as stored
func (a *Aggregator) Committed(n int) {
	a.inserted += n
}

// Reject records the violations of one or more rows
func (a *Aggregator) Reject(errs ...RowError) {
	for _, e := range errs {
		a.errors = append(a.errors, e)
		a.rejected[e.Row] = struct{}{}
	}
}

// RowFailed records a row that validated but could not be stored
func (a *Aggregator) RowFailed(row int) {
	a.Reject(RowError{Row: row, Error: MessageRowFailed})
}

// Rejected reports whether row already has an error
func (a *Aggregator) Rejected(row int) bool {
	_, ok := a.rejected[row]
	return ok
}

// Report builds the final report. Errors are ordered by row, keeping per-row order.
func (a *Aggregator) Report(message string, deleted int64) *Report {
	errs := make([]RowError, len(a.errors))
	copy(errs, a.errors)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })

	return &Report{
		Message:        message,
		Kind:           a.kind,
		InsertedCount:  a.inserted,
		RowsTotal:      a.total,
		RowsWithErrors: len(a.rejected),
		Deleted:        deleted,
		Errors:         errs,
	}
}
