package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one uploaded file in a batch.
type Result struct {
	filename string
	id       string
	status   ItemStatus
	err      error
}

// NewOK creates a successful batch result for the stored image id.
func NewOK(filename, id string) Result {
	return Result{filename: filename, id: id, status: StatusOK}
}

// NewError creates a failed batch result.
func NewError(filename string, err error) Result {
	return Result{filename: filename, status: StatusError, err: err}
}

// Filename returns the uploaded filename.
func (r Result) Filename() string { return r.filename }

// ID returns the image identifier; empty for failures.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary splits results into stored ids and failures, preserving order.
func Summary(results []Result) (ids []string, failed []Result) {
	ids = make([]string, 0, len(results))
	for _, r := range results {
		if r.status == StatusOK {
			ids = append(ids, r.id)
		} else {
			failed = append(failed, r)
		}
	}
	return ids, failed
}
