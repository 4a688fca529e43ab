package workflow

// OutcomeStatus is the result of one video in a batch.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeDryRun  OutcomeStatus = "dry_run"
)

// Outcome is what happened to one video.
type Outcome struct {
	VideoID string        `json:"video_id"`
	Status  OutcomeStatus `json:"status"`
	Reason  string        `json:"reason,omitempty"`
}

// BatchResult collects per-video outcomes. A batch never aborts because one
// video failed.
type BatchResult struct {
	RunID     string    `json:"run_id"`
	Operation string    `json:"operation"`
	Outcomes  []Outcome `json:"outcomes"`
}

func newBatch(op string) *BatchResult {
	return &BatchResult{RunID: newRunID(), Operation: op, Outcomes: []Outcome{}}
}

func (r *BatchResult) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Count is the number of videos processed successfully. Dry-run outcomes of
// an apply batch count as processed.
func (r *BatchResult) Count() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeSuccess || o.Status == OutcomeDryRun {
			n++
		}
	}
	return n
}

// Tally counts outcomes by status.
func (r *BatchResult) Tally() map[OutcomeStatus]int {
	t := map[OutcomeStatus]int{}
	for _, o := range r.Outcomes {
		t[o.Status]++
	}
	return t
}

func success(id string) Outcome { return Outcome{VideoID: id, Status: OutcomeSuccess} }

func skipped(id, reason string) Outcome {
	return Outcome{VideoID: id, Status: OutcomeSkipped, Reason: reason}
}

func failed(id string, err error) Outcome {
	return Outcome{VideoID: id, Status: OutcomeFailed, Reason: err.Error()}
}
