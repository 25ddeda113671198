package types

// ItemStatus is the lifecycle state of one file in a ranking batch.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusUploaded   ItemStatus = "uploaded"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
)

var statusOrder = map[ItemStatus]int{
	StatusPending:    0,
	StatusUploaded:   1,
	StatusProcessing: 2,
	StatusCompleted:  3,
}

// Terminal reports whether no further transitions are allowed.
func (s ItemStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle
// monotonic. Any non-terminal state may fail; otherwise next must be later.
func (s ItemStatus) CanAdvanceTo(next ItemStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	cur, ok := statusOrder[s]
	if !ok {
		return false
	}
	nxt, ok := statusOrder[next]
	return ok && nxt > cur
}

// BatchItem is one resume file queued for ranking.
type BatchItem struct {
	ID       string         `json:"id"`
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	Size     int64          `json:"size"`
	Status   ItemStatus     `json:"status"`
	Result   *RankingResult `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}
