package usecase

// Recorder receives counters from the evaluation pipeline. The production
// implementation exports them as Prometheus metrics; tests use NopRecorder.
type Recorder interface {
	CycleCompleted()
	RowEvaluated()
	RowError(kind string)
	ConditionFired(label string)
	OrderSubmitted(side string, ok bool)
}

type NopRecorder struct{}

func (NopRecorder) CycleCompleted()             {}
func (NopRecorder) RowEvaluated()               {}
func (NopRecorder) RowError(string)             {}
func (NopRecorder) ConditionFired(string)       {}
func (NopRecorder) OrderSubmitted(string, bool) {}
