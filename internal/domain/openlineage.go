package domain

import "time"

// OpenLineage run states. Only COMPLETE events produce edges; the other
// phases are valid input and are ignored.
const (
	OpenLineageEventStart    = "START"
	OpenLineageEventRunning  = "RUNNING"
	OpenLineageEventComplete = "COMPLETE"
	OpenLineageEventAbort    = "ABORT"
	OpenLineageEventFail     = "FAIL"
)

// TransformationOpenLineage tags edges derived from OpenLineage events.
const TransformationOpenLineage = "openlineage"

// OpenLineageDataset identifies a dataset by namespace and name. Datasets
// resolve to catalog assets by exact match on "namespace.name".
type OpenLineageDataset struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// QualifiedName returns the catalog asset name for the dataset.
func (d OpenLineageDataset) QualifiedName() string {
	return d.Namespace + "." + d.Name
}

// OpenLineageJob identifies the job that emitted a run event.
type OpenLineageJob struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// OpenLineageRun carries the run identity.
type OpenLineageRun struct {
	RunID string `json:"runId"`
}

// OpenLineageEvent is an external job-run notification describing the
// datasets a job read and wrote.
type OpenLineageEvent struct {
	EventType string               `json:"eventType"`
	EventTime time.Time            `json:"eventTime"`
	Run       OpenLineageRun       `json:"run"`
	Job       OpenLineageJob       `json:"job"`
	Inputs    []OpenLineageDataset `json:"inputs"`
	Outputs   []OpenLineageDataset `json:"outputs"`
}

// Validate checks that the event carries enough identity to process.
func (e *OpenLineageEvent) Validate() error {
	if e.EventType == "" {
		return ErrValidation("eventType is required")
	}
	if e.Job.Name == "" {
		return ErrValidation("job.name is required")
	}
	return nil
}
