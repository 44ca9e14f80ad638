package schema

// JobTable represents the 'jobs.job' table
type JobTable struct {
	Table       string
	ID          string
	Queue       string
	Type        string
	Payload     string
	Status      string
	Attempts    string
	MaxAttempts string
	LastError   string
	ScheduledAt string
	StartedAt   string
	FinishedAt  string
	CreatedAt   string
}

// Job is the schema definition for jobs.job
var Job = JobTable{
	Table:       "jobs.job",
	ID:          "id",
	Queue:       "queue",
	Type:        "type",
	Payload:     "payload",
	Status:      "status",
	Attempts:    "attempts",
	MaxAttempts: "maxattempts",
	LastError:   "lasterror",
	ScheduledAt: "scheduledat",
	StartedAt:   "startedat",
	FinishedAt:  "finishedat",
	CreatedAt:   "createdat",
}

// Columns returns all standard column names
func (t JobTable) Columns() []string {
	return []string{
		t.ID, t.Queue, t.Type, t.Payload, t.Status, t.Attempts, t.MaxAttempts,
		t.LastError, t.ScheduledAt, t.StartedAt, t.FinishedAt, t.CreatedAt,
	}
}
