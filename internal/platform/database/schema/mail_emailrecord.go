package schema

// EmailRecordTable represents the 'mail.emailrecord' table
type EmailRecordTable struct {
	Table     string
	ID        string
	FromEmail string
	ToEmails  string
	CcEmails  string
	BccEmails string
	Subject   string
	Body      string
	HTMLBody  string
	Status    string
	CreatedAt string
}

// EmailRecord is the schema definition for mail.emailrecord
var EmailRecord = EmailRecordTable{
	Table:     "mail.emailrecord",
	ID:        "id",
	FromEmail: "fromemail",
	ToEmails:  "toemails",
	CcEmails:  "ccemails",
	BccEmails: "bccemails",
	Subject:   "subject",
	Body:      "body",
	HTMLBody:  "htmlbody",
	Status:    "status",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t EmailRecordTable) Columns() []string {
	return []string{
		t.ID, t.FromEmail, t.ToEmails, t.CcEmails, t.BccEmails, t.Subject, t.Body, t.HTMLBody, t.Status, t.CreatedAt,
	}
}
