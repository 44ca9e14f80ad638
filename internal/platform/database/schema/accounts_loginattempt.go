package schema

// LoginAttemptTable represents the 'accounts.loginattempt' table
type LoginAttemptTable struct {
	Table      string
	ID         string
	AccountID  string
	Username   string
	IPAddress  string
	UserAgent  string
	Successful string
	CreatedAt  string
}

// LoginAttempt is the schema definition for accounts.loginattempt
var LoginAttempt = LoginAttemptTable{
	Table:      "accounts.loginattempt",
	ID:         "id",
	AccountID:  "accountid",
	Username:   "username",
	IPAddress:  "ipaddress",
	UserAgent:  "useragent",
	Successful: "successful",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names
func (t LoginAttemptTable) Columns() []string {
	return []string{
		t.ID, t.AccountID, t.Username, t.IPAddress, t.UserAgent, t.Successful, t.CreatedAt,
	}
}
