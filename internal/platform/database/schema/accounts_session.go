package schema

// SessionTable represents the 'accounts.session' table
type SessionTable struct {
	Table     string
	ID        string
	AccountID string
	TokenHash string
	IPAddress string
	UserAgent string
	IsRevoked string
	ExpiresAt string
	CreatedAt string
}

// Session is the schema definition for accounts.session
var Session = SessionTable{
	Table:     "accounts.session",
	ID:        "id",
	AccountID: "accountid",
	TokenHash: "tokenhash",
	IPAddress: "ipaddress",
	UserAgent: "useragent",
	IsRevoked: "isrevoked",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t SessionTable) Columns() []string {
	return []string{
		t.ID, t.AccountID, t.TokenHash, t.IPAddress, t.UserAgent, t.IsRevoked, t.ExpiresAt, t.CreatedAt,
	}
}
