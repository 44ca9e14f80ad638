package schema

// AccountTable represents the 'accounts.account' table
type AccountTable struct {
	Table        string
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     string
	IsStaff      string
	LastLogin    string
	DateJoined   string
	UpdatedAt    string
}

// Account is the schema definition for accounts.account
var Account = AccountTable{
	Table:        "accounts.account",
	ID:           "id",
	Username:     "username",
	Email:        "email",
	PasswordHash: "passwordhash",
	FirstName:    "firstname",
	LastName:     "lastname",
	IsActive:     "isactive",
	IsStaff:      "isstaff",
	LastLogin:    "lastlogin",
	DateJoined:   "datejoined",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t AccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.PasswordHash, t.FirstName, t.LastName,
		t.IsActive, t.IsStaff, t.LastLogin, t.DateJoined, t.UpdatedAt,
	}
}
