package schema

// ProfileTable represents the 'accounts.profile' table
type ProfileTable struct {
	Table       string
	AccountID   string
	Bio         string
	AvatarURL   string
	PhoneNumber string
	CreatedAt   string
	UpdatedAt   string
}

// Profile is the schema definition for accounts.profile
var Profile = ProfileTable{
	Table:       "accounts.profile",
	AccountID:   "accountid",
	Bio:         "bio",
	AvatarURL:   "avatarurl",
	PhoneNumber: "phonenumber",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t ProfileTable) Columns() []string {
	return []string{
		t.AccountID, t.Bio, t.AvatarURL, t.PhoneNumber, t.CreatedAt, t.UpdatedAt,
	}
}
