package models

// Identity is the signed-in user as seen by the rest of the portal. It never
// carries a secret.
type Identity struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	InstitutionName string `json:"institution_name,omitempty"`
}

// Record is the durable form of an Identity kept in the session slot. Field
// names match the browser-side record so existing slots stay readable.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	CollegeName string `json:"collegeName,omitempty"`
}

// Valid reports whether the record can be turned into an Identity.
func (r Record) Valid() bool {
	return r.ID != "" && r.Name != "" && r.Email != ""
}

func (r Record) Identity() Identity {
	return Identity{ID: r.ID, Name: r.Name, Email: r.Email, InstitutionName: r.CollegeName}
}

func RecordFromIdentity(i Identity) Record {
	return Record{ID: i.ID, Name: i.Name, Email: i.Email, CollegeName: i.InstitutionName}
}

// Credential is a registry entry: an identity and the bcrypt hash of its
// password.
type Credential struct {
	Identity     Identity
	PasswordHash []byte
}

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a short user-facing message about a session change.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}
