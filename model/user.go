package model

// User account activation flags stored in the activate column.
const (
	UserActive   = "T"
	UserInactive = "F"
)

// SystemRole value reserved for the bootstrap administrator account.
const RoleSystem = "SYSTEM"

// User is a staff account. Password holds a bcrypt hash and is never
// serialized.
type User struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	LoginID      string  `gorm:"size:100;not null;uniqueIndex" json:"login_id"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	Password     string  `gorm:"size:255;not null" json:"-"`
	Hierarchy    string  `gorm:"size:50" json:"hierarchy"`
	SystemRole   string  `gorm:"size:50" json:"system_role"`
	TeamID       *int64  `json:"team_id,omitempty"`
	Activate     string  `gorm:"size:1;not null;default:T" json:"activate"`
	RefreshToken *string `gorm:"size:512" json:"-"`
}

func (User) TableName() string { return "user" }
