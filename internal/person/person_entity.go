package person

import (
	"encoding/json"
	"time"
)

// Person is a natural person referenced by company records. PersonID is the
// external identity; at most one row exists per PersonID.
type Person struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PersonID    string          `gorm:"column:person_id;type:text;not null;uniqueIndex:uq_person_person_id"`
	FirstName   *string         `gorm:"column:first_name;type:text"`
	LastName    *string         `gorm:"column:last_name;type:text"`
	BirthYear   *int            `gorm:"column:birth_year"`
	AddressCity *string         `gorm:"column:address_city;type:text"`
	FullRecord  json.RawMessage `gorm:"column:full_record;type:jsonb;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (Person) TableName() string {
	return "person"
}
