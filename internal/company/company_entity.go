package company

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Company mirrors one record of the register dump. CompanyID is the external
// identity from the source; the surrogate ID exists only for the store.
type Company struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ImportJobID       *uuid.UUID      `gorm:"column:import_job_id;type:uuid;index"`
	CompanyID         string          `gorm:"column:company_id;type:text;not null;uniqueIndex:uq_company_company_id"`
	RawName           *string         `gorm:"column:raw_name;type:text"`
	LegalName         *string         `gorm:"column:legal_name;type:text"`
	LegalForm         *string         `gorm:"column:legal_form;type:text"`
	Status            *string         `gorm:"column:status;type:varchar(50)"`
	Terminated        *bool           `gorm:"column:terminated"`
	RegisterUniqueKey *string         `gorm:"column:register_unique_key;type:text"`
	RegisterID        *string         `gorm:"column:register_id;type:text"`
	AddressCity       *string         `gorm:"column:address_city;type:text"`
	AddressPostalCode *string         `gorm:"column:address_postal_code;type:text"`
	AddressCountry    *string         `gorm:"column:address_country;type:varchar(10)"`
	Email             *string         `gorm:"column:email;type:text"`
	Website           *string         `gorm:"column:website;type:text"`
	Phone             *string         `gorm:"column:phone;type:text"`
	Domain            *string         `gorm:"column:domain;type:text"`
	LastUpdateTime    *time.Time      `gorm:"column:last_update_time;type:timestamptz"`
	FullRecord        json.RawMessage `gorm:"column:full_record;type:jsonb;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
}

func (Company) TableName() string {
	return "company"
}

// CompanyPerson is one role a person holds at a company. The external id
// triple is the identity; an import never writes the same triple twice.
type CompanyPerson struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID       string     `gorm:"column:company_id;type:text;not null;uniqueIndex:uq_company_person_role"`
	PersonID        string     `gorm:"column:person_id;type:text;not null;uniqueIndex:uq_company_person_role"`
	RoleType        string     `gorm:"column:role_type;type:text;not null;uniqueIndex:uq_company_person_role"`
	RoleDescription *string    `gorm:"column:role_description;type:text"`
	RoleDate        *time.Time `gorm:"column:role_date;type:date"`
}

func (CompanyPerson) TableName() string {
	return "company_person"
}

// RolePerson is one row of the company/person join used when building
// search documents for a batch of companies.
type RolePerson struct {
	CompanyID       string     `gorm:"column:company_id"`
	PersonID        string     `gorm:"column:person_id"`
	FirstName       *string    `gorm:"column:first_name"`
	LastName        *string    `gorm:"column:last_name"`
	RoleType        string     `gorm:"column:role_type"`
	RoleDescription *string    `gorm:"column:role_description"`
	RoleDate        *time.Time `gorm:"column:role_date"`
}

// RoleCompany is the mirror join row: roles of a batch of persons together
// with the company names needed for person documents.
type RoleCompany struct {
	PersonID  string     `gorm:"column:person_id"`
	CompanyID string     `gorm:"column:company_id"`
	RawName   *string    `gorm:"column:raw_name"`
	LegalName *string    `gorm:"column:legal_name"`
	RoleType  string     `gorm:"column:role_type"`
	RoleDate  *time.Time `gorm:"column:role_date"`
}
