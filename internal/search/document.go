package search

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
)

type RelatedPersonEntry struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
	RoleType string `json:"role_type"`
}

type CompanyDocument struct {
	CompanyID         string               `json:"company_id"`
	RawName           *string              `json:"raw_name"`
	LegalName         *string              `json:"legal_name"`
	LegalForm         *string              `json:"legal_form"`
	Status            *string              `json:"status"`
	Terminated        *bool                `json:"terminated"`
	RegisterUniqueKey *string              `json:"register_unique_key"`
	RegisterID        *string              `json:"register_id"`
	AddressCity       *string              `json:"address_city"`
	AddressPostalCode *string              `json:"address_postal_code"`
	AddressCountry    *string              `json:"address_country"`
	SegmentCodesWZ    []string             `json:"segment_codes_wz"`
	SegmentCodesNACE  []string             `json:"segment_codes_nace"`
	LastUpdateTime    *time.Time           `json:"last_update_time"`
	RelatedPersons    []RelatedPersonEntry `json:"related_persons"`
}

type PersonRoleEntry struct {
	CompanyID   string     `json:"company_id"`
	CompanyName *string    `json:"company_name"`
	RoleType    string     `json:"role_type"`
	RoleDate    *time.Time `json:"role_date"`
}

type PersonDocument struct {
	PersonID    string            `json:"person_id"`
	FirstName   *string           `json:"first_name"`
	LastName    *string           `json:"last_name"`
	FullName    string            `json:"full_name"`
	BirthYear   *int              `json:"birth_year"`
	AddressCity *string           `json:"address_city"`
	CompanyIDs  []string          `json:"company_ids"`
	Roles       []PersonRoleEntry `json:"roles"`
}

// BuildCompanyDocument denormalizes one company row plus its joined role
// rows into a search document. Segment codes live only in the preserved
// original record, so they are pulled back out of it here.
func BuildCompanyDocument(c company.Company, roles []company.RolePerson) CompanyDocument {
	doc := CompanyDocument{
		CompanyID:         c.CompanyID,
		RawName:           c.RawName,
		LegalName:         c.LegalName,
		LegalForm:         c.LegalForm,
		Status:            c.Status,
		Terminated:        c.Terminated,
		RegisterUniqueKey: c.RegisterUniqueKey,
		RegisterID:        c.RegisterID,
		AddressCity:       c.AddressCity,
		AddressPostalCode: c.AddressPostalCode,
		AddressCountry:    c.AddressCountry,
		LastUpdateTime:    c.LastUpdateTime,
	}
	doc.SegmentCodesWZ, doc.SegmentCodesNACE = segmentCodes(c.FullRecord)

	for _, r := range roles {
		doc.RelatedPersons = append(doc.RelatedPersons, RelatedPersonEntry{
			PersonID: r.PersonID,
			Name:     joinName(r.FirstName, r.LastName),
			RoleType: r.RoleType,
		})
	}

	return doc
}

// BuildPersonDocument denormalizes one person and their roles across
// companies. Company name preference follows the detail API: legal name,
// else raw name.
func BuildPersonDocument(p person.Person, roles []company.RoleCompany) PersonDocument {
	doc := PersonDocument{
		PersonID:    p.PersonID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		FullName:    joinName(p.FirstName, p.LastName),
		BirthYear:   p.BirthYear,
		AddressCity: p.AddressCity,
	}

	for _, r := range roles {
		name := r.LegalName
		if name == nil {
			name = r.RawName
		}
		doc.CompanyIDs = append(doc.CompanyIDs, r.CompanyID)
		doc.Roles = append(doc.Roles, PersonRoleEntry{
			CompanyID:   r.CompanyID,
			CompanyName: name,
			RoleType:    r.RoleType,
			RoleDate:    r.RoleDate,
		})
	}

	return doc
}

func segmentCodes(raw json.RawMessage) (wz, nace []string) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rec struct {
		SegmentCodes struct {
			WZ   []string `json:"wz"`
			NACE []string `json:"nace"`
		} `json:"segmentCodes"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil
	}
	return rec.SegmentCodes.WZ, rec.SegmentCodes.NACE
}

func joinName(first, last *string) string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}
