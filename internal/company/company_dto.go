package company

import (
	"encoding/json"
	"time"
)

type ListCompaniesQuery struct {
	Query     string `form:"q"`
	Status    string `form:"status"`
	LegalForm string `form:"legal_form"`
	City      string `form:"city"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

type CompanySummary struct {
	CompanyID         string  `json:"company_id"`
	RawName           *string `json:"raw_name"`
	LegalName         *string `json:"legal_name"`
	LegalForm         *string `json:"legal_form"`
	Status            *string `json:"status"`
	Terminated        *bool   `json:"terminated"`
	RegisterUniqueKey *string `json:"register_unique_key"`
	AddressCity       *string `json:"address_city"`
	AddressPostalCode *string `json:"address_postal_code"`
}

type RelatedPersonResponse struct {
	PersonID        string  `json:"person_id"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	RoleType        string  `json:"role_type"`
	RoleDescription *string `json:"role_description"`
	RoleDate        *string `json:"role_date"`
}

type CompanyDetailResponse struct {
	CompanySummary
	RegisterID     *string                 `json:"register_id"`
	AddressCountry *string                 `json:"address_country"`
	Email          *string                 `json:"email"`
	Website        *string                 `json:"website"`
	Phone          *string                 `json:"phone"`
	Domain         *string                 `json:"domain"`
	LastUpdateTime *time.Time              `json:"last_update_time"`
	RelatedPersons []RelatedPersonResponse `json:"related_persons"`
	FullRecord     json.RawMessage         `json:"full_record"`
}

func mapToSummary(c Company) CompanySummary {
	return CompanySummary{
		CompanyID:         c.CompanyID,
		RawName:           c.RawName,
		LegalName:         c.LegalName,
		LegalForm:         c.LegalForm,
		Status:            c.Status,
		Terminated:        c.Terminated,
		RegisterUniqueKey: c.RegisterUniqueKey,
		AddressCity:       c.AddressCity,
		AddressPostalCode: c.AddressPostalCode,
	}
}

func mapToDetail(c Company, roles []RolePerson) CompanyDetailResponse {
	related := make([]RelatedPersonResponse, 0, len(roles))
	for _, r := range roles {
		var date *string
		if r.RoleDate != nil {
			d := r.RoleDate.Format("2006-01-02")
			date = &d
		}
		related = append(related, RelatedPersonResponse{
			PersonID:        r.PersonID,
			FirstName:       r.FirstName,
			LastName:        r.LastName,
			RoleType:        r.RoleType,
			RoleDescription: r.RoleDescription,
			RoleDate:        date,
		})
	}

	return CompanyDetailResponse{
		CompanySummary: mapToSummary(c),
		RegisterID:     c.RegisterID,
		AddressCountry: c.AddressCountry,
		Email:          c.Email,
		Website:        c.Website,
		Phone:          c.Phone,
		Domain:         c.Domain,
		LastUpdateTime: c.LastUpdateTime,
		RelatedPersons: related,
		FullRecord:     c.FullRecord,
	}
}
