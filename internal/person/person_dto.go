package person

import (
	"encoding/json"

	"github.com/Lasher77/CompanyDB/internal/company"
)

type ListPersonsQuery struct {
	Query string `form:"q"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

type PersonSummary struct {
	PersonID    string  `json:"person_id"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	BirthYear   *int    `json:"birth_year"`
	AddressCity *string `json:"address_city"`
}

type CompanyRoleResponse struct {
	CompanyID   string  `json:"company_id"`
	CompanyName *string `json:"company_name"`
	RoleType    string  `json:"role_type"`
	RoleDate    *string `json:"role_date"`
}

type PersonDetailResponse struct {
	PersonSummary
	Companies  []CompanyRoleResponse `json:"companies"`
	FullRecord json.RawMessage       `json:"full_record"`
}

func mapToSummary(p Person) PersonSummary {
	return PersonSummary{
		PersonID:    p.PersonID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		BirthYear:   p.BirthYear,
		AddressCity: p.AddressCity,
	}
}

func mapToDetail(p Person, roles []company.RoleCompany) PersonDetailResponse {
	companies := make([]CompanyRoleResponse, 0, len(roles))
	for _, r := range roles {
		name := r.LegalName
		if name == nil {
			name = r.RawName
		}
		var date *string
		if r.RoleDate != nil {
			d := r.RoleDate.Format("2006-01-02")
			date = &d
		}
		companies = append(companies, CompanyRoleResponse{
			CompanyID:   r.CompanyID,
			CompanyName: name,
			RoleType:    r.RoleType,
			RoleDate:    date,
		})
	}

	return PersonDetailResponse{
		PersonSummary: mapToSummary(p),
		Companies:     companies,
		FullRecord:    p.FullRecord,
	}
}
