package importer

import (
	"github.com/Lasher77/CompanyDB/internal/company"
)

type roleKey struct {
	companyID string
	personID  string
	roleType  string
}

// BuildRelationships flattens the parsed records into role associations
// keyed by (company, person, role type). Duplicate keys within one import
// collapse to a single row; the last occurrence wins for description and
// date. The output goes straight to a bulk upsert, never row by row.
func BuildRelationships(records []Record) []company.CompanyPerson {
	index := make(map[roleKey]int)
	var out []company.CompanyPerson

	for _, rec := range records {
		for _, rp := range rec.Persons {
			key := roleKey{
				companyID: rec.CompanyID,
				personID:  rp.PersonID,
				roleType:  rp.RoleType,
			}

			row := company.CompanyPerson{
				CompanyID:       rec.CompanyID,
				PersonID:        rp.PersonID,
				RoleType:        rp.RoleType,
				RoleDescription: rp.RoleDescription,
				RoleDate:        rp.RoleDate,
			}

			if i, ok := index[key]; ok {
				out[i] = row
				continue
			}
			index[key] = len(out)
			out = append(out, row)
		}
	}

	return out
}
