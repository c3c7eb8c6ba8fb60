package importer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lasher77/CompanyDB/internal/importer"
)

func strPtr(s string) *string { return &s }

func TestBuildRelationshipsCollapsesDuplicateTriples(t *testing.T) {
	records := []importer.Record{
		{
			CompanyID: "C1",
			Persons: []importer.RelatedPerson{
				{PersonID: "P1", RoleType: "GESCHAEFTSFUEHRER", RoleDescription: strPtr("first")},
				{PersonID: "P2", RoleType: "PROKURIST"},
			},
		},
		{
			CompanyID: "C1",
			Persons: []importer.RelatedPerson{
				// Same triple again, later description wins.
				{PersonID: "P1", RoleType: "GESCHAEFTSFUEHRER", RoleDescription: strPtr("second")},
				// Same person, different role type: a separate row.
				{PersonID: "P1", RoleType: "PROKURIST"},
			},
		},
		{
			CompanyID: "C2",
			Persons: []importer.RelatedPerson{
				{PersonID: "P1", RoleType: "GESCHAEFTSFUEHRER"},
			},
		},
	}

	rows := importer.BuildRelationships(records)
	assert.Len(t, rows, 4)

	assert.Equal(t, "C1", rows[0].CompanyID)
	assert.Equal(t, "P1", rows[0].PersonID)
	assert.Equal(t, "GESCHAEFTSFUEHRER", rows[0].RoleType)
	assert.Equal(t, "second", *rows[0].RoleDescription)

	assert.Equal(t, "P2", rows[1].PersonID)
	assert.Equal(t, "PROKURIST", rows[2].RoleType)
	assert.Equal(t, "C2", rows[3].CompanyID)
}

func TestBuildRelationshipsEmptyInput(t *testing.T) {
	assert.Empty(t, importer.BuildRelationships(nil))
	assert.Empty(t, importer.BuildRelationships([]importer.Record{{CompanyID: "C1"}}))
}
