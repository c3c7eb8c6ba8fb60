package importer

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Secondary indexes removed for the duration of a bulk import. The unique
// indexes backing entity identity (uq_company_company_id, uq_person_person_id,
// uq_company_person_role) are never in this list.
var secondaryIndexes = []struct {
	name   string
	create string
}{
	{"idx_company_raw_name", "CREATE INDEX IF NOT EXISTS idx_company_raw_name ON company (raw_name)"},
	{"idx_company_legal_name", "CREATE INDEX IF NOT EXISTS idx_company_legal_name ON company (legal_name)"},
	{"idx_company_register_unique_key", "CREATE INDEX IF NOT EXISTS idx_company_register_unique_key ON company (register_unique_key)"},
	{"idx_company_address_city", "CREATE INDEX IF NOT EXISTS idx_company_address_city ON company (address_city)"},
	{"idx_company_domain", "CREATE INDEX IF NOT EXISTS idx_company_domain ON company (domain)"},
	{"idx_person_last_name", "CREATE INDEX IF NOT EXISTS idx_person_last_name ON person (last_name)"},
	{"idx_person_address_city", "CREATE INDEX IF NOT EXISTS idx_person_address_city ON person (address_city)"},
	{"idx_company_person_person_id", "CREATE INDEX IF NOT EXISTS idx_company_person_person_id ON company_person (person_id)"},
}

type gormIndexController struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewIndexController returns the IndexController used against Postgres.
// If the process dies between Drop and Recreate, queries stay correct but
// slower until the next import (or a manual run) recreates the indexes.
func NewIndexController(db *gorm.DB, logger *zap.Logger) IndexController {
	return &gormIndexController{db: db, logger: logger.Named("importer.indexctl")}
}

func (c *gormIndexController) DropSecondary(ctx context.Context) error {
	for _, idx := range secondaryIndexes {
		if err := c.db.WithContext(ctx).Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
			return err
		}
	}
	c.logger.Info("secondary indexes dropped", zap.Int("count", len(secondaryIndexes)))
	return nil
}

func (c *gormIndexController) Recreate(ctx context.Context) error {
	for _, idx := range secondaryIndexes {
		if err := c.db.WithContext(ctx).Exec(idx.create).Error; err != nil {
			return err
		}
	}
	c.logger.Info("secondary indexes recreated", zap.Int("count", len(secondaryIndexes)))
	return nil
}
