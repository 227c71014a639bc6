package migrations

import (
	"github.com/BoweryJG/BoweryCreative-backend/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_campaigns",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.CampaignModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CampaignModel{})
			},
		},
		{
			ID: "000002_create_campaign_waves",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.WaveModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_waves_due ON campaign_waves (scheduled_at) WHERE status = 'SCHEDULED'`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.WaveModel{})
			},
		},
		{
			ID: "000003_create_dispatch_events",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.DispatchEventModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_events_created_at ON dispatch_events (created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_events_account ON dispatch_events (account) WHERE account <> ''`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.DispatchEventModel{})
			},
		},
	})

	return m.Migrate()
}
