package sqlstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UkralStul/blog-api/internal/domain"
)

// step - один версионированный шаг схемы. Имя попадает в migrations.filename.
type step struct {
	name string
	up   func(tx *gorm.DB) error
}

var steps = []step{
	{
		name: "001_create_tables",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.User{}, &domain.BlogPost{}, &domain.Comment{})
		},
	},
	{
		name: "002_created_at_indexes",
		up: func(tx *gorm.DB) error {
			for _, q := range []string{
				"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users (created_at)",
				"CREATE INDEX IF NOT EXISTS idx_blog_posts_created_at ON blog_posts (created_at)",
				"CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments (created_at)",
			} {
				if err := tx.Exec(q).Error; err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// Migrate применяет ещё не выполненные шаги по порядку, каждый в своей транзакции
// вместе с записью в таблицу migrations. Возвращает имена применённых шагов.
func (s *Store) Migrate(ctx context.Context, lg *zap.Logger) ([]string, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	db := s.db.WithContext(ctx)

	if err := db.AutoMigrate(&domain.Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []string
	if err := db.Model(&domain.Migration{}).Order("filename").Pluck("filename", &executed).Error; err != nil {
		return nil, fmt.Errorf("failed to read executed migrations: %w", err)
	}
	done := make(map[string]struct{}, len(executed))
	for _, name := range executed {
		done[name] = struct{}{}
	}

	var applied []string
	for _, st := range steps {
		if _, ok := done[st.name]; ok {
			continue
		}
		lg.Info("executing migration", zap.String("migration", st.name))
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := st.up(tx); err != nil {
				return err
			}
			return tx.Create(&domain.Migration{Filename: st.name, ExecutedAt: tx.NowFunc()}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", st.name, err)
		}
		applied = append(applied, st.name)
	}

	if len(applied) == 0 {
		lg.Info("no pending migrations found")
	} else {
		lg.Info("migrations completed", zap.Int("applied", len(applied)))
	}
	return applied, nil
}
