package database

import (
	"fmt"
	"time"

	"jsr_backend/internal/config"
	"jsr_backend/internal/model"
	"jsr_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(cfg.Path + "?_busy_timeout=5000"), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// InitDB 按配置的驱动打开数据库连接
func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(level),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate 建表并创建全文检索索引
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return err
	}
	if err := BackfillTagText(db); err != nil {
		return err
	}
	return EnsureSearchIndexes(db)
}

// BackfillTagText 补齐新增 tag_text 列之前写入的资源
func BackfillTagText(db *gorm.DB) error {
	var resources []model.Resource
	writer := db.Session(&gorm.Session{NewDB: true})
	return db.Select("id", "tags").
		Where("(tag_text IS NULL OR tag_text = '') AND tags IS NOT NULL AND tags <> '' AND tags <> '[]' AND tags <> 'null'").
		FindInBatches(&resources, 200, func(_ *gorm.DB, _ int) error {
			for _, r := range resources {
				if err := writer.Model(&model.Resource{}).Where("id = ?", r.ID).
					UpdateColumn("tag_text", model.JoinTagText(r.Tags)).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// EnsureSearchIndexes 为资源的 name/description/tag_text 建立全文索引
// sqlite 没有对应索引，检索时退化为加权 LIKE
func EnsureSearchIndexes(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case DriverMySQL:
		if db.Migrator().HasIndex(&model.Resource{}, "ft_resources_text") {
			return nil
		}
		return db.Exec("ALTER TABLE resources ADD FULLTEXT INDEX ft_resources_text (name, description, tag_text)").Error
	case DriverPostgres:
		return db.Exec(`CREATE INDEX IF NOT EXISTS ft_resources_text ON resources USING GIN (` + PostgresSearchVector + `)`).Error
	}
	return nil
}

// PostgresSearchVector 检索与建索引共用的表达式，必须保持一致索引才会生效
const PostgresSearchVector = `(setweight(to_tsvector('simple', coalesce(name, '')), 'A') || ` +
	`setweight(to_tsvector('simple', coalesce(tag_text, '')), 'B') || ` +
	`setweight(to_tsvector('simple', coalesce(description, '')), 'C'))`

// Ping 检查数据库连通性
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
