package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SivanLevi100/storefront/internal/observability"
)

const slowQueryThreshold = 200 * time.Millisecond

type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	Logger       observability.Logger
}

// Open connects to the configured database. SQLite is limited to a single connection
// so that in-memory databases are shared and writers never interleave.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("gormstore: unsupported driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(opts.Logger),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gormstore: pool: %w", err)
	}
	switch {
	case opts.Driver == "sqlite":
		sqlDB.SetMaxOpenConns(1)
	case opts.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&productRow{},
		&cartLineRow{},
		&orderRow{},
		&orderItemRow{},
	); err != nil {
		return fmt.Errorf("gormstore: migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLogger routes gorm's own logging into the service logger.
type gormLogger struct {
	log   observability.Logger
	level gormlogger.LogLevel
}

func newGormLogger(log observability.Logger) gormlogger.Interface {
	if log == nil {
		log = observability.NopLogger()
	}
	return &gormLogger{log: log.With(observability.F("component", "gorm")), level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Debug("sql_failed",
			observability.F("sql", sql),
			observability.F("rows", rows),
			observability.F("elapsed_ms", elapsed.Milliseconds()),
			observability.Err(err),
		)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn("sql_slow",
			observability.F("sql", sql),
			observability.F("rows", rows),
			observability.F("elapsed_ms", elapsed.Milliseconds()),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.Debug("sql",
			observability.F("sql", sql),
			observability.F("rows", rows),
			observability.F("elapsed_ms", elapsed.Milliseconds()),
		)
	}
}
