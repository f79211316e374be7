package model

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/magicpot/indexer/src/utils/build_info"
	"github.com/magicpot/indexer/src/utils/config"
	l "github.com/magicpot/indexer/src/utils/logger"
	"github.com/magicpot/indexer/src/utils/model/sql_migrations"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Builds the libpq DSN. Returned cleanup removes temporary certificate files.
func dsn(dbConfig *config.Database, username, password, applicationName string) (out string, cleanup func(), err error) {
	var files []string
	cleanup = func() {
		for _, f := range files {
			os.Remove(f)
		}
	}

	out = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s/magicpot/%s",
		dbConfig.Host,
		dbConfig.Port,
		username,
		password,
		dbConfig.Name,
		dbConfig.SslMode,
		applicationName,
		build_info.Version,
	)

	if dbConfig.ClientKey == "" || dbConfig.ClientCert == "" || dbConfig.CaCert == "" {
		return
	}

	// libpq only reads certificates from files
	write := func(pattern, content string) (string, error) {
		f, err := os.CreateTemp("", pattern)
		if err != nil {
			return "", err
		}
		defer f.Close()
		files = append(files, f.Name())
		_, err = f.WriteString(content)
		return f.Name(), err
	}

	key, err := write("key.pem", dbConfig.ClientKey)
	if err != nil {
		return
	}
	cert, err := write("cert.pem", dbConfig.ClientCert)
	if err != nil {
		return
	}
	ca, err := write("ca.pem", dbConfig.CaCert)
	if err != nil {
		return
	}

	out += fmt.Sprintf(" sslcert=%s sslkey=%s sslrootcert=%s", cert, key, ca)
	return
}

func newGormLogger() logger.Interface {
	return logger.New(l.NewSublogger("db"),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func Connect(ctx context.Context, dbConfig *config.Database, username, password, applicationName string) (self *gorm.DB, err error) {
	connString, cleanup, err := dsn(dbConfig, username, password, applicationName)
	defer cleanup()
	if err != nil {
		return
	}

	self, err = gorm.Open(postgres.Open(connString), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	err = ping(ctx, dbConfig, self)
	return
}

func NewConnection(ctx context.Context, config *config.Config, applicationName string) (self *gorm.DB, err error) {
	err = Migrate(ctx, config)
	if err != nil {
		return
	}

	return Connect(ctx, &config.Database, config.Database.User, config.Database.Password, applicationName)
}

func Migrate(ctx context.Context, config *config.Config) (err error) {
	log := l.NewSublogger("db-migrate")

	if config.Database.MigrationUser == "" || config.Database.MigrationPassword == "" {
		log.Info("Migration user not set, skipping migrations")
		return
	}

	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(sql_migrations.FS),
	}

	// Use special migration user
	self, err := Connect(ctx, &config.Database, config.Database.MigrationUser, config.Database.MigrationPassword, "migration")
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}
	defer db.Close()

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return
	}

	log.WithField("num", n).Info("Applied migrations")

	config.Database.MigrationUser = ""
	config.Database.MigrationPassword = ""

	return
}

func ping(ctx context.Context, dbConfig *config.Database, db *gorm.DB) (err error) {
	if dbConfig.PingTimeout < 0 {
		// Ping disabled
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbConfig.PingTimeout)
	defer cancel()

	return sqlDB.PingContext(dbCtx)
}

// Tables managed by the indexer, in creation order
func Tables() []any {
	return []any{&Pot{}, &Transaction{}, &ScheduledMessage{}, &Jetton{}, &Setting{}}
}
