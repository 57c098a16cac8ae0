package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

// DatabaseConfig selects where observed transactions are kept. The sqlite
// driver without a name uses an in-memory database, which is what a single
// test run needs; postgres lets several runs share one store.
type DatabaseConfig struct {
	URL      string `env:"MOCKWALLET_DATABASE_URL"`
	Name     string `env:"MOCKWALLET_DATABASE_NAME"`
	Schema   string `env:"MOCKWALLET_DATABASE_SCHEMA"`
	Driver   string `env:"MOCKWALLET_DATABASE_DRIVER" env-default:"sqlite" validate:"oneof=sqlite postgres"`
	Username string `env:"MOCKWALLET_DATABASE_USERNAME" env-default:"postgres"`
	Password string `env:"MOCKWALLET_DATABASE_PASSWORD" env-default:"postgres"`
	Host     string `env:"MOCKWALLET_DATABASE_HOST" env-default:"localhost"`
	Port     string `env:"MOCKWALLET_DATABASE_PORT" env-default:"5432"`
}

// ParseConnectionString accepts "file:<path>" for sqlite and postgres URLs.
func ParseConnectionString(connStr string) (DatabaseConfig, error) {
	if strings.HasPrefix(connStr, "file:") {
		name := strings.SplitN(strings.TrimPrefix(connStr, "file:"), "?", 2)[0]
		return DatabaseConfig{Name: name, Driver: "sqlite"}, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid connection string: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	conf := DatabaseConfig{
		Name:   strings.TrimPrefix(u.Path, "/"),
		Schema: u.Query().Get("search_path"),
		Driver: "postgres",
		Host:   u.Hostname(),
		Port:   u.Port(),
	}
	if conf.Port == "" {
		conf.Port = "5432"
	} else if _, err := strconv.Atoi(conf.Port); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid port %q", conf.Port)
	}
	if u.User != nil {
		conf.Username = u.User.Username()
		conf.Password, _ = u.User.Password()
	}
	return conf, nil
}

func ConnectToDB(cnf DatabaseConfig, logger log.Logger) (*gorm.DB, error) {
	logger = logger.Named("database")
	switch cnf.Driver {
	case "postgres":
		return connectToPostgresql(cnf, logger)
	case "sqlite", "":
		return connectToSqlite(cnf, logger)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cnf.Driver)
	}
}

func connectToPostgresql(cnf DatabaseConfig, logger log.Logger) (*gorm.DB, error) {
	if err := ensurePostgresqlSchema(cnf, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure postgresql schema: %w", err)
	}
	if err := migratePostgres(cnf, logger); err != nil {
		return nil, fmt.Errorf("failed to apply postgresql migrations: %w", err)
	}

	logger.Info("connecting to postgresql", "host", cnf.Host, "name", cnf.Name)
	return gorm.Open(postgres.Open(postgresqlDSN(cnf)), gormConfig(cnf))
}

func connectToSqlite(cnf DatabaseConfig, logger log.Logger) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if cnf.Name != "" {
		dsn = fmt.Sprintf("file:%s?cache=shared", cnf.Name)
	}
	logger.Info("connecting to sqlite", "dsn", dsn)

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cnf))
	if err != nil {
		return nil, err
	}
	if err := migrateSqlite(db); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return db, nil
}

func gormConfig(cnf DatabaseConfig) *gorm.Config {
	conf := &gorm.Config{}
	if cnf.Schema != "" {
		conf.NamingStrategy = schema.NamingStrategy{TablePrefix: cnf.Schema + "."}
	}
	return conf
}

func postgresqlDSN(cnf DatabaseConfig) string {
	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		cnf.Username, cnf.Password, cnf.Host, cnf.Port, cnf.Name)
	if cnf.Schema != "" {
		dsn += " search_path=" + cnf.Schema
	}
	return dsn
}

func ensurePostgresqlSchema(cnf DatabaseConfig, logger log.Logger) error {
	if cnf.Schema == "" {
		return nil
	}
	withoutSchema := cnf
	withoutSchema.Schema = ""

	db, err := sqlx.Connect("postgres", postgresqlDSN(withoutSchema))
	if err != nil {
		return err
	}
	defer db.Close()

	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", cnf.Schema); err != nil {
		return fmt.Errorf("error while checking schema existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", cnf.Schema)); err != nil {
		return fmt.Errorf("error while creating schema: %w", err)
	}
	logger.Info("schema created", "schema", cnf.Schema)
	return nil
}

func migratePostgres(cnf DatabaseConfig, logger log.Logger) error {
	db, err := goose.OpenDBWithDriver("postgres", postgresqlDSN(cnf))
	if err != nil {
		return err
	}
	defer db.Close()

	if cnf.Schema != "" {
		if _, err := db.Exec(fmt.Sprintf("SET search_path TO %q", cnf.Schema)); err != nil {
			return fmt.Errorf("failed to set search path: %w", err)
		}
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "config/migrations/postgres"); err != nil {
		return err
	}
	logger.Info("applied migrations")
	return nil
}

func migrateSqlite(db *gorm.DB) error {
	return db.AutoMigrate(&ObservedTransaction{})
}
