package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	go_ora "github.com/sijms/go-ora/v2"

	"memorial/internal/types"
)

// dsn builds a properly encoded connection string for Oracle
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme: "oracle",
		User:   url.UserPassword(username, password),
		Host:   host + ":" + port,
		Path:   "/" + service,
	}).String()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	Service        string `yaml:"service"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	WalletLocation string `yaml:"wallet_location"`
}

// Database stores run results in Oracle
type Database struct {
	db     *sql.DB
	config DBConfig
}

// NewDatabase opens and pings a connection
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	connStr := dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%s/%s: %w", config.Host, config.Port, config.Service, err)
	}

	return &Database{
		db:     db,
		config: config,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

var schema = []string{
	`CREATE TABLE MEMORIAL_RUNS (
		Run_ID VARCHAR2(36) PRIMARY KEY,
		Created_At TIMESTAMP NOT NULL,
		Parcels NUMBER NOT NULL,
		Failures NUMBER NOT NULL,
		Blocks NUMBER NOT NULL
	)`,
	`CREATE TABLE MEMORIAL_PARCELS (
		Run_ID VARCHAR2(36) NOT NULL,
		Parcel_ID VARCHAR2(64) NOT NULL,
		Block_ID VARCHAR2(64),
		Seq NUMBER,
		Frontage_Street VARCHAR2(256),
		Frontage_Edge NUMBER,
		Frontage_Mode VARCHAR2(16),
		Area NUMBER,
		Perimeter NUMBER,
		Corner NUMBER(1),
		Ambiguous NUMBER(1),
		Description CLOB,
		PRIMARY KEY (Run_ID, Parcel_ID)
	)`,
	`CREATE TABLE MEMORIAL_PARCEL_SIDES (
		Run_ID VARCHAR2(36) NOT NULL,
		Parcel_ID VARCHAR2(64) NOT NULL,
		Side VARCHAR2(8) NOT NULL,
		Confrontation VARCHAR2(256),
		Length NUMBER,
		Bearing NUMBER,
		Ambiguous NUMBER(1),
		PRIMARY KEY (Run_ID, Parcel_ID, Side)
	)`,
	`CREATE TABLE MEMORIAL_BLOCK_SEGMENTS (
		Run_ID VARCHAR2(36) NOT NULL,
		Block_ID VARCHAR2(64) NOT NULL,
		Seq NUMBER NOT NULL,
		X1 NUMBER, Y1 NUMBER, X2 NUMBER, Y2 NUMBER,
		Bearing NUMBER,
		Length NUMBER,
		Confrontation VARCHAR2(256),
		PRIMARY KEY (Run_ID, Block_ID, Seq)
	)`,
	`CREATE TABLE MEMORIAL_FAILURES (
		Run_ID VARCHAR2(36) NOT NULL,
		Parcel_ID VARCHAR2(64) NOT NULL,
		Block_ID VARCHAR2(64),
		Reason VARCHAR2(32) NOT NULL,
		Detail VARCHAR2(1000),
		PRIMARY KEY (Run_ID, Parcel_ID)
	)`,
}

// alreadyExists reports ORA-00955, name is already used by an existing object
func alreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ORA-00955")
}

// EnsureSchema creates the result tables when they are missing
func (d *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil && !alreadyExists(err) {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Run is one engine run as persisted
type Run struct {
	ID       string
	Parcels  []types.ParcelResult
	Blocks   []types.BlockResult
	Failures []types.Failure
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveRun writes a run in a single transaction
func (d *Database) SaveRun(ctx context.Context, run Run) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO MEMORIAL_RUNS (Run_ID, Created_At, Parcels, Failures, Blocks) VALUES (:1, :2, :3, :4, :5)`,
		run.ID, time.Now().UTC(), len(run.Parcels), len(run.Failures), len(run.Blocks)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, p := range run.Parcels {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO MEMORIAL_PARCELS (Run_ID, Parcel_ID, Block_ID, Seq, Frontage_Street, Frontage_Edge,
				Frontage_Mode, Area, Perimeter, Corner, Ambiguous, Description)
			VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12)`,
			run.ID, p.ParcelID, p.BlockID, p.Seq, p.Frontage.Street, p.Frontage.EdgeIndex,
			string(p.Frontage.Mode), p.Area, p.Perimeter, flag(p.Corner), flag(p.Ambiguous()),
			go_ora.Clob{String: p.Description, Valid: true}); err != nil {
			return fmt.Errorf("failed to insert parcel %s: %w", p.ParcelID, err)
		}
		for _, s := range p.Sides {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO MEMORIAL_PARCEL_SIDES (Run_ID, Parcel_ID, Side, Confrontation, Length, Bearing, Ambiguous)
				VALUES (:1, :2, :3, :4, :5, :6, :7)`,
				run.ID, p.ParcelID, string(s.Side), s.Confrontation, s.Length, s.Bearing, flag(s.Ambiguous)); err != nil {
				return fmt.Errorf("failed to insert side %s of parcel %s: %w", s.Side, p.ParcelID, err)
			}
		}
	}

	for _, b := range run.Blocks {
		for _, s := range b.Segments {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO MEMORIAL_BLOCK_SEGMENTS (Run_ID, Block_ID, Seq, X1, Y1, X2, Y2, Bearing, Length, Confrontation)
				VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`,
				run.ID, b.BlockID, s.Seq, s.Start[0], s.Start[1], s.End[0], s.End[1], s.Bearing, s.Length, s.Confrontation); err != nil {
				return fmt.Errorf("failed to insert segment %d of block %s: %w", s.Seq, b.BlockID, err)
			}
		}
	}

	for _, f := range run.Failures {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO MEMORIAL_FAILURES (Run_ID, Parcel_ID, Block_ID, Reason, Detail)
			VALUES (:1, :2, :3, :4, :5)`,
			run.ID, f.ParcelID, f.BlockID, f.Reason, truncate(f.Detail, 1000)); err != nil {
			return fmt.Errorf("failed to insert failure %s: %w", f.ParcelID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// ParcelRow is a parcel of a stored run as listed by the review browser
type ParcelRow struct {
	ParcelID    string
	BlockID     string
	Seq         int
	Status      string // OK or a failure reason code
	Ambiguous   bool
	Description string
}

// QueryRunParcels lists resolved and failed parcels of a run, ordered by
// block, sequence and id
func (d *Database) QueryRunParcels(ctx context.Context, runID string) ([]ParcelRow, error) {
	query := `
		SELECT Parcel_ID, NVL(Block_ID, ' '), NVL(Seq, 0), 'OK', Ambiguous, Description
		FROM MEMORIAL_PARCELS WHERE Run_ID = :1
		UNION ALL
		SELECT Parcel_ID, NVL(Block_ID, ' '), 0, Reason, 0, TO_CLOB(Detail)
		FROM MEMORIAL_FAILURES WHERE Run_ID = :2
	`

	rows, err := d.db.QueryContext(ctx, query, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []ParcelRow
	for rows.Next() {
		var (
			r         ParcelRow
			ambiguous int
			desc      sql.NullString
		)
		if err := rows.Scan(&r.ParcelID, &r.BlockID, &r.Seq, &r.Status, &ambiguous, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan parcel: %w", err)
		}
		r.BlockID = strings.TrimSpace(r.BlockID)
		r.Ambiguous = ambiguous != 0
		r.Description = desc.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	SortRows(out)
	return out, nil
}

// LatestRunID returns the most recent run, or sql.ErrNoRows
func (d *Database) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx,
		`SELECT Run_ID FROM MEMORIAL_RUNS ORDER BY Created_At DESC FETCH FIRST 1 ROWS ONLY`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest run: %w", err)
	}
	return id, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// LoadDatabaseConfig overrides base with the DB_* environment variables
// that are set
func LoadDatabaseConfig(base DBConfig) DBConfig {
	return DBConfig{
		Host:           getEnvOrDefault("DB_HOST", base.Host),
		Port:           getEnvOrDefault("DB_PORT", base.Port),
		Service:        getEnvOrDefault("DB_SERVICE", base.Service),
		Username:       getEnvOrDefault("DB_USERNAME", base.Username),
		Password:       getEnvOrDefault("DB_PASSWORD", base.Password),
		WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", base.WalletLocation),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
