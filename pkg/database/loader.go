package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/schollz/progressbar/v3"
	_ "modernc.org/sqlite"

	"prodreport/internal/utils"
	"prodreport/pkg/models"
)

// Supported source kinds.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

const DefaultPageSize = 1000

// Open connects to a production database. kind selects the driver; mysql:// and
// mariadb:// URLs are rewritten to the MySQL driver format.
func Open(kind, dsn string) (*sql.DB, error) {
	driver, dsn, err := driverDSN(kind, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", kind, err)
	}
	return db, nil
}

func driverDSN(kind, dsn string) (string, string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", "", fmt.Errorf("empty dsn for %s source", kind)
	}
	switch kind {
	case MySQL, "mariadb":
		mysqlDSN, err := toMySQLDSN(dsn)
		return "mysql", mysqlDSN, err
	case Postgres, "pgx", "supabase":
		return "pgx", dsn, nil
	case SQLite:
		return "sqlite", toSQLiteDSN(dsn), nil
	default:
		return "", "", fmt.Errorf("unknown database kind %q", kind)
	}
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// toSQLiteDSN turns a bare path into a file: DSN with a busy timeout.
func toSQLiteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?_pragma=busy_timeout(5000)"
}

// SQLSource reads every row of a production table, page by page.
type SQLSource struct {
	DB       *sql.DB
	Kind     string
	Table    string
	PageSize int
	Progress bool // draw a progress bar on stderr
}

// Fetch returns all rows of the table as raw records keyed by column name, in
// primary column order.
func (s *SQLSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if !utils.ValidTableName(s.Table) {
		return nil, fmt.Errorf("invalid table name %q", s.Table)
	}
	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var bar *progressbar.ProgressBar
	if s.Progress {
		var total int64
		if err := s.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.Table)).Scan(&total); err != nil {
			return nil, fmt.Errorf("count %s: %w", s.Table, err)
		}
		bar = progressbar.Default(total, "fetching "+s.Table)
	}

	q := pageQuery(s.Kind, s.Table)
	var out []models.RawRecord
	for offset := 0; ; offset += pageSize {
		page, err := s.fetchPage(ctx, q, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch %s offset=%d: %w", s.Table, offset, err)
		}
		utils.Log.Debugf("fetched %d rows from %s at offset %d", len(page), s.Table, offset)
		out = append(out, page...)
		if bar != nil {
			_ = bar.Add(len(page))
		}
		if len(page) < pageSize {
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	utils.Log.Infof("loaded %d records from %s", len(out), s.Table)
	return out, nil
}

func pageQuery(kind, table string) string {
	if kind == Postgres || kind == "pgx" || kind == "supabase" {
		return fmt.Sprintf("SELECT * FROM %s ORDER BY 1 LIMIT $1 OFFSET $2", table)
	}
	return fmt.Sprintf("SELECT * FROM %s ORDER BY 1 LIMIT ? OFFSET ?", table)
}

func (s *SQLSource) fetchPage(ctx context.Context, q string, limit, offset int) ([]models.RawRecord, error) {
	rows, err := s.DB.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	page := make([]models.RawRecord, 0, limit)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		raw := make(models.RawRecord, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				raw[col] = string(b)
				continue
			}
			raw[col] = values[i]
		}
		page = append(page, raw)
	}
	return page, rows.Err()
}
