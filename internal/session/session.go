// Package session owns the single PostgreSQL connection used for a whole
// benchmark run.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/planbench/planbench/internal/model"
)

// connectTimeout bounds connection establishment only; query execution is
// limited by statement_timeout, if configured.
const connectTimeout = 10 * time.Second

var errNotConnected = errors.New("session: not connected")

// Params identifies one PostgreSQL endpoint.
type Params struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
}

// QueryData carries fetched rows and column metadata for one statement.
type QueryData struct {
	Rows    [][]any
	Columns []string
}

// Session is the exclusive owner of the run's database connection. It is
// created at run start, lives for all rounds, and is torn down at run end
// or on fatal error. The connection operates in autocommit mode.
type Session struct {
	params           Params
	statementTimeout time.Duration
	conn             *pgx.Conn
	log              *zap.SugaredLogger
}

func New(params Params, statementTimeout time.Duration, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Session{params: params, statementTimeout: statementTimeout, log: log}
}

// Connect establishes the session and measures how long establishment took,
// including the optional statement_timeout round trip. A positive
// statement timeout is applied once, server-side, for every subsequent
// query; a non-positive value means no limit.
func (s *Session) Connect(ctx context.Context) (time.Duration, error) {
	s.log.Infof("connecting to %s:%d/%s ...", s.params.Host, s.params.Port, s.params.Database)

	cfg, err := pgx.ParseConfig(s.dsn())
	if err != nil {
		return 0, fmt.Errorf("session: parse config: %w", err)
	}
	cfg.ConnectTimeout = connectTimeout

	start := time.Now()
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("session: connect: %w", err)
	}
	s.conn = conn

	if s.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET statement_timeout = '%dms'", s.statementTimeout.Milliseconds())
		if _, err := conn.Exec(ctx, stmt); err != nil {
			s.Disconnect(ctx)
			return 0, fmt.Errorf("session: set statement_timeout: %w", err)
		}
		s.log.Infof("statement_timeout set to %d ms", s.statementTimeout.Milliseconds())
	} else {
		s.log.Info("no statement_timeout set (no server-side query limit)")
	}

	elapsed := time.Since(start)
	s.log.Infof("connected in %.4fs", elapsed.Seconds())
	return elapsed, nil
}

// Disconnect closes the connection. It is idempotent: safe when the session
// never connected or is already closed. It is always attempted as the last
// step of a run, including abnormal termination paths.
func (s *Session) Disconnect(ctx context.Context) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(ctx); err != nil {
		s.log.Warnf("close connection: %v", err)
	} else {
		s.log.Info("connection closed")
	}
	s.conn = nil
}

// QueryAll executes one statement and fetches every row plus column names.
// The row handle is released on every exit path.
func (s *Session) QueryAll(ctx context.Context, sqlText string) (*QueryData, error) {
	if s.conn == nil {
		return nil, errNotConnected
	}
	rows, err := s.conn.Query(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := &QueryData{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		data.Rows = append(data.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, fd := range rows.FieldDescriptions() {
		data.Columns = append(data.Columns, fd.Name)
	}
	return data, nil
}

// QueryPhased runs the same path as QueryAll but times each client-side
// phase separately: statement dispatch, first-row wait, remaining fetch,
// and column metadata read. Each phase is measured independently so that
// their sum, not an outer timer, is the reported total.
func (s *Session) QueryPhased(ctx context.Context, sqlText string) (*QueryData, model.PhaseTimings, error) {
	var timings model.PhaseTimings
	if s.conn == nil {
		return nil, timings, errNotConnected
	}

	start := time.Now()
	rows, err := s.conn.Query(ctx, sqlText)
	timings.CursorCreation = time.Since(start).Seconds()
	if err != nil {
		return nil, timings, err
	}
	defer rows.Close()

	execStart := time.Now()
	more := rows.Next()
	timings.QueryExecution = time.Since(execStart).Seconds()

	fetchStart := time.Now()
	data := &QueryData{}
	for more {
		vals, err := rows.Values()
		if err != nil {
			return nil, timings, err
		}
		data.Rows = append(data.Rows, vals)
		more = rows.Next()
	}
	if err := rows.Err(); err != nil {
		return nil, timings, err
	}
	timings.ResultFetch = time.Since(fetchStart).Seconds()

	colStart := time.Now()
	for _, fd := range rows.FieldDescriptions() {
		data.Columns = append(data.Columns, fd.Name)
	}
	timings.ColumnInfo = time.Since(colStart).Seconds()

	return data, timings, nil
}

// Explain runs an already-built instrumentation statement and returns the
// raw plan document. The statement both plans and executes the query; the
// query's own result rows are deliberately never fetched.
func (s *Session) Explain(ctx context.Context, explainSQL string) ([]byte, error) {
	if s.conn == nil {
		return nil, errNotConnected
	}
	var payload []byte
	if err := s.conn.QueryRow(ctx, explainSQL).Scan(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Session) dsn() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", s.params.Host, s.params.Port),
		Path:   "/" + s.params.Database,
	}
	if s.params.Password != "" {
		u.User = url.UserPassword(s.params.User, s.params.Password)
	} else {
		u.User = url.User(s.params.User)
	}
	return u.String()
}
