package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/w-h-a/shebot/knowledge/providers/store"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

var DRIVER string

func init() {
	driver, err := otelsql.Register(
		"postgres",
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		detail := "failed to register pg embedding store with otel"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	DRIVER = driver
}

type postgresStore struct {
	options store.Options
	conn    *sql.DB
}

func (s *postgresStore) Exists(ctx context.Context, corpus string) (bool, error) {
	var count int
	err := s.conn.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM corpus_embeddings WHERE corpus = $1`,
		corpus,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *postgresStore) Load(ctx context.Context, corpus string) ([][]float32, error) {
	rows, err := s.conn.QueryContext(
		ctx,
		`SELECT embedding FROM corpus_embeddings WHERE corpus = $1 ORDER BY idx ASC`,
		corpus,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matrix [][]float32
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, err
		}
		matrix = append(matrix, vec.Slice())
	}

	return matrix, rows.Err()
}

func (s *postgresStore) Save(ctx context.Context, corpus string, matrix [][]float32) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_embeddings WHERE corpus = $1`, corpus); err != nil {
		return err
	}

	for i, row := range matrix {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO corpus_embeddings (corpus, idx, embedding) VALUES ($1, $2, $3)`,
			corpus, i, pgvector.NewVector(row),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *postgresStore) Close() error {
	return s.conn.Close()
}

func NewStore(opts ...store.Option) (*postgresStore, error) {
	options := store.NewOptions(opts...)

	conn, err := sql.Open(DRIVER, options.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	s := &postgresStore{
		options: options,
		conn:    conn,
	}

	schema := `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS corpus_embeddings (
			corpus TEXT NOT NULL,
			idx INT NOT NULL,
			embedding VECTOR,
			PRIMARY KEY (corpus, idx)
		);
	`

	if _, err := conn.ExecContext(options.Context, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure embedding schema: %w", err)
	}

	return s, nil
}
