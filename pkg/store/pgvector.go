package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
}

// VectorStore keeps sentence tables in Postgres, one row per table row keyed
// by file and position, with an optional pgvector embedding.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
	table  string
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "sentences"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
		table:  pgx.Identifier{config.TableName}.Sanitize(),
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			file TEXT NOT NULL,
			position INTEGER NOT NULL,
			section TEXT NOT NULL,
			sentence TEXT NOT NULL,
			prev_sentence TEXT NOT NULL,
			next_sentence TEXT NOT NULL,
			coordinates TEXT NOT NULL,
			token_ids INTEGER[],
			attention_mask INTEGER[],
			embedding vector(%d),
			PRIMARY KEY (file, position)
		)`, vs.table, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		pgx.Identifier{vs.config.TableName + "_embedding_idx"}.Sanitize(), vs.table)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Store writes rows in one transaction. Rows of the same file are numbered in
// the order given, and earlier rows of that file beyond the new length are
// removed, so storing a document twice leaves one copy of its table.
func (vs *VectorStore) Store(ctx context.Context, rows []models.SentenceRow) error {
	positions := make([]int, len(rows))
	counts := map[string]int{}
	var files []string
	for i, row := range rows {
		if len(row.Embedding) > 0 && len(row.Embedding) != vs.config.VectorDim {
			return fmt.Errorf("row %d of %s: embedding has %d dimensions, table has %d",
				i, row.File, len(row.Embedding), vs.config.VectorDim)
		}
		file := sanitizeUTF8(row.File)
		if _, ok := counts[file]; !ok {
			files = append(files, file)
		}
		positions[i] = counts[file]
		counts[file]++
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	upsert := fmt.Sprintf(`
		INSERT INTO %s (file, position, section, sentence, prev_sentence, next_sentence,
			coordinates, token_ids, attention_mask, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (file, position) DO UPDATE SET
			section = EXCLUDED.section,
			sentence = EXCLUDED.sentence,
			prev_sentence = EXCLUDED.prev_sentence,
			next_sentence = EXCLUDED.next_sentence,
			coordinates = EXCLUDED.coordinates,
			token_ids = EXCLUDED.token_ids,
			attention_mask = EXCLUDED.attention_mask,
			embedding = EXCLUDED.embedding`,
		vs.table)

	// Insert rows in batches
	for start := 0; start < len(rows); start += vs.config.BatchSize {
		end := min(start+vs.config.BatchSize, len(rows))

		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			row := rows[i]
			var tokenIDs, mask []int
			if row.Tokenized != nil {
				tokenIDs, mask = row.Tokenized.TokenIDs, row.Tokenized.AttentionMask
			}
			var embedding *pgvector.Vector
			if len(row.Embedding) > 0 {
				v := pgvector.NewVector(row.Embedding)
				embedding = &v
			}
			batch.Queue(upsert,
				sanitizeUTF8(row.File),
				positions[i],
				sanitizeUTF8(row.Section),
				sanitizeUTF8(row.Sentence),
				sanitizeUTF8(row.PrevSentence),
				sanitizeUTF8(row.NextSentence),
				sanitizeUTF8(row.Coordinates),
				tokenIDs,
				mask,
				embedding,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert rows: %v", err)
		}
	}

	prune := fmt.Sprintf("DELETE FROM %s WHERE file = $1 AND position >= $2", vs.table)
	for _, file := range files {
		if _, err := tx.Exec(ctx, prune, file, counts[file]); err != nil {
			return fmt.Errorf("failed to prune rows of %s: %v", file, err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

const selectColumns = `file, section, sentence, prev_sentence, next_sentence, coordinates,
	token_ids, attention_mask, embedding`

// ByFile returns the stored table of one file in row order.
func (vs *VectorStore) ByFile(ctx context.Context, file string) ([]models.SentenceRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE file = $1 ORDER BY position`, selectColumns, vs.table)

	rows, err := vs.pool.Query(ctx, query, sanitizeUTF8(file))
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %v", err)
	}
	return scanRows(rows)
}

// Query returns the rows whose embedding is closest to the given one by
// cosine distance. Rows without an embedding are never returned.
func (vs *VectorStore) Query(ctx context.Context, queryEmbedding []float32, limit int) ([]models.SentenceRow, error) {
	if limit == 0 {
		limit = vs.config.SearchLimit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		selectColumns, vs.table)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %v", err)
	}
	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]models.SentenceRow, error) {
	defer rows.Close()

	var out []models.SentenceRow
	for rows.Next() {
		var row models.SentenceRow
		var tokenIDs, mask []int
		var embedding *pgvector.Vector
		err := rows.Scan(
			&row.File,
			&row.Section,
			&row.Sentence,
			&row.PrevSentence,
			&row.NextSentence,
			&row.Coordinates,
			&tokenIDs,
			&mask,
			&embedding,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		if tokenIDs != nil {
			row.Tokenized = &models.TokenEncoding{TokenIDs: tokenIDs, AttentionMask: mask}
		}
		if embedding != nil {
			row.Embedding = embedding.Slice()
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	return out, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// sanitizeUTF8 drops invalid bytes and NULs, which Postgres text rejects.
func sanitizeUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
