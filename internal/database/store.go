package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"stegguard/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence the HTTP handlers depend on.
type Store interface {
	FindFileByMD5(ctx context.Context, md5Hash string) (uuid.UUID, bool, error)
	InsertFile(ctx context.Context, filename, mediaType, md5Hash string) (uuid.UUID, error)
	FileName(ctx context.Context, fileUUID uuid.UUID) (string, error)
	StoredHashes(ctx context.Context, fileUUID uuid.UUID) (map[string]string, error)
	InsertHash(ctx context.Context, fileUUID uuid.UUID, algorithm, hashValue string) error
	FileByHash(ctx context.Context, algorithm, hashValue string) (uuid.UUID, error)
	WatermarkHistory(ctx context.Context, fileUUID uuid.UUID) ([]models.WaterMarkHistory, error)
	InsertWatermark(ctx context.Context, fileUUID uuid.UUID, md5Hash, algorithm string) error
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	DB *pgxpool.Pool
}

// NewStore wraps pool as a Store.
func NewStore(pool *pgxpool.Pool) *Postgres {
	return &Postgres{DB: pool}
}

// FindFileByMD5 checks if a file with the given MD5 hash already exists.
func (p *Postgres) FindFileByMD5(ctx context.Context, md5Hash string) (uuid.UUID, bool, error) {
	var existingFileUUID uuid.UUID
	err := p.DB.QueryRow(
		ctx,
		`SELECT uuid FROM files WHERE md5 = $1`,
		md5Hash,
	).Scan(&existingFileUUID)

	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("db error checking for file: %w", err)
	}
	return existingFileUUID, true, nil
}

// InsertFile inserts a new file record and returns its UUID.
func (p *Postgres) InsertFile(ctx context.Context, filename, mediaType, md5Hash string) (uuid.UUID, error) {
	var fileUUID uuid.UUID
	err := p.DB.QueryRow(
		ctx,
		`INSERT INTO files (filename, media_type, md5) VALUES ($1, $2, $3) RETURNING uuid`,
		filename,
		mediaType,
		md5Hash,
	).Scan(&fileUUID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("db error inserting file: %w", err)
	}
	return fileUUID, nil
}

func (p *Postgres) FileName(ctx context.Context, fileUUID uuid.UUID) (string, error) {
	var filename string
	err := p.DB.QueryRow(ctx, `SELECT filename FROM files WHERE uuid = $1`, fileUUID).Scan(&filename)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("db error reading file: %w", err)
	}
	return filename, nil
}

// StoredHashes retrieves the hashes for a given file UUID from the database.
func (p *Postgres) StoredHashes(ctx context.Context, fileUUID uuid.UUID) (map[string]string, error) {
	hashesFromDB := make(map[string]string)
	rows, err := p.DB.Query(
		ctx,
		`SELECT algorithm, hash_value FROM hashes WHERE file_uuid = $1`,
		fileUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error querying hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var algo, hashValue string
		if err := rows.Scan(&algo, &hashValue); err != nil {
			return nil, fmt.Errorf("db error scanning hash row: %w", err)
		}
		hashesFromDB[algo] = hashValue
	}
	return hashesFromDB, rows.Err()
}

func (p *Postgres) InsertHash(ctx context.Context, fileUUID uuid.UUID, algorithm, hashValue string) error {
	_, err := p.DB.Exec(
		ctx,
		`INSERT INTO hashes (file_uuid, algorithm, hash_value) VALUES ($1, $2, $3) ON CONFLICT (file_uuid, algorithm) DO NOTHING`,
		fileUUID,
		algorithm,
		hashValue,
	)
	if err != nil {
		return fmt.Errorf("db error inserting hash for %s: %w", algorithm, err)
	}
	return nil
}

// FileByHash returns the first file registered with the given hash.
func (p *Postgres) FileByHash(ctx context.Context, algorithm, hashValue string) (uuid.UUID, error) {
	const fileQuery = `SELECT file_uuid FROM hashes WHERE algorithm = $1 AND hash_value = $2 LIMIT 1`
	var fileUUID uuid.UUID
	err := p.DB.QueryRow(ctx, fileQuery, algorithm, hashValue).Scan(&fileUUID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("db error querying file by hash: %w", err)
	}
	return fileUUID, nil
}

func (p *Postgres) WatermarkHistory(ctx context.Context, fileUUID uuid.UUID) ([]models.WaterMarkHistory, error) {
	watermarks := make([]models.WaterMarkHistory, 0)

	rows, err := p.DB.Query(
		ctx,
		`SELECT algorithm, md5_after FROM watermark_history WHERE file_uuid = $1 ORDER BY id`,
		fileUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error querying watermarks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var watermark models.WaterMarkHistory
		if err := rows.Scan(&watermark.Algorithm, &watermark.MD5); err != nil {
			return nil, fmt.Errorf("db error scanning watermark row: %w", err)
		}
		watermarks = append(watermarks, watermark)
	}
	return watermarks, rows.Err()
}

func (p *Postgres) InsertWatermark(ctx context.Context, fileUUID uuid.UUID, md5Hash, algorithm string) error {
	_, err := p.DB.Exec(
		ctx,
		`INSERT INTO watermark_history(file_uuid, algorithm, md5_after) VALUES ($1, $2, $3)`,
		fileUUID,
		algorithm,
		md5Hash)
	if err != nil {
		return fmt.Errorf("db error inserting watermark: %w", err)
	}
	return nil
}
