package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// InsertImage inserts or gets an existing image by URI
func (d *DB) InsertImage(uri string) (int64, error) {
	var id int64
	err := d.db.QueryRow("SELECT id FROM images WHERE uri = ?", uri).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query image: %w", err)
	}

	result, err := d.db.Exec("INSERT INTO images (uri) VALUES (?)", uri)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}
	return result.LastInsertId()
}

// InsertImageSize inserts or gets an existing image size
func (d *DB) InsertImageSize(imageID int64, width, height int) (int64, error) {
	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM image_sizes WHERE image_id = ? AND width = ? AND height = ?",
		imageID, width, height,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query image size: %w", err)
	}

	result, err := d.db.Exec(
		"INSERT INTO image_sizes (image_id, width, height) VALUES (?, ?, ?)",
		imageID, width, height,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image size: %w", err)
	}
	return result.LastInsertId()
}

// InsertRun records a decomposition and its spectrum
func (d *DB) InsertRun(imageSizeID int64, grayMode string, singularValues []float64) (int64, error) {
	result, err := d.db.Exec(
		"INSERT INTO runs (image_size_id, gray_mode, singular_values) VALUES (?, ?, ?)",
		imageSizeID, grayMode, Float64SliceToBytes(singularValues),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// GetRun retrieves a run by ID
func (d *DB) GetRun(id int64) (*Run, error) {
	var (
		r    Run
		blob []byte
	)
	err := d.db.QueryRow(
		"SELECT id, image_size_id, gray_mode, singular_values FROM runs WHERE id = ?", id,
	).Scan(&r.ID, &r.ImageSizeID, &r.GrayMode, &blob)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	r.SingularValues = BytesToFloat64Slice(blob)
	return &r, nil
}

// InsertApproximation inserts an approximation (or updates if the rank already exists for the run)
func (d *DB) InsertApproximation(a *Approximation) (int64, error) {
	var existingID int64
	err := d.db.QueryRow(
		"SELECT id FROM approximations WHERE run_id = ? AND rank = ?",
		a.RunID, a.Rank,
	).Scan(&existingID)

	if err == nil {
		_, err = d.db.Exec(`
			UPDATE approximations SET
				frobenius_error = ?,
				relative_error = ?,
				energy = ?,
				storage_ratio = ?,
				output_path = ?
			WHERE id = ?`,
			a.FrobeniusError,
			a.RelativeError,
			a.Energy,
			a.StorageRatio,
			a.OutputPath,
			existingID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update approximation: %w", err)
		}
		return existingID, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query existing approximation: %w", err)
	}

	res, err := d.db.Exec(`
		INSERT INTO approximations (
			run_id, rank,
			frobenius_error, relative_error, energy, storage_ratio,
			output_path
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.RunID,
		a.Rank,
		a.FrobeniusError,
		a.RelativeError,
		a.Energy,
		a.StorageRatio,
		a.OutputPath,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert approximation: %w", err)
	}
	return res.LastInsertId()
}

// ListApproximations retrieves the approximations of a run ordered by rank
func (d *DB) ListApproximations(runID int64) ([]*Approximation, error) {
	rows, err := d.db.Query(`
		SELECT id, run_id, rank,
		       frobenius_error, relative_error, energy, storage_ratio,
		       output_path
		FROM approximations
		WHERE run_id = ?
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approximations: %w", err)
	}
	defer rows.Close()

	var results []*Approximation
	for rows.Next() {
		var a Approximation
		err := rows.Scan(
			&a.ID, &a.RunID, &a.Rank,
			&a.FrobeniusError, &a.RelativeError, &a.Energy, &a.StorageRatio,
			&a.OutputPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approximation: %w", err)
		}
		results = append(results, &a)
	}
	return results, rows.Err()
}

// CountRuns counts the runs recorded for an image URI
func (d *DB) CountRuns(uri string) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*)
		FROM runs r
		JOIN image_sizes isz ON r.image_size_id = isz.id
		JOIN images i ON isz.image_id = i.id
		WHERE i.uri = ?`, uri,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
