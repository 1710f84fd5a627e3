package db

const schema = `
-- Images table
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uri TEXT NOT NULL UNIQUE
);

-- Image sizes table (after optional downscaling)
CREATE TABLE IF NOT EXISTS image_sizes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_id INTEGER NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
    UNIQUE(image_id, width, height)
);

-- Runs table (one decomposition)
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_size_id INTEGER NOT NULL,
    gray_mode TEXT NOT NULL,
    singular_values BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (image_size_id) REFERENCES image_sizes(id) ON DELETE CASCADE
);

-- Approximations table (one reconstructed rank of a run)
CREATE TABLE IF NOT EXISTS approximations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    rank INTEGER NOT NULL,

    frobenius_error REAL NOT NULL,
    relative_error REAL NOT NULL,
    energy REAL NOT NULL,
    storage_ratio REAL NOT NULL,
    output_path TEXT NOT NULL,

    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
    UNIQUE(run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_image_sizes_image ON image_sizes(image_id);
CREATE INDEX IF NOT EXISTS idx_runs_image_size ON runs(image_size_id);
CREATE INDEX IF NOT EXISTS idx_approximations_run ON approximations(run_id);
`
