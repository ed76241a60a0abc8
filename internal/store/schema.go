package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    transaction_id       TEXT PRIMARY KEY,
    account_id           TEXT NOT NULL DEFAULT '',
    user_id              TEXT NOT NULL DEFAULT '',
    date                 TEXT NOT NULL,
    time                 TEXT,
    amount               REAL NOT NULL,
    category             TEXT NOT NULL DEFAULT '',
    vendor_name          TEXT,
    type                 TEXT,
    activity             TEXT,
    source_file          TEXT NOT NULL DEFAULT '',
    imported_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    user_id              TEXT PRIMARY KEY,
    account_id           TEXT NOT NULL DEFAULT '',
    email                TEXT,
    weekly_budget        REAL,
    biweekly_budget      REAL,
    monthly_budget       REAL,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

-- Every file an id was seen in. The row in transactions belongs to the
-- first file that imported it.
CREATE TABLE IF NOT EXISTS transaction_sources (
    transaction_id       TEXT NOT NULL,
    file_path            TEXT NOT NULL,
    PRIMARY KEY (transaction_id, file_path)
);

CREATE INDEX IF NOT EXISTS idx_transaction_sources_file ON transaction_sources(file_path);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source_file);
`
