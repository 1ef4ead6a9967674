package sqlite

const schema = `
-- Backlogs table: the live "current" backlog plus immutable snapshots
CREATE TABLE IF NOT EXISTS backlogs (
    key TEXT PRIMARY KEY,
    kind TEXT NOT NULL CHECK(kind IN ('current', 'snapshot')),
    backlog_id TEXT NOT NULL,
    generation TEXT NOT NULL DEFAULT '',
    task_count INTEGER NOT NULL DEFAULT 0,
    header TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_backlogs_kind ON backlogs(kind);

-- Tasks table: one row per task, body holds the full task document
CREATE TABLE IF NOT EXISTS tasks (
    backlog_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    title TEXT NOT NULL CHECK(length(title) <= 500),
    status TEXT NOT NULL,
    priority TEXT NOT NULL CHECK(priority IN ('P0', 'P1', 'P2', 'P3')),
    effort TEXT NOT NULL,
    body TEXT NOT NULL,
    PRIMARY KEY (backlog_key, id),
    FOREIGN KEY (backlog_key) REFERENCES backlogs(key) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);

-- Progress cache (single row)
CREATE TABLE IF NOT EXISTS progress (
    id INTEGER PRIMARY KEY CHECK(id = 1),
    body TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
