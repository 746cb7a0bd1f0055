package sqlite

// schemaVersion is the current database schema version.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS compliance_checks (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at     TEXT NOT NULL,
    text           TEXT NOT NULL,
    department     TEXT,
    policy_type    TEXT CHECK (policy_type IN ('confidentiality', 'external_communication', 'data_privacy', 'security', 'hr')),
    overall_risk   TEXT NOT NULL CHECK (overall_risk IN ('NONE', 'LOW', 'MEDIUM', 'HIGH')),
    issues         TEXT NOT NULL DEFAULT '[]',
    suggested_text TEXT
);

CREATE INDEX IF NOT EXISTS idx_compliance_checks_department ON compliance_checks(department);
CREATE INDEX IF NOT EXISTS idx_compliance_checks_overall_risk ON compliance_checks(overall_risk);

CREATE TRIGGER IF NOT EXISTS compliance_checks_no_update
BEFORE UPDATE ON compliance_checks
BEGIN
    SELECT RAISE(ABORT, 'compliance_checks is append-only');
END;

CREATE TRIGGER IF NOT EXISTS compliance_checks_no_delete
BEFORE DELETE ON compliance_checks
BEGIN
    SELECT RAISE(ABORT, 'compliance_checks is append-only');
END;

CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;`
