package sqlitestore

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	insertChannelSQL = `
INSERT INTO channels (dataset,
                      name,
                      unit,
                      sample_rate,
                      start_ns)
VALUES (?, ?, ?, ?, ?)`

	selectChannelsSQL = `
SELECT
    id,
    dataset,
    name,
    unit,
    sample_rate,
    start_ns,
    samples
FROM channels
WHERE
    ? = '' OR dataset = ?
ORDER BY dataset, name`

	selectChannelSQL = `
SELECT
    id,
    dataset,
    name,
    unit,
    sample_rate,
    start_ns,
    samples
FROM channels
WHERE
    dataset = ? AND name = ?`

	selectChannelByIDSQL = `
SELECT
    samples,
    (SELECT COALESCE(MAX(seq), -1) + 1 FROM chunks WHERE channel_id = channels.id)
FROM channels
WHERE
    id = ?`

	insertChunkSQL = `
INSERT INTO chunks (channel_id,
                    seq,
                    first_index,
                    count,
                    samples)
VALUES (?, ?, ?, ?, ?)`

	updateSampleCountSQL = `
UPDATE channels
SET samples = samples + ?
WHERE id = ?`

	selectChunksSQL = `
SELECT
    first_index,
    count,
    samples
FROM chunks
WHERE
    channel_id = ?
    AND first_index < ?
    AND first_index + count > ?
ORDER BY seq`
)
