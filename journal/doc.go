// Package journal implements the dirty-tracking Journal: an append-mostly
// side table recording, per identifier, the most recent local mutation —
// its table, timestamp, and whether the mutation was a deletion.
//
// At most one journal entry exists per identifier at a time; writing
// again upserts the existing entry's timestamp and deletion flag rather
// than appending a new row.
package journal
