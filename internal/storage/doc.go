// Package storage persists the embedding cache artifact in SQLite.
//
// An artifact is a single database file holding the vectors of one corpus
// snapshot, one per fragment, keyed by corpus position.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations (semver)
//   - cache_meta: a single row with the corpus fingerprint, corpus source,
//     embedding provider and model, vector dimension, vector count and
//     creation time
//   - vectors: position INTEGER PRIMARY KEY, vector BLOB
//
// Vectors are stored as little-endian float32 blobs and round-trip
// bit-identically.
//
// # Basic Usage
//
//	err := storage.Save(ctx, "embeddings.db", &storage.Artifact{
//	    Meta: storage.Meta{
//	        Fingerprint: corpus.Fingerprint(),
//	        Provider:    emb.Provider(),
//	        Model:       emb.Model(),
//	        Dimension:   emb.Dimension(),
//	    },
//	    Vectors: vectors,
//	})
//
//	art, err := storage.Load(ctx, "embeddings.db")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // build from scratch
//	}
//
// Save builds the database in a temporary file beside the target and
// renames it into place, so concurrent readers see either the old or the
// new artifact and never a partial one.
//
// # Build Modes
//
// The default build uses the pure Go driver modernc.org/sqlite. Building
// with -tags sqlite_vec and CGO_ENABLED=1 switches to
// github.com/mattn/go-sqlite3. Both produce the same file format.
//
// # Schema Versions
//
// Migrations are applied in semver order when an artifact is written.
// Artifacts from a newer minor version or a different major version are
// rejected with ErrUnsupportedSchema on load, which callers treat as
// "rebuild".
package storage
