// Package artifact contains implementations of core.ArtifactStore, the
// durable store for files a run produces (extracted tables, transcripts).
//
// The interface lives in core so that tools can save artifacts without
// importing a backend. InMemoryStore serves tests and single-process runs;
// the s3 subpackage stores artifacts in an S3 compatible bucket.
package artifact
