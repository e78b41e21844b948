// Package analysis scores the structural health of audio files.
//
// The scorer runs format-aware checks — header signature validity, declared
// duration versus actual size, trailing-byte truncation patterns, and
// sample-domain heuristics where the payload is directly decodable — and
// folds each failing check into a typed Defect with a 0-100 severity.
//
// The resulting Report gates the pipeline: a file is healthy only when its
// weighted score clears the configured minimum AND no critical defect
// (corrupted header, decode failure, complete silence, sync errors, metadata
// corruption, encoding errors) was found. The default minimum is deliberately
// lenient; the gate exists to catch clearly broken files, not to judge taste.
package analysis
