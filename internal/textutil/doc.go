// Package textutil provides text processing utilities for duplicate
// signatures, alias resolution, and filename sanitization.
//
// The primary use cases are:
//   - Normalizing artist/title strings into stable duplicate-group signatures
//   - Resolving artist name spelling variants against a data-driven alias table
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Normalization lowercases via unicode case folding, strips diacritics and
// punctuation, removes configured stop words, and collapses whitespace so
// that "AC/DC", "ACDC", and "AC-DC" produce one signature.
package textutil
