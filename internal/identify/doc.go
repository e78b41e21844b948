// Package identify resolves artist/title/album metadata for catalog files
// through an ordered strategy chain: acoustic fingerprint, embedded tags,
// filename grammar. Files no tier can resolve go to the review queue with
// whatever candidates the chain gathered; the pipeline never invents
// placeholder identity data.
package identify
