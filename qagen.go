// Package qagen turns documentation websites into question/answer corpora
// for retrieval-augmented generation. It fetches documentation pages,
// extracts their main content as markdown, splits the markdown into
// segments, and asks an LLM to produce question/answer pairs grounded in
// each segment. Results are aggregated per job and can be exported as
// JSONL for downstream indexing.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, trafilatura/).
package qagen
