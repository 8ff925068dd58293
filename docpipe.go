// Package docpipe provides an incremental pipeline that acquires
// institutional documents, extracts their text, classifies them with a
// language model and keeps structured records of the results.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, colly/).
package docpipe
