// Package sanitizer normalizes caller-supplied text before validation and
// persistence: collapsing whitespace, lowercasing emails, trimming notes.
// Sanitization never rejects input; that is the validators' job.
package sanitizer
