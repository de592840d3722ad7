// Package script parses delimited script text into structured documents.
//
// Scripts are divided into sections introduced by "=== <label> ===" lines.
// Title sections (제목/title) become the document title; every other label is
// preserved verbatim so newer section kinds pass through untouched.
package script
