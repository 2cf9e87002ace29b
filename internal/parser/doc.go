// Package parser turns Laravel-style log text into structured entries.
//
// # Format
//
// An entry starts with a header line:
//
//	[2024-01-01 00:00:00] local.ERROR: Something failed
//
// and owns every following line up to the next header. Continuation lines are split
// into context and stack trace: the first line containing "Stack trace:" or "#0 ",
// or starting with "#<digits>", and every line after it, belong to the stack trace.
//
// # Incremental parsing
//
// ParseChunk never finalizes the last entry of its input because more continuation
// lines may still be appended to the file. The raw text of that entry (and any
// unterminated trailing line) is returned as the remainder, to be prepended to the
// next read. Finalize flushes a remainder once the caller decides it is complete.
// Parse and Entries treat their input as a whole file.
//
// Parsing never fails: text that does not fit the format is carried in the
// remainder or ignored.
package parser
