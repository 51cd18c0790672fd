// Package textutil provides text processing helpers shared by the normalizer,
// the document builder and the artifact writer.
//
// The primary use cases are:
//   - Cleaning CRIS free text (titles, abstracts, names) into plain text
//   - Compacting identifiers such as ISBNs into DOI-safe suffixes
//   - Sanitizing filenames for generated deposit documents
//
// Markup is removed with a strict bluemonday policy and the result is
// Unicode NFC normalized so that equal-looking input produces equal output.
package textutil
