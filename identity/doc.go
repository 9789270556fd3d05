// Package identity derives stable, collision-resistant identities for a
// function and for the arguments of one call to it.
//
// A function's identity is a SHA-256 digest of its logic: the canonically
// printed AST of its declaration, parsed without comments, so formatting and
// comment edits do not change the digest while behavioral edits do. An
// argument identity is a SHA-256 digest of a canonical JSON encoding of the
// call's arguments plus a sanitized display string suitable for file names.
//
// Digest stability is guaranteed within one Go version only; go/printer
// output may change between releases.
package identity
