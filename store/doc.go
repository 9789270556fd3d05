// Package store maps function and argument identities to checkpoint
// directories and artifact files on disk.
//
// Layout under the root:
//
//	{name}_{YYYY-MM-DD}_{logicDigest}_pycheckpoint/
//	    {name}_source.go
//	    {argsDisplay}_{YYYY-MM-DD}_{argDigest}_pycheckpoint.{ext}
//
// Lookup is date-independent and extension-independent: any directory with
// the right name and logic digest is reused regardless of when it was
// created, and any artifact with the right argument digest is a hit even if
// the serialization backend has since changed. Directories whose logic
// digest no longer matches are stale; they are never selected and never
// deleted.
//
// The store does no cross-process locking. Two processes racing on the same
// identity may both miss and both write; staging to a temp file and renaming
// keeps individual artifacts whole, but the last writer wins.
package store
