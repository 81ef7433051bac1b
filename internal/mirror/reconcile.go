package mirror

import "github.com/snipvault/snipvault/internal/notes"

// ReconcilePolicy resolves a local and a remote snapshot into the collection
// both sides should converge on after sign-in. Keeping the policy a function
// value lets a timestamp- or version-based merge replace it without touching
// call sites.
type ReconcilePolicy func(local, remote []notes.Note) []notes.Note

// RemoteWins discards the local snapshot wholesale, regardless of recency.
// This matches the mobile client: the remote copy replaces local state on
// every sign-in, with no merge and no per-note comparison.
func RemoteWins(local, remote []notes.Note) []notes.Note {
	return notes.CloneNotes(remote)
}
