package savecodec

import "time"

// Candidate is one version of a save slot competing with another.
type Candidate struct {
	Data          []byte
	TotalPlayTime time.Duration
	Revision      string
}

// Resolve keeps the candidate with the longest total play time. On a tie the
// local (existing) candidate wins.
func Resolve(local, remote Candidate) Candidate {
	if remote.TotalPlayTime > local.TotalPlayTime {
		return remote
	}
	return local
}

// RemoteWins reports whether Resolve would pick remote.
func RemoteWins(local, remote Candidate) bool {
	return remote.TotalPlayTime > local.TotalPlayTime
}
