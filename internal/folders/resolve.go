package folders

import "strings"

// Match scores used by Resolve.
const (
	ScoreExact     = 100
	ScoreFoldCase  = 90
	ScoreContains  = 80
	ScoreContained = 70
)

// minContainedLen is the shortest label that may match by being a
// substring of the target.
const minContainedLen = 4

// Resolve finds the entry that best matches target. An exact label wins
// immediately; otherwise the highest of case-insensitive equality, target
// inside label and label inside target is taken, with ties going to the
// earliest label in map order. Only the equality rule ignores case.
func Resolve(target string, m *FolderMap) (FolderEntry, int, bool) {
	if target == "" {
		return FolderEntry{}, 0, false
	}
	if e, ok := m.Get(target); ok {
		return e, ScoreExact, true
	}

	var best FolderEntry
	bestScore := 0
	for _, label := range m.Keys() {
		score := similarity(target, label)
		if score > bestScore {
			best, _ = m.Get(label)
			bestScore = score
		}
	}
	return best, bestScore, bestScore > 0
}

func similarity(target, label string) int {
	switch {
	case strings.EqualFold(target, label):
		return ScoreFoldCase
	case strings.Contains(label, target):
		return ScoreContains
	case len(label) >= minContainedLen && strings.Contains(target, label):
		return ScoreContained
	}
	return 0
}
