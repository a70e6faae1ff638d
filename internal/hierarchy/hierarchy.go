// Package hierarchy ranks folder names by their release level and picks
// the folders a navigation run descends into.
package hierarchy

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Key orders folder names lexicographically on (Primary, Secondary).
type Key struct {
	Primary   float64
	Secondary float64
}

// Keys for names that carry no level.
var (
	KeyObsolete   = Key{Primary: math.Inf(-1)}
	KeyInProgress = Key{Primary: math.Inf(1)}
	KeyUnranked   = Key{Primary: -1, Secondary: -1}
)

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool {
	if k.Primary != o.Primary {
		return k.Primary < o.Primary
	}
	return k.Secondary < o.Secondary
}

func (k Key) String() string {
	return fmt.Sprintf("(%g, %g)", k.Primary, k.Secondary)
}

var levelPattern = regexp.MustCompile(`^.*?(\d+)([a-z])`)

var inProgressNames = []string{
	"work in progress",
	"work_in_progress",
	"workinprogress",
	"work-in-progress",
}

// Rank returns the level key of a folder name. Names containing "old" rank
// lowest, work-in-progress folders highest, and otherwise the first
// <digits><letter> pair gives (number, letter index with A=0).
func Rank(name string) Key {
	low := strings.ToLower(name)
	if strings.Contains(low, "old") {
		return KeyObsolete
	}
	for _, wip := range inProgressNames {
		if strings.Contains(low, wip) {
			return KeyInProgress
		}
	}
	if m := levelPattern.FindStringSubmatch(low); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return Key{Primary: float64(n), Secondary: float64(m[2][0] - 'a')}
		}
	}
	return KeyUnranked
}

// PickHighest returns the highest-ranked name, ignoring names containing
// "old". Among equal keys the first name wins.
func PickHighest(names []string) (string, bool) {
	best := KeyObsolete
	var picked string
	found := false
	for _, name := range names {
		if isObsolete(name) {
			continue
		}
		if k := Rank(name); best.Less(k) {
			best = k
			picked = name
			found = true
		}
	}
	return picked, found
}

var requirementTerms = []string{
	"functional requirements",
	"functional_requirements",
	"functionalrequirements",
	"functional-requirements",
	"functional req",
	"func requirements",
	"func req",
}

// PickRequirements returns the first name that looks like a functional
// requirements folder. The word "folder" is dropped before any test, so
// its embedded "old" does not mark the name obsolete.
func PickRequirements(names []string) (string, bool) {
	for _, name := range names {
		norm := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(name), "folder", ""))
		if strings.Contains(norm, "old") {
			continue
		}
		for _, term := range requirementTerms {
			if strings.Contains(norm, term) {
				return name, true
			}
		}
	}
	return "", false
}

// MatchDomain returns the first label naming one of domains. Spaces, case
// and a "folder" suffix are ignored.
func MatchDomain(labels, domains []string) (string, bool) {
	wanted := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if n := squash(d); n != "" {
			wanted[n] = struct{}{}
		}
	}
	for _, label := range labels {
		norm := strings.ReplaceAll(squash(label), "folder", "")
		if _, ok := wanted[norm]; ok {
			return label, true
		}
	}
	return "", false
}

// MatchUseCases returns the labels naming one of wanted, in label order.
// An empty wanted list selects every label.
func MatchUseCases(labels, wanted []string) []string {
	if len(wanted) == 0 {
		out := make([]string, len(labels))
		copy(out, labels)
		return out
	}
	set := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		set[squash(w)] = struct{}{}
	}
	var out []string
	for _, label := range labels {
		if _, ok := set[squash(label)]; ok {
			out = append(out, label)
		}
	}
	return out
}

// WantsExport reports whether label starts with one of prefixes, ignoring
// case.
func WantsExport(label string, prefixes []string) bool {
	low := strings.ToLower(label)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(low, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func isObsolete(name string) bool {
	return strings.Contains(strings.ToLower(name), "old")
}

func squash(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}
