package frontier

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Strategy decides which end of the queue Take pops from.
// mixPct 0 is pure BFS, 100 is pure DFS.
type Strategy struct {
	name   string
	mixPct int
}

var (
	BFS = Strategy{name: "bfs", mixPct: 0}
	DFS = Strategy{name: "dfs", mixPct: 100}
)

// ParseStrategy accepts "bfs", "dfs" or "mixedNN" where NN is the percentage
// of pops taken from the back. An empty string means BFS.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "bfs":
		return BFS, nil
	case s == "dfs":
		return DFS, nil
	case strings.HasPrefix(s, "mixed"):
		n, err := strconv.Atoi(s[len("mixed"):])
		if err != nil {
			return Strategy{}, fmt.Errorf("strategy %q: %w", s, err)
		}
		n = max(0, min(100, n))
		return Strategy{name: s, mixPct: n}, nil
	default:
		return Strategy{}, fmt.Errorf("unknown strategy %q", s)
	}
}

func (s Strategy) String() string {
	if s.name == "" {
		return BFS.name
	}
	return s.name
}

func (s Strategy) pop(q *queue, rng *rand.Rand) (Entry, bool) {
	switch {
	case s.mixPct <= 0:
		return q.popFront()
	case s.mixPct >= 100:
		return q.popBack()
	default:
		if rng.Intn(100) < s.mixPct {
			return q.popBack()
		}
		return q.popFront()
	}
}
