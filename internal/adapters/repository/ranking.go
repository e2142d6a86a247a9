package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/okian/squadup/internal/domain/types"
	"github.com/okian/squadup/pkg/metrics"
)

// Treap-based ranking.
//
// Ordering: score DESC, then playerID ASC. "less" means ranks earlier, so
// an in-order walk yields the leaderboard from best to worst. Subtree
// sizes let Rank count better players in O(log n).

// scoreScale controls fixed-point scaling from float64. Scores live in
// [0, 100] so twelve decimal places fit comfortably in an int64.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * scoreScale)
	if scaled >= math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a strictly higher score.
func countAbove(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func collectTopN(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{PlayerID: n.id, Score: toFloat(n.score)})
	}
	collectTopN(n.right, limit, out)
}

// TreapRanking is an in-memory Ranking safe for concurrent use.
type TreapRanking struct {
	mu     sync.RWMutex
	root   *node
	scores map[string]scoreFP
}

// NewTreapRanking creates an empty ranking.
func NewTreapRanking() *TreapRanking {
	return &TreapRanking{scores: make(map[string]scoreFP)}
}

// Set implements Ranking.Set in O(log n) expected time.
func (s *TreapRanking) Set(_ context.Context, playerID string, score float64) error {
	ns := toFixedPoint(score)

	s.mu.Lock()
	if old, ok := s.scores[playerID]; ok {
		if old == ns {
			s.mu.Unlock()
			return nil
		}
		s.root = deleteNode(s.root, playerID, old)
	}
	s.root = insert(s.root, playerID, ns, rand.Uint64())
	s.scores[playerID] = ns
	count := len(s.scores)
	s.mu.Unlock()

	metrics.UpdateTotalPlayers(count)
	return nil
}

// Remove implements Ranking.Remove.
func (s *TreapRanking) Remove(_ context.Context, playerID string) bool {
	s.mu.Lock()
	old, ok := s.scores[playerID]
	if ok {
		s.root = deleteNode(s.root, playerID, old)
		delete(s.scores, playerID)
	}
	count := len(s.scores)
	s.mu.Unlock()

	if ok {
		metrics.UpdateTotalPlayers(count)
	}
	return ok
}

// Rank implements Ranking.Rank. Players with equal scores share a rank and
// the next distinct score skips the shared positions (1, 1, 3).
func (s *TreapRanking) Rank(_ context.Context, playerID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.scores[playerID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:     countAbove(s.root, score) + 1,
		PlayerID: playerID,
		Score:    toFloat(score),
	}, nil
}

// TopN implements Ranking.TopN.
func (s *TreapRanking) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.scores)))
	collectTopN(s.root, n, &out)
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out, nil
}

// Count implements Ranking.Count.
func (s *TreapRanking) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores)
}
