package seed

import (
	"fmt"
	"math/rand/v2"

	"github.com/samber/lo"
)

// Generator limits.
const (
	minTeamSize = 1
	maxTeamSize = 5
	maxGoals    = 6
	maxBase     = 60
)

var (
	positions = []string{"goalie", "defender", "midfielder", "forward", ""}
	colors    = []string{"red", "blue", "white", "black", "green", "yellow"}
)

// PlayerSpec is a player to be created.
type PlayerSpec struct {
	Name      string  `json:"name"`
	Position  string  `json:"position"`
	BaseScore float64 `json:"base_score"`
}

// MatchSpec is a match to be played between players picked by index.
type MatchSpec struct {
	TeamA  []int
	TeamB  []int
	ColorA string
	ColorB string
	GoalsA int
	GoalsB int
}

// Generator produces reproducible players and matches.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Players returns n player specs. Base scores are whole numbers so that
// replayed sums stay exact.
func (g *Generator) Players(n int) []PlayerSpec {
	out := make([]PlayerSpec, n)
	for i := range out {
		out[i] = PlayerSpec{
			Name:      fmt.Sprintf("player-%03d", i+1),
			Position:  positions[g.rng.IntN(len(positions))],
			BaseScore: float64(10 + g.rng.IntN(maxBase-10+1)),
		}
	}
	return out
}

// Matches returns n matches between disjoint random teams drawn from
// players players. It needs at least two players.
func (g *Generator) Matches(players, n int) []MatchSpec {
	if players < 2 {
		return nil
	}
	out := make([]MatchSpec, n)
	for i := range out {
		size := minTeamSize + g.rng.IntN(min(maxTeamSize, players/2)-minTeamSize+1)
		picked := g.rng.Perm(players)[:2*size]
		c := g.rng.Perm(len(colors))
		out[i] = MatchSpec{
			TeamA:  picked[:size],
			TeamB:  picked[size:],
			ColorA: colors[c[0]],
			ColorB: colors[c[1]],
			GoalsA: g.rng.IntN(maxGoals + 1),
			GoalsB: g.rng.IntN(maxGoals + 1),
		}
	}
	return out
}

// Goals returns a random score pair.
func (g *Generator) Goals() (int, int) {
	return g.rng.IntN(maxGoals + 1), g.rng.IntN(maxGoals + 1)
}

// Sample picks k distinct indexes out of n.
func (g *Generator) Sample(n, k int) []int {
	return g.rng.Perm(n)[:min(n, k)]
}

// ids maps player indexes onto created player ids.
func ids(players []Player, idx []int) []string {
	return lo.Map(idx, func(i int, _ int) string { return players[i].ID })
}
