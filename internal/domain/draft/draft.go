// Package draft proposes balanced team splits for a match roster.
//
// Two-team drafts enumerate every split of the roster into halves and rank
// them by how close the first team's score sits to half of the total, then
// by how evenly the players pair up rank by rank. Three-team drafts are
// enumerated without ranking.
package draft

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
	"github.com/samber/lo"

	"github.com/okian/squadup/internal/domain/model"
)

// Defaults for the balancer.
const (
	DefaultMaxProposals        = 20
	DefaultMaxRoster           = 20
	DefaultMaxRosterThreeTeams = 12
	// DefaultRatingSigma is the openskill default uncertainty (25/3).
	DefaultRatingSigma = 25.0 / 3.0
	ratingZ            = 3
)

// Team is one side of a proposal. Players are ordered by score descending.
type Team struct {
	Players        []model.Player
	Score          float64
	EffectiveScore float64
}

// Key orders two-team proposals; lower is better on both fields.
type Key struct {
	// Primary is |effective team A − effective total / 2|.
	Primary float64
	// Secondary is the sum of squared score gaps between players of equal
	// rank in the two teams.
	Secondary float64
}

// Less reports whether k ranks before o.
func (k Key) Less(o Key) bool {
	if k.Primary != o.Primary {
		return k.Primary < o.Primary
	}
	return k.Secondary < o.Secondary
}

// Proposal is one candidate split. Key is zero for three-team proposals.
type Proposal struct {
	Teams           []Team
	Key             Key
	DrawProbability float64
	WinProbability  []float64
}

// Result is the outcome of one draft.
type Result struct {
	Proposals []Proposal
	// Candidates is the number of splits enumerated.
	Candidates int
	// Partial is set when the candidate limit stopped enumeration early.
	Partial bool
}

// Balancer enumerates and ranks team splits. It holds only configuration
// and is safe for concurrent use.
type Balancer struct {
	maxProposals   int
	maxRoster      int
	maxRosterThree int
	candidateLimit int
	substitution   bool
	sigma          float64
}

// New creates a Balancer.
func New(opts ...Option) *Balancer {
	b := &Balancer{
		maxProposals:   DefaultMaxProposals,
		maxRoster:      DefaultMaxRoster,
		maxRosterThree: DefaultMaxRosterThreeTeams,
		sigma:          DefaultRatingSigma,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Propose splits players into teamCount teams.
func (b *Balancer) Propose(players []model.Player, teamCount int) (Result, error) {
	if teamCount != 2 && teamCount != 3 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, teamCount)
	}
	if len(players) < teamCount {
		return Result{}, fmt.Errorf("%w: %d players for %d teams", ErrRosterTooSmall, len(players), teamCount)
	}
	limit := b.maxRoster
	if teamCount == 3 {
		limit = b.maxRosterThree
	}
	if len(players) > limit {
		return Result{}, fmt.Errorf("%w: %d players, limit %d", ErrRosterTooLarge, len(players), limit)
	}
	if dups := lo.FindDuplicatesBy(players, func(p model.Player) string { return p.ID }); len(dups) > 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, dups[0].ID)
	}

	sorted := SortByScore(players)
	var res Result
	if teamCount == 2 {
		res = b.twoTeams(sorted)
	} else {
		res = b.threeTeams(sorted)
	}
	for i := range res.Proposals {
		b.predict(&res.Proposals[i])
	}
	return res, nil
}

// SortByScore returns a copy ordered by current score descending, ties by
// id ascending.
func SortByScore(players []model.Player) []model.Player {
	out := make([]model.Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *Balancer) twoTeams(sorted []model.Player) Result {
	n := len(sorted)
	size := n / 2
	uneven := b.substitution && n%2 != 0

	total := sumScores(sorted)
	effTotal := total
	if uneven {
		effTotal -= sorted[n-1].Score
	}

	var res Result
	proposals := make([]Proposal, 0)
	visit := func(idx []int) bool {
		if b.candidateLimit > 0 && res.Candidates >= b.candidateLimit {
			res.Partial = true
			return false
		}
		a, rest := split(sorted, idx)
		teamA := newTeam(a, false)
		teamB := newTeam(rest, uneven)
		proposals = append(proposals, Proposal{
			Teams: []Team{teamA, teamB},
			Key: Key{
				Primary:   math.Abs(teamA.EffectiveScore - effTotal/2),
				Secondary: pairGap(teamA.Players, teamB.Players),
			},
		})
		res.Candidates++
		return true
	}

	if n%2 != 0 {
		// Halves differ in size, so every subset is a distinct split.
		forEachCombination(n, size, visit)
	} else {
		// Equal halves: the strongest player sits in team A so each split
		// is seen once.
		anchor := make([]int, size)
		forEachCombination(n-1, size-1, func(idx []int) bool {
			anchor[0] = 0
			for i, v := range idx {
				anchor[i+1] = v + 1
			}
			return visit(anchor)
		})
	}

	sort.SliceStable(proposals, func(i, j int) bool { return proposals[i].Key.Less(proposals[j].Key) })
	if len(proposals) > b.maxProposals {
		proposals = proposals[:b.maxProposals]
	}
	res.Proposals = proposals
	return res
}

func (b *Balancer) threeTeams(sorted []model.Player) Result {
	n := len(sorted)
	size := n / 3

	var res Result
	proposals := make([]Proposal, 0, b.maxProposals)
	forEachCombination(n, size, func(first []int) bool {
		t1, rest := split(sorted, first)
		keepGoing := true
		forEachCombination(len(rest), size, func(second []int) bool {
			if len(proposals) >= b.maxProposals {
				keepGoing = false
				return false
			}
			if b.candidateLimit > 0 && res.Candidates >= b.candidateLimit {
				res.Partial = true
				keepGoing = false
				return false
			}
			t2, t3 := split(rest, second)
			proposals = append(proposals, Proposal{
				Teams: []Team{newTeam(t1, false), newTeam(t2, false), newTeam(t3, false)},
			})
			res.Candidates++
			return true
		})
		return keepGoing
	})
	res.Proposals = proposals
	return res
}

func (b *Balancer) predict(p *Proposal) {
	teams := lo.Map(p.Teams, func(t Team, _ int) types.Team {
		return lo.Map(t.Players, func(pl model.Player, _ int) types.Rating {
			return types.Rating{Mu: pl.Score, Sigma: b.sigma, Z: ratingZ}
		})
	})
	p.DrawProbability = rating.PredictDraw(teams, nil)
	p.WinProbability = rating.PredictWin(teams, nil)
}

// newTeam builds a team from players already sorted by score. When
// dropWeakest is set the last player does not count towards the effective
// score.
func newTeam(players []model.Player, dropWeakest bool) Team {
	t := Team{Players: players, Score: sumScores(players)}
	t.EffectiveScore = t.Score
	if dropWeakest && len(players) > 0 {
		t.EffectiveScore -= players[len(players)-1].Score
	}
	return t
}

func sumScores(players []model.Player) float64 {
	return lo.SumBy(players, func(p model.Player) float64 { return p.Score })
}

func pairGap(a, b []model.Player) float64 {
	var sum float64
	for i := 0; i < len(a) && i < len(b); i++ {
		d := a[i].Score - b[i].Score
		sum += d * d
	}
	return sum
}

// TeamsLabel is the metrics label for a team count.
func TeamsLabel(teamCount int) string {
	return strconv.Itoa(teamCount)
}
