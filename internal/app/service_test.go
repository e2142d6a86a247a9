package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	service "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/ledger"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/pkg/logger"
	"github.com/okian/squadup/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func ticking() func() time.Time {
	t := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newStartedService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithClock(ticking()),
		service.WithIDGenerator(sequence("id")),
		service.WithLogger(logger.Nop()),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func team(ids ...string) model.Team { return model.Team{PlayerIDs: ids} }

func scoredTeam(score int, ids ...string) model.Team {
	return model.Team{PlayerIDs: ids, Score: model.IntPtr(score)}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("Then operations report ErrNotStarted", func() {
			_, err := svc.CreatePlayer(context.Background(), service.NewPlayer{SquadID: "sq", BaseScore: 1})
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When it is started twice and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a repository that already holds players", t, func() {
		ctx := context.Background()
		repo := repository.NewMemory()
		p, _ := model.NewPlayer("old", "sq", "Old", model.PositionNone, 10, time.Now())
		p.Score = 42
		So(repo.CreatePlayer(ctx, p), ShouldBeNil)

		svc := newStartedService(service.WithRepository(repo))
		defer svc.Stop()

		Convey("Then Start loads their scores into the leaderboard", func() {
			e, err := svc.Rank(ctx, "old")
			So(err, ShouldBeNil)
			So(e.Score, ShouldEqual, 42.0)
			So(e.Rank, ShouldEqual, 1)
		})
	})
}

func TestService_MatchFlow(t *testing.T) {
	Convey("Given two players of one squad", t, func() {
		ctx := context.Background()
		svc := newStartedService()
		defer svc.Stop()

		p1, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", Name: "Ana", BaseScore: 10})
		So(err, ShouldBeNil)
		p2, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", Name: "Bo", BaseScore: 10})
		So(err, ShouldBeNil)

		Convey("Creating a player with a bad base score fails", func() {
			_, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: -1})
			So(errors.Is(err, model.ErrInvalidBaseScore), ShouldBeTrue)
		})

		Convey("A player without a squad starts a new one", func() {
			p, err := svc.CreatePlayer(ctx, service.NewPlayer{BaseScore: 3})
			So(err, ShouldBeNil)
			So(p.SquadID, ShouldNotBeEmpty)
			So(p.SquadID, ShouldNotEqual, "sq")
		})

		Convey("When an unscored match is created", func() {
			m1, err := svc.CreateMatch(ctx, service.NewMatch{TeamA: team(p1.ID), TeamB: team(p2.ID)})
			So(err, ShouldBeNil)
			So(m1.SquadID, ShouldEqual, "sq")

			Convey("Then every participant has a zero-delta entry", func() {
				es, err := svc.Ledger(ctx, p1.ID)
				So(err, ShouldBeNil)
				So(es, ShouldHaveLength, 1)
				So(es[0].Delta, ShouldEqual, 0.0)
				p, _ := svc.Player(ctx, p1.ID)
				So(p.Score, ShouldEqual, 10.0)
			})

			Convey("And the match is scored and a second match is played", func() {
				_, err := svc.ScoreMatch(ctx, m1.ID, 3, 1)
				So(err, ShouldBeNil)
				a, _ := svc.Player(ctx, p1.ID)
				b, _ := svc.Player(ctx, p2.ID)
				So(a.Score, ShouldEqual, 12.0)
				So(b.Score, ShouldEqual, 8.0)

				m2, err := svc.CreateMatch(ctx, service.NewMatch{TeamA: scoredTeam(1, p1.ID), TeamB: scoredTeam(3, p2.ID)})
				So(err, ShouldBeNil)
				a, _ = svc.Player(ctx, p1.ID)
				So(a.Score, ShouldAlmostEqual, 12-2/1.2, 1e-9)

				Convey("Then editing the first result keeps the later delta", func() {
					_, err := svc.ScoreMatch(ctx, m1.ID, 5, 1)
					So(err, ShouldBeNil)
					a, _ := svc.Player(ctx, p1.ID)
					So(a.Score, ShouldAlmostEqual, 14-2/1.2, 1e-9)
					es, _ := svc.Ledger(ctx, p1.ID)
					So(es[1].Delta, ShouldAlmostEqual, -2/1.2, 1e-9)
					So(es[1].PreviousScore, ShouldEqual, 14.0)
				})

				Convey("Then recalculating is idempotent", func() {
					first, err := svc.Recalculate(ctx, p1.ID)
					So(err, ShouldBeNil)
					second, err := svc.Recalculate(ctx, p1.ID)
					So(err, ShouldBeNil)
					So(second.Score, ShouldEqual, first.Score)
				})

				Convey("Then the leaderboard follows the scores", func() {
					top, err := svc.TopN(ctx, 2)
					So(err, ShouldBeNil)
					So(top[0].PlayerID, ShouldEqual, p1.ID)
					e, _ := svc.Rank(ctx, p2.ID)
					So(e.Rank, ShouldEqual, 2)
				})

				Convey("Then deleting the first match shifts the rest without rescoring", func() {
					affected, err := svc.DeleteMatch(ctx, m1.ID)
					So(err, ShouldBeNil)
					So(affected, ShouldResemble, []string{p1.ID, p2.ID})
					a, _ := svc.Player(ctx, p1.ID)
					So(a.Score, ShouldAlmostEqual, 10-2/1.2, 1e-9)
					_, err = svc.Match(ctx, m1.ID)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					So(svc.GetStats()["totalMatches"], ShouldEqual, 1)
				})

				Convey("Then adding a player to a scored match scores them", func() {
					p4, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: 20})
					So(err, ShouldBeNil)
					_, err = svc.UpdateMatchPlayers(ctx, m2.ID, []string{p1.ID, p4.ID}, []string{p2.ID})
					So(err, ShouldBeNil)
					got, _ := svc.Player(ctx, p4.ID)
					So(got.Score, ShouldEqual, 18.0)
					a, _ := svc.Player(ctx, p1.ID)
					So(a.Score, ShouldAlmostEqual, 12-2/1.2, 1e-9)

					Convey("and removing them restores the base score", func() {
						_, err := svc.UpdateMatchPlayers(ctx, m2.ID, []string{p1.ID}, []string{p2.ID})
						So(err, ShouldBeNil)
						got, _ := svc.Player(ctx, p4.ID)
						So(got.Score, ShouldEqual, 20.0)
						es, _ := svc.Ledger(ctx, p4.ID)
						So(es, ShouldBeEmpty)
					})
				})
			})
		})

		Convey("Invalid matches are rejected before anything is written", func() {
			other, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "other", BaseScore: 1})
			So(err, ShouldBeNil)

			_, err = svc.CreateMatch(ctx, service.NewMatch{TeamA: team(p1.ID), TeamB: team(other.ID)})
			So(errors.Is(err, service.ErrSquadMismatch), ShouldBeTrue)

			_, err = svc.CreateMatch(ctx, service.NewMatch{TeamA: team(p1.ID), TeamB: team()})
			So(err, ShouldEqual, service.ErrEmptyRoster)

			_, err = svc.CreateMatch(ctx, service.NewMatch{TeamA: team(p1.ID), TeamB: team(p1.ID)})
			So(errors.Is(err, model.ErrPlayerOnBothTeams), ShouldBeTrue)

			_, err = svc.CreateMatch(ctx, service.NewMatch{TeamA: scoredTeam(1, p1.ID), TeamB: team(p2.ID)})
			So(errors.Is(err, service.ErrInvalidScore), ShouldBeTrue)

			_, err = svc.CreateMatch(ctx, service.NewMatch{TeamA: team(p1.ID), TeamB: team("ghost")})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			es, _ := svc.Ledger(ctx, p1.ID)
			So(es, ShouldBeEmpty)
		})

		Convey("Negative goals are rejected", func() {
			m, err := svc.CreateMatch(ctx, service.NewMatch{TeamA: team(p1.ID), TeamB: team(p2.ID)})
			So(err, ShouldBeNil)
			_, err = svc.ScoreMatch(ctx, m.ID, -1, 0)
			So(errors.Is(err, service.ErrInvalidScore), ShouldBeTrue)
		})
	})
}

func TestService_ChainRepair(t *testing.T) {
	Convey("Given a player whose stored chain is corrupted", t, func() {
		ctx := context.Background()
		repo := repository.NewMemory()
		svc := newStartedService(service.WithRepository(repo))
		defer svc.Stop()

		p, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: 10})
		So(err, ShouldBeNil)
		q, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: 10})
		So(err, ShouldBeNil)
		m, err := svc.CreateMatch(ctx, service.NewMatch{TeamA: scoredTeam(2, p.ID), TeamB: scoredTeam(0, q.ID)})
		So(err, ShouldBeNil)

		es, _ := repo.Entries(ctx, p.ID)
		es[0].PreviousScore = 50
		So(repo.Apply(ctx, repository.Change{Ledger: []repository.LedgerUpdate{{PlayerID: p.ID, Entries: es, Score: 12}}}), ShouldBeNil)

		Convey("Then Recalculate reports the broken chain", func() {
			_, err := svc.Recalculate(ctx, p.ID)
			So(errors.Is(err, ledger.ErrChainBroken), ShouldBeTrue)
		})

		Convey("Then Repair rebuilds it from the deltas", func() {
			got, err := svc.Repair(ctx, p.ID)
			So(err, ShouldBeNil)
			So(got.Score, ShouldEqual, 12.0)
			_, err = svc.Recalculate(ctx, p.ID)
			So(err, ShouldBeNil)
		})

		Convey("Then editing the match also rethreads the chain", func() {
			_, err := svc.ScoreMatch(ctx, m.ID, 3, 0)
			So(err, ShouldBeNil)
			got, _ := svc.Player(ctx, p.ID)
			So(got.Score, ShouldEqual, 13.0)
		})
	})
}

func TestService_DraftAndStats(t *testing.T) {
	Convey("Given a squad of six players and one scored match", t, func() {
		ctx := context.Background()
		svc := newStartedService(service.WithBalancer(draft.New(draft.WithMaxProposals(3))))
		defer svc.Stop()

		var ids []string
		for _, base := range []float64{30, 25, 20, 15, 10, 5} {
			p, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: base})
			So(err, ShouldBeNil)
			ids = append(ids, p.ID)
		}
		m, err := svc.CreateMatch(ctx, service.NewMatch{
			TeamA: scoredTeam(2, ids[0], ids[1], ids[2]),
			TeamB: scoredTeam(2, ids[3], ids[4], ids[5]),
		})
		So(err, ShouldBeNil)

		Convey("Draft ranks splits of the match roster", func() {
			res, err := svc.DraftMatch(ctx, m.ID, 2)
			So(err, ShouldBeNil)
			So(res.Proposals, ShouldHaveLength, 3)
			So(res.Proposals[0].Key.Primary, ShouldEqual, 2.5)
			for i := 1; i < len(res.Proposals); i++ {
				So(res.Proposals[i].Key.Primary, ShouldBeGreaterThanOrEqualTo, res.Proposals[i-1].Key.Primary)
			}
		})

		Convey("Draft rejects bad requests", func() {
			_, err := svc.Draft(ctx, ids, 4)
			So(errors.Is(err, draft.ErrInvalidTeamCount), ShouldBeTrue)
			_, err = svc.Draft(ctx, []string{ids[0], "ghost"}, 2)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Three teams are supported", func() {
			res, err := svc.Draft(ctx, ids, 3)
			So(err, ShouldBeNil)
			So(res.Proposals[0].Teams, ShouldHaveLength, 3)
		})

		Convey("Player stats reflect the draw", func() {
			ps, err := svc.PlayerStats(ctx, ids[0])
			So(err, ShouldBeNil)
			So(ps.TotalMatches, ShouldEqual, 1)
			So(ps.TotalDraws, ShouldEqual, 1)
			So(ps.ScoreHistory, ShouldHaveLength, 2)
		})

		Convey("Squad stats cover the squad", func() {
			ss, err := svc.SquadStats(ctx, "sq")
			So(err, ShouldBeNil)
			So(ss.TotalPlayers, ShouldEqual, 6)
			So(ss.TotalGoals, ShouldEqual, 4)
			_, err = svc.SquadStats(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

// vanishingRepository hides one player after it has been stored.
type vanishingRepository struct {
	repository.Repository
	gone string
}

func (r *vanishingRepository) Player(ctx context.Context, id string) (model.Player, error) {
	if id == r.gone {
		return model.Player{}, repository.ErrNotFound
	}
	return r.Repository.Player(ctx, id)
}

func draftRejections(reason string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != "squadup_core_draft_rejections_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "reason" && l.GetValue() == reason {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestService_DraftRejections(t *testing.T) {
	Convey("Given a match whose roster lost a player", t, func() {
		ctx := context.Background()
		repo := &vanishingRepository{Repository: repository.NewMemory()}
		svc := newStartedService(service.WithRepository(repo))
		defer svc.Stop()

		a, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: 20})
		So(err, ShouldBeNil)
		b, err := svc.CreatePlayer(ctx, service.NewPlayer{SquadID: "sq", BaseScore: 10})
		So(err, ShouldBeNil)
		m, err := svc.CreateMatch(ctx, service.NewMatch{TeamA: team(a.ID), TeamB: team(b.ID)})
		So(err, ShouldBeNil)
		repo.gone = b.ID

		Convey("Both draft paths count the rejection", func() {
			before := draftRejections("not_found")

			_, err := svc.DraftMatch(ctx, m.ID, 2)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(draftRejections("not_found"), ShouldEqual, before+1)

			_, err = svc.Draft(ctx, []string{a.ID, b.ID}, 2)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(draftRejections("not_found"), ShouldEqual, before+2)
		})
	})
}
