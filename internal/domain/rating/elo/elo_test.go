package elo_test

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/internal/domain/rating/elo"
	. "github.com/smartystreets/goconvey/convey"
)

var sequence = []float64{1613, 1609, 1477, 1388, 1586, 1720}

// fixture builds p1 against the five others: lose, draw, win, win, lose.
func fixture(r *elo.Elo, sub, div float64) (*elo.Player, *rating.Batch) {
	ps := make([]*elo.Player, len(sequence))
	for i, v := range sequence {
		ps[i] = r.PlayerAt((v - sub) / div)
	}
	p1 := ps[0]
	return p1, rating.NewBatch(
		rating.NewMatch(rating.Score(p1, 0), rating.Score(ps[1], 1)),
		rating.NewMatch(rating.Score(p1, 0), rating.Score(ps[2], 0)),
		rating.NewMatch(rating.Score(p1, 1), rating.Score(ps[3], 0)),
		rating.NewMatch(rating.Score(p1, 1), rating.Score(ps[4], 0)),
		rating.NewMatch(rating.Score(p1, 0), rating.Score(ps[5], 1)),
	)
}

func winsOf(r *elo.Elo, b *rating.Batch) []float64 {
	var out []float64
	for _, m := range b.Matches() {
		w, err := r.Win(m)
		So(err, ShouldBeNil)
		out = append(out, w)
	}
	return out
}

func shouldAllAlmostEqual(got, want []float64, tol float64) {
	So(len(got), ShouldEqual, len(want))
	for i := range want {
		So(got[i], ShouldAlmostEqual, want[i], tol)
	}
}

func TestChessElo(t *testing.T) {
	Convey("Given the chess ranker and a five-match sequence", t, func() {
		r, err := elo.NewChess()
		So(err, ShouldBeNil)
		p1, batch := fixture(r, 0, 1)

		Convey("Then the win probabilities match the reference table", func() {
			shouldAllAlmostEqual(winsOf(r, batch),
				[]float64{0.505756, 0.686300, 0.785026, 0.538778, 0.350705}, 1e-4)
		})

		Convey("When matches are applied one by one", func() {
			for _, m := range batch.Matches() {
				So(rating.Update(r, m), ShouldBeNil)
			}

			Convey("Then the final rating is known", func() {
				So(p1.Skill(), ShouldAlmostEqual, 1603.191184, 1e-4)
			})
		})

		Convey("When the whole batch is applied", func() {
			So(rating.Update(r, batch), ShouldBeNil)

			Convey("Then it equals the sequential fold", func() {
				So(p1.Skill(), ShouldAlmostEqual, 1603.191184, 1e-4)
			})
		})

		Convey("Then defaults follow the chess convention", func() {
			So(r.Name(), ShouldEqual, "chess_elo")
			So(r.K(), ShouldEqual, 32.0)
			So(r.NewPlayer().Skill(), ShouldEqual, 1500.0)
		})
	})
}

func TestElo(t *testing.T) {
	Convey("Given a logistic Elo tuned so that K is close to 32 rating points", t, func() {
		r, err := elo.New(elo.WithDistribution(distuv.Logistic{Mu: 0, S: 1}), elo.WithAlpha(0.10435876689))
		So(err, ShouldBeNil)
		p1, batch := fixture(r, 1500, 173)

		Convey("Then K maps to 32 on the rating scale", func() {
			So(r.K()*173, ShouldAlmostEqual, 32, 1)
		})

		Convey("Then win probabilities follow the logistic curve", func() {
			shouldAllAlmostEqual(winsOf(r, batch),
				[]float64{0.504087, 0.635497, 0.714970, 0.527561, 0.392374}, 1e-4)
		})

		Convey("When the sequence is applied", func() {
			So(r.UpdateBatch(batch), ShouldBeNil)

			Convey("Then the final rating is known", func() {
				So(p1.Skill()*173+1500, ShouldAlmostEqual, 1605.426562, 1e-4)
			})
		})
	})

	Convey("Given a normal Elo with the same tuning", t, func() {
		dist, err := elo.DistributionByName("normal")
		So(err, ShouldBeNil)
		r, err := elo.New(elo.WithDistribution(dist), elo.WithAlpha(0.10435876689))
		So(err, ShouldBeNil)
		p1, batch := fixture(r, 1500, 173)

		Convey("Then win probabilities follow the normal curve", func() {
			shouldAllAlmostEqual(winsOf(r, batch),
				[]float64{0.5065221323696847, 0.710852136082442, 0.8211215145200301, 0.5439371529376492, 0.3309311261083969}, 1e-6)
		})

		Convey("When the sequence is applied", func() {
			So(r.UpdateBatch(batch), ShouldBeNil)

			Convey("Then the final rating is known", func() {
				So(p1.Skill()*173+1500, ShouldAlmostEqual, 1602.131659, 1e-4)
			})
		})
	})

	Convey("Given a logistic Elo on a 1/1500 scale", t, func() {
		dist, err := elo.DistributionByName("logistic")
		So(err, ShouldBeNil)
		r, err := elo.New(elo.WithVolatility(64.0/1500), elo.WithDistribution(dist), elo.WithAlpha(0.2831))
		So(err, ShouldBeNil)
		p1, batch := fixture(r, 0, 1500)

		Convey("When the batch is applied", func() {
			So(r.UpdateBatch(batch), ShouldBeNil)

			Convey("Then the final rating is known", func() {
				So(p1.Skill()*1500, ShouldAlmostEqual, 1608.416031, 1e-4)
			})
		})
	})
}

func TestEloTeams(t *testing.T) {
	Convey("Given two chess teams", t, func() {
		r, err := elo.NewChess()
		So(err, ShouldBeNil)
		p1, p2, p3, p4 := r.PlayerAt(1613), r.PlayerAt(1388), r.PlayerAt(1477), r.PlayerAt(1609)
		t1, err := r.NewTeam(p1, p2)
		So(err, ShouldBeNil)
		t2, err := r.NewTeam(p3, p4)
		So(err, ShouldBeNil)

		Convey("Then team skill is the sum of its members", func() {
			So(t1.Skill(), ShouldAlmostEqual, 3001, 1e-9)
			So(t2.Skill(), ShouldAlmostEqual, 3086, 1e-9)
		})

		Convey("When the team plays the five-match sequence", func() {
			batch := rating.NewBatch(
				rating.NewMatch(rating.Score(t1, 0), rating.Score(t2, 1)),
				rating.NewMatch(rating.Score(t1, 0), rating.Score(t2, 0)),
				rating.NewMatch(rating.Score(t1, 1), rating.Score(t2, 0)),
				rating.NewMatch(rating.Score(t1, 1), rating.Score(t2, 0)),
				rating.NewMatch(rating.Score(t1, 0), rating.Score(t2, 1)),
			)
			So(r.UpdateBatch(batch), ShouldBeNil)

			Convey("Then both teams reach the reference ratings", func() {
				So(t1.Skill(), ShouldAlmostEqual, 3017.83171558993, 1e-4)
				So(t2.Skill(), ShouldAlmostEqual, 3069.16828441007, 1e-4)
			})

			Convey("Then members moved in proportion to their share", func() {
				So(p1.Skill(), ShouldAlmostEqual, 1622.0468368032514, 1e-4)
				So(p2.Skill(), ShouldAlmostEqual, 1395.784878786679, 1e-4)
				So(p1.Skill()+p2.Skill(), ShouldAlmostEqual, t1.Skill(), 1e-9)
			})
		})

		Convey("When a member is rated on its own", func() {
			before := t1.Skill()
			m := rating.NewMatch(rating.Score(p1, 1), rating.Score(p3, 0))
			So(r.UpdateMatch(m), ShouldBeNil)

			Convey("Then the team aggregate is not stale", func() {
				So(t1.Skill(), ShouldNotEqual, before)
				So(t1.Skill(), ShouldAlmostEqual, p1.Skill()+p2.Skill(), 1e-9)
			})
		})

		Convey("When teams of teams are formed", func() {
			outer, err := r.NewTeam(t1, t2)
			So(err, ShouldBeNil)

			Convey("Then skill stays additive", func() {
				So(outer.Skill(), ShouldAlmostEqual, 3001+3086, 1e-9)
			})
		})
	})

	Convey("Given a team whose members sum to zero", t, func() {
		r, err := elo.New()
		So(err, ShouldBeNil)
		a, b := r.PlayerAt(0), r.PlayerAt(0)
		team, err := r.NewTeam(a, b)
		So(err, ShouldBeNil)
		other, err := r.NewTeam(r.PlayerAt(0), r.PlayerAt(0))
		So(err, ShouldBeNil)

		Convey("When it wins", func() {
			So(r.UpdateMatch(rating.NewMatch(rating.Score(team, 1), rating.Score(other, 0))), ShouldBeNil)

			Convey("Then the gain is split equally", func() {
				So(a.Skill(), ShouldAlmostEqual, b.Skill(), 1e-12)
				So(a.Skill(), ShouldBeGreaterThan, 0)
				So(team.Skill(), ShouldAlmostEqual, r.K()/2, 1e-9)
			})
		})
	})
}

func TestEloErrors(t *testing.T) {
	Convey("Given an Elo ranker", t, func() {
		r, err := elo.New()
		So(err, ShouldBeNil)

		Convey("When a three-way match is rated", func() {
			m := rating.NewMatch(rating.Score(r.NewPlayer(), 1), rating.Score(r.NewPlayer(), 2), rating.Score(r.NewPlayer(), 3))
			_, winErr := r.Win(m)
			updErr := r.UpdateMatch(m)

			Convey("Then both fail with an arity error", func() {
				So(errors.Is(winErr, rating.ErrUnsupportedArity), ShouldBeTrue)
				So(errors.Is(updErr, rating.ErrUnsupportedArity), ShouldBeTrue)
			})
		})

		Convey("When a player of another ranker is used", func() {
			other, _ := elo.New()
			m := rating.NewMatch(rating.Score(r.NewPlayer(), 1), rating.Score(other.NewPlayer(), 0))

			Convey("Then it is rejected", func() {
				So(errors.Is(r.UpdateMatch(m), rating.ErrForeignSubject), ShouldBeTrue)
				_, err := r.NewTeam(other.NewPlayer())
				So(errors.Is(err, rating.ErrForeignSubject), ShouldBeTrue)
			})
		})

		Convey("When an empty team is requested", func() {
			_, err := r.NewTeam()

			Convey("Then it is degenerate", func() {
				So(errors.Is(err, rating.ErrDegenerateState), ShouldBeTrue)
			})
		})
	})

	Convey("Given inconsistent parameters", t, func() {
		Convey("Then construction fails with a configuration error", func() {
			_, err := elo.New(elo.WithVolatility(-1))
			So(errors.Is(err, rating.ErrConfiguration), ShouldBeTrue)
			_, err = elo.New(elo.WithAlpha(0))
			So(errors.Is(err, rating.ErrConfiguration), ShouldBeTrue)
			_, err = elo.New(elo.WithDistribution(nil))
			So(errors.Is(err, rating.ErrConfiguration), ShouldBeTrue)
			_, err = elo.DistributionByName("cauchy")
			So(errors.Is(err, rating.ErrConfiguration), ShouldBeTrue)
		})
	})
}
