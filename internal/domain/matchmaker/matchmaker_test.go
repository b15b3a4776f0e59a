package matchmaker_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/okian/ranked/internal/domain/matchmaker"
	. "github.com/smartystreets/goconvey/convey"
)

type skills []float64

func (s skills) Len() int            { return len(s) }
func (s skills) Skill(i int) float64 { return s[i] }

type failingSink struct{ calls int }

func (f *failingSink) Save(context.Context, []matchmaker.Match) error {
	f.calls++
	return errors.New("disk full")
}

func randomPool(rng *rand.Rand, n int) skills {
	out := make(skills, n)
	for i := range out {
		out[i] = 1500 + rng.NormFloat64()*200
	}
	return out
}

func TestMatchmakerInvariants(t *testing.T) {
	Convey("Given pools of many sizes", t, func() {
		rng := rand.New(rand.NewSource(42))
		shapes := []struct{ teams, players int }{{2, 5}, {2, 1}, {3, 2}, {4, 3}}

		Convey("Then every pass has the right shape and no duplicates", func() {
			for _, shape := range shapes {
				for _, n := range []int{0, 1, 9, 10, 11, 37, 100} {
					pool := randomPool(rng, n)
					snapshot := append(skills{}, pool...)
					mm, err := matchmaker.New(pool, shape.teams, shape.players, matchmaker.WithRand(rng))
					So(err, ShouldBeNil)

					matches := mm.Matches()
					So(len(matches), ShouldEqual, n/mm.WindowSize())

					seen := make(map[int]bool)
					for _, match := range matches {
						So(len(match), ShouldEqual, shape.teams)
						for _, team := range match {
							So(len(team), ShouldEqual, shape.players)
							for _, idx := range team {
								So(seen[idx], ShouldBeFalse)
								seen[idx] = true
							}
						}
					}
					So(pool, ShouldResemble, snapshot)
				}
			}
		})
	})
}

func TestMatchmakerBrackets(t *testing.T) {
	Convey("Given ten players with distinct skills", t, func() {
		pool := skills{900, 100, 500, 300, 700, 200, 800, 400, 600, 0}
		mm, err := matchmaker.New(pool, 2, 1, matchmaker.WithSeed(7))
		So(err, ShouldBeNil)

		Convey("When a pass is made", func() {
			matches := mm.Matches()

			Convey("Then each match pairs neighbours in skill", func() {
				So(len(matches), ShouldEqual, 5)
				for i, match := range matches {
					lo, hi := pool[match[0][0]], pool[match[1][0]]
					if lo > hi {
						lo, hi = hi, lo
					}
					So(lo, ShouldEqual, float64(200*i))
					So(hi, ShouldEqual, float64(200*i+100))
				}
			})
		})
	})

	Convey("Given players with equal skills", t, func() {
		pool := skills{5, 5, 5, 5, 1, 1}
		mm, err := matchmaker.New(pool, 1, 2, matchmaker.WithSeed(3))
		So(err, ShouldBeNil)

		Convey("Then ties keep their pool order across brackets", func() {
			matches := mm.Matches()
			So(len(matches), ShouldEqual, 3)
			So(matches[0][0], ShouldContain, 4)
			So(matches[0][0], ShouldContain, 5)
			So(matches[1][0], ShouldContain, 0)
			So(matches[1][0], ShouldContain, 1)
		})
	})

	Convey("Given the same seed twice", t, func() {
		pool := randomPool(rand.New(rand.NewSource(1)), 40)
		a, err := matchmaker.New(pool, 2, 5, matchmaker.WithSeed(9))
		So(err, ShouldBeNil)
		b, err := matchmaker.New(pool, 2, 5, matchmaker.WithSeed(9))
		So(err, ShouldBeNil)

		Convey("Then the assignments are identical", func() {
			So(a.Matches(), ShouldResemble, b.Matches())
		})
	})
}

func TestMatchmakerReplay(t *testing.T) {
	Convey("Given a CSV replay sink", t, func() {
		var buf bytes.Buffer
		pool := skills{1, 2, 3, 4}
		mm, err := matchmaker.New(pool, 2, 1, matchmaker.WithReplaySink(matchmaker.NewCSVSink(&buf)))
		So(err, ShouldBeNil)

		Convey("When two passes are made", func() {
			mm.Matches()
			mm.Matches()

			Convey("Then every team of every pass is recorded", func() {
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(len(lines), ShouldEqual, 8)
				So(lines[0], ShouldStartWith, "0,0,0,")
				So(lines[7], ShouldStartWith, "1,1,1,")
			})
		})
	})

	Convey("Given a failing sink", t, func() {
		sink := &failingSink{}
		mm, err := matchmaker.New(skills{1, 2}, 2, 1, matchmaker.WithReplaySink(sink))
		So(err, ShouldBeNil)

		Convey("Then matches are still produced", func() {
			So(len(mm.Matches()), ShouldEqual, 1)
			So(sink.calls, ShouldEqual, 1)
		})
	})
}

func TestMatchmakerErrors(t *testing.T) {
	Convey("Given invalid arguments", t, func() {
		_, err := matchmaker.New(nil, 2, 5)
		So(errors.Is(err, matchmaker.ErrNilPool), ShouldBeTrue)

		_, err = matchmaker.New(skills{1}, 0, 5)
		So(errors.Is(err, matchmaker.ErrInvalidShape), ShouldBeTrue)

		_, err = matchmaker.New(skills{1}, 2, 0)
		So(errors.Is(err, matchmaker.ErrInvalidShape), ShouldBeTrue)
	})
}
