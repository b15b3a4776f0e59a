package simulation

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/okian/ranked/internal/domain/rating"
)

// recorder writes estimate trajectories as
// #match,pid,skill,cons,method,diff,win.
// diff is the change since the previous row of the same pid and win is 1
// when that change is positive.
type recorder struct {
	w        *csv.Writer
	method   string
	from     int
	previous map[int]float64
}

func newRecorder(w io.Writer, method string, from int) *recorder {
	if w == nil {
		return nil
	}
	return &recorder{
		w:        csv.NewWriter(w),
		method:   method,
		from:     from,
		previous: make(map[int]float64),
	}
}

func (r *recorder) header() error {
	if r == nil {
		return nil
	}
	return r.w.Write([]string{"#match", "pid", "skill", "cons", "method", "diff", "win"})
}

func (r *recorder) save(match int, pool []rating.Subject) error {
	if r == nil {
		return nil
	}
	for pid, p := range pool {
		if pid < r.from {
			continue
		}
		skill := p.Skill()
		diff, win := 0.0, 0
		if prev, ok := r.previous[pid]; ok {
			diff = skill - prev
			if diff > 0 {
				win = 1
			}
		}
		r.previous[pid] = skill

		row := []string{
			strconv.Itoa(match),
			strconv.Itoa(pid),
			formatFloat(skill),
			formatFloat(p.Consistency()),
			r.method,
			formatFloat(diff),
			strconv.Itoa(win),
		}
		if err := r.w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (r *recorder) flush() error {
	if r == nil {
		return nil
	}
	r.w.Flush()
	return r.w.Error()
}
