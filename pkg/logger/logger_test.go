package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named return usable loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing JSON into a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf), WithJSON(true)), ShouldBeNil)
		ctx := context.Background()

		Convey("When an info entry with fields is written", func() {
			Named("engine").Info(ctx, "rated",
				String("ranker", "glicko2"),
				Int("matches", 3),
				Float64("rating", 1464.05),
				Bool("batch", true),
				Duration("took", time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then the entry carries every field and the caller", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "rated")
				So(entry["component"], ShouldEqual, "engine")
				So(entry["ranker"], ShouldEqual, "glicko2")
				So(entry["matches"], ShouldEqual, 3.0)
				So(entry["batch"], ShouldEqual, true)
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("WARN"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only the warning is written", func() {
				out := buf.String()
				So(strings.Contains(out, "hidden"), ShouldBeFalse)
				So(out, ShouldContainSubstring, "shown")
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("loud")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop logger", t, func() {
		l := Nop()

		Convey("Then it accepts entries and names without output", func() {
			ctx := context.Background()
			So(func() {
				l.Info(ctx, "x")
				l.Debug(ctx, "x")
				l.Warn(ctx, "x")
				l.Error(ctx, "x")
			}, ShouldNotPanic)
			So(l.Named("a"), ShouldEqual, l)
		})
	})
}
