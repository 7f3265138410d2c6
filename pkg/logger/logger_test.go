package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized for stdout", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized with a nil writer", func() {
			err := InitWithWriter(nil, false)

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, false), ShouldBeNil)
		defer func() { _ = InitWithWriter(io.Discard, false) }()

		Convey("When a named logger writes a record", func() {
			Named("sandbox").Info(context.Background(), "run finished",
				String("run", "r-1"),
				Int("games", 4),
				Bool("stale", false),
			)
			out := buf.String()

			Convey("Then the component and fields are present", func() {
				So(out, ShouldContainSubstring, "component=sandbox")
				So(out, ShouldContainSubstring, "run=r-1")
				So(out, ShouldContainSubstring, "games=4")
				So(out, ShouldContainSubstring, "stale=false")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When debug is logged at info level", func() {
			Get().Debug(context.Background(), "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestLoggerJSONHandler(t *testing.T) {
	Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, true), ShouldBeNil)
		defer func() { _ = InitWithWriter(io.Discard, false) }()

		Get().Warn(context.Background(), "coordinator closed", String("status", "disconnected"))

		So(strings.HasPrefix(buf.String(), "{"), ShouldBeTrue)
		So(buf.String(), ShouldContainSubstring, `"status":"disconnected"`)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(InitWithWriter(io.Discard, false), ShouldBeNil)

		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(levelVar.Level(), ShouldEqual, slog.LevelDebug)

		So(SetLevelString("warning"), ShouldBeNil)
		So(levelVar.Level(), ShouldEqual, slog.LevelWarn)

		So(SetLevelString(""), ShouldBeNil)
		So(levelVar.Level(), ShouldEqual, slog.LevelInfo)

		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}
