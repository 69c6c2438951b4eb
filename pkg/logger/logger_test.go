package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, "text"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging at info level", func() {
			Get().Info(ctx, "package created", String("name", "Gold"), Int("credit_amount", 100))

			Convey("Then the record carries message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "package created")
				So(out, ShouldContainSubstring, "name=Gold")
				So(out, ShouldContainSubstring, "credit_amount=100")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When debug is below the configured level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(ctx, "visible")

			Convey("Then debug records are written", func() {
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When using a named logger with bound fields", func() {
			Named("api").Named("skill").With(String("request_id", "r-1")).Error(ctx, "boom", Error(errors.New("store down")))

			Convey("Then component and bound fields appear", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=api.skill")
				So(out, ShouldContainSubstring, "request_id=r-1")
				So(out, ShouldContainSubstring, "store down")
			})
		})

		Convey("When using the json format", func() {
			buf.Reset()
			So(InitWithWriter(&buf, "json"), ShouldBeNil)
			Get().Warn(ctx, "slow query", Int64("elapsed_ms", 1200))

			Convey("Then records are JSON objects", func() {
				So(buf.String(), ShouldContainSubstring, `"msg":"slow query"`)
				So(buf.String(), ShouldContainSubstring, `"elapsed_ms":1200`)
			})
		})
	})
}

func TestInitWithWriterErrors(t *testing.T) {
	Convey("Given invalid init arguments", t, func() {
		So(InitWithWriter(nil, "text"), ShouldNotBeNil)
		So(InitWithWriter(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " Info "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()
		So(func() {
			l.Info(context.Background(), "ignored")
			l.Named("x").With(Any("k", 1)).Error(context.Background(), "ignored")
		}, ShouldNotPanic)
	})
}
