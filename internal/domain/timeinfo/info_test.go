package timeinfo_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/fileseries/internal/domain/timeinfo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRange(t *testing.T) {
	Convey("Given the range [1, 3]", t, func() {
		r := timeinfo.Range{Start: 1, End: 3}

		Convey("Then bounds are inclusive", func() {
			So(r.Contains(1), ShouldBeTrue)
			So(r.Contains(3), ShouldBeTrue)
			So(r.Contains(3.0001), ShouldBeFalse)
			So(r.Contains(0.9999), ShouldBeFalse)
		})

		Convey("Then values clamp into the interval", func() {
			So(r.Clamp(-5), ShouldEqual, 1)
			So(r.Clamp(2.5), ShouldEqual, 2.5)
			So(r.Clamp(9), ShouldEqual, 3)
		})
	})
}

func TestInfo(t *testing.T) {
	Convey("Given an empty info", t, func() {
		var info timeinfo.Info

		Convey("Then it reports nothing", func() {
			So(info.Empty(), ShouldBeTrue)
			So(info.HasRange(), ShouldBeFalse)
			So(info.HasSteps(), ShouldBeFalse)
			So(info.Temporal(), ShouldBeFalse)
		})
	})

	Convey("Given a single point range", t, func() {
		info := timeinfo.Info{Range: timeinfo.NewRange(3, 3)}

		Convey("Then it is not temporal", func() {
			So(info.Empty(), ShouldBeFalse)
			So(info.Temporal(), ShouldBeFalse)
		})
	})

	Convey("Given an info with range and steps", t, func() {
		info := timeinfo.Info{Range: timeinfo.NewRange(0, 2), Steps: []float64{0, 1, 2}}

		Convey("When cloning and mutating the clone", func() {
			clone := info.Clone()
			clone.Range.End = 99
			clone.Steps[0] = -1

			Convey("Then the original is untouched", func() {
				So(info.Range.End, ShouldEqual, 2)
				So(info.Steps, ShouldResemble, []float64{0, 1, 2})
				So(info.Temporal(), ShouldBeTrue)
			})
		})

		Convey("When cloning an info with empty non-nil steps", func() {
			clone := timeinfo.Info{Steps: []float64{}}.Clone()

			Convey("Then it still reports no time", func() {
				So(clone.HasSteps(), ShouldBeFalse)
				So(clone.Empty(), ShouldBeTrue)
				So(len(clone.Steps), ShouldEqual, 0)
			})
		})
	})

	Convey("Given malformed infos", t, func() {
		Convey("Then NaN bounds are rejected", func() {
			err := timeinfo.Info{Range: timeinfo.NewRange(math.NaN(), 1)}.Validate()
			So(errors.Is(err, timeinfo.ErrInvalidRange), ShouldBeTrue)
		})

		Convey("Then inverted ranges are rejected", func() {
			err := timeinfo.Info{Range: timeinfo.NewRange(2, 1)}.Validate()
			So(errors.Is(err, timeinfo.ErrInvalidRange), ShouldBeTrue)
		})

		Convey("Then NaN steps are rejected", func() {
			err := timeinfo.Info{Steps: []float64{0, math.NaN()}}.Validate()
			So(errors.Is(err, timeinfo.ErrInvalidSteps), ShouldBeTrue)
		})

		Convey("Then well-formed info passes", func() {
			So(timeinfo.Info{Range: timeinfo.NewRange(0, 0), Steps: []float64{0}}.Validate(), ShouldBeNil)
		})
	})
}
