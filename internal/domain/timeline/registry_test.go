package timeline_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/fileseries/internal/domain/timeinfo"
	"github.com/okian/fileseries/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

func steps(v ...float64) []float64 { return v }

// twoInputs registers input0 [0,1] {0,0.5,1} and input1 [2,3] {2,2.5,3}.
func twoInputs(ctx context.Context, opts ...timeline.Option) *timeline.Registry {
	r := timeline.NewRegistry(opts...)
	So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(0, 1), Steps: steps(0, 0.5, 1)}), ShouldBeNil)
	So(r.AddTimeRange(ctx, 1, timeinfo.Info{Range: timeinfo.NewRange(2, 3), Steps: steps(2, 2.5, 3)}), ShouldBeNil)
	return r
}

func TestRegistry_AddTimeRange(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		ctx := context.Background()
		r := timeline.NewRegistry()

		Convey("When an input reports steps and a range", func() {
			err := r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(-1, 5), Steps: steps(0, 1)})

			Convey("Then both are stored verbatim", func() {
				So(err, ShouldBeNil)
				info, ok := r.InputTimeInfo(0)
				So(ok, ShouldBeTrue)
				So(*info.Range, ShouldResemble, timeinfo.Range{Start: -1, End: 5})
				So(info.Steps, ShouldResemble, steps(0, 1))
			})
		})

		Convey("When an input reports only steps", func() {
			err := r.AddTimeRange(ctx, 0, timeinfo.Info{Steps: steps(1, 2, 4)})

			Convey("Then the range is derived from the first and last step", func() {
				So(err, ShouldBeNil)
				info, _ := r.InputTimeInfo(0)
				So(*info.Range, ShouldResemble, timeinfo.Range{Start: 1, End: 4})
			})
		})

		Convey("When an input reports only a range", func() {
			err := r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(1, 2)})

			Convey("Then no steps are stored", func() {
				So(err, ShouldBeNil)
				info, _ := r.InputTimeInfo(0)
				So(info.HasSteps(), ShouldBeFalse)
			})
		})

		Convey("When an input reports nothing", func() {
			err := r.AddTimeRange(ctx, 3, timeinfo.Info{})

			Convey("Then it is skipped with a missing time info error", func() {
				So(errors.Is(err, timeline.ErrMissingTimeInfo), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "3")
				So(r.Len(), ShouldEqual, 0)
				_, ok := r.InputTimeInfo(3)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When an input reports empty non-nil steps and no range", func() {
			err := r.AddTimeRange(ctx, 0, timeinfo.Info{Steps: []float64{}})

			Convey("Then it counts as missing time info", func() {
				So(errors.Is(err, timeline.ErrMissingTimeInfo), ShouldBeTrue)
			})
		})

		Convey("When an input reports an inverted range", func() {
			err := r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(3, 1)})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, timeline.ErrInvalidTimeInfo), ShouldBeTrue)
				So(errors.Is(err, timeinfo.ErrInvalidRange), ShouldBeTrue)
				So(r.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the index is negative", func() {
			err := r.AddTimeRange(ctx, -1, timeinfo.Info{Range: timeinfo.NewRange(0, 1)})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, timeline.ErrInvalidIndex), ShouldBeTrue)
			})
		})

		Convey("When the caller mutates the reported slice afterwards", func() {
			reported := steps(0, 1, 2)
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Steps: reported}), ShouldBeNil)
			reported[0] = 100

			Convey("Then the registry keeps its own copy", func() {
				info, _ := r.InputTimeInfo(0)
				So(info.Steps[0], ShouldEqual, 0)
			})
		})

		Convey("When the same index is registered twice with different starts", func() {
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(0, 1)}), ShouldBeNil)
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(5, 6)}), ShouldBeNil)

			Convey("Then the old start leaves the ordered view", func() {
				So(r.Len(), ShouldEqual, 1)
				So(r.IndexForTime(0.5), ShouldEqual, 0)
				info, _ := r.InputTimeInfo(0)
				So(info.Range.Start, ShouldEqual, 5)
			})
		})

		Convey("When Reset is called after registrations", func() {
			r := twoInputs(ctx)
			r.Reset()

			Convey("Then nothing survives", func() {
				So(r.Len(), ShouldEqual, 0)
				_, ok := r.InputTimeInfo(0)
				So(ok, ShouldBeFalse)
				_, err := r.AggregateTimeInfo()
				So(errors.Is(err, timeline.ErrNoTimeInfo), ShouldBeTrue)
			})
		})
	})
}

func TestRegistry_DuplicateStart(t *testing.T) {
	Convey("Given two inputs that start at the same time", t, func() {
		ctx := context.Background()
		first := timeinfo.Info{Range: timeinfo.NewRange(0, 1), Steps: steps(0, 1)}
		second := timeinfo.Info{Range: timeinfo.NewRange(0, 2), Steps: steps(0, 2)}

		Convey("When the default reject policy is in effect", func() {
			r := timeline.NewRegistry()
			So(r.Policy(), ShouldEqual, timeline.DuplicateStartReject)
			So(r.AddTimeRange(ctx, 0, first), ShouldBeNil)
			err := r.AddTimeRange(ctx, 1, second)

			Convey("Then the later registration is refused", func() {
				So(errors.Is(err, timeline.ErrDuplicateStart), ShouldBeTrue)
				So(r.Indices(), ShouldResemble, []int{0})
				_, ok := r.InputTimeInfo(1)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the replace policy is in effect", func() {
			r := timeline.NewRegistry(timeline.WithDuplicateStartPolicy(timeline.DuplicateStartReplace))
			So(r.AddTimeRange(ctx, 0, first), ShouldBeNil)
			So(r.AddTimeRange(ctx, 1, second), ShouldBeNil)

			Convey("Then the later input takes over the ordered view", func() {
				So(r.Indices(), ShouldResemble, []int{1})
				So(r.IndexForTime(0.5), ShouldEqual, 1)
				_, ok := r.InputTimeInfo(0)
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given policy names", t, func() {
		Convey("Then known names parse", func() {
			p, err := timeline.ParseDuplicateStartPolicy("Replace")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, timeline.DuplicateStartReplace)

			p, err = timeline.ParseDuplicateStartPolicy("")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, timeline.DuplicateStartReject)
		})

		Convey("Then unknown names fail", func() {
			_, err := timeline.ParseDuplicateStartPolicy("merge")
			So(errors.Is(err, timeline.ErrUnknownPolicy), ShouldBeTrue)
		})
	})
}

func TestRegistry_AggregateTimeInfo(t *testing.T) {
	Convey("Given the aggregator", t, func() {
		ctx := context.Background()

		Convey("When no input is registered", func() {
			_, err := timeline.NewRegistry().AggregateTimeInfo()

			Convey("Then it reports no time information", func() {
				So(errors.Is(err, timeline.ErrNoTimeInfo), ShouldBeTrue)
			})
		})

		Convey("When a single input has steps [0,1,2] and range [0,2]", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(0, 2), Steps: steps(0, 1, 2)}), ShouldBeNil)
			agg, err := r.AggregateTimeInfo()

			Convey("Then the aggregate equals the input", func() {
				So(err, ShouldBeNil)
				So(*agg.Range, ShouldResemble, timeinfo.Range{Start: 0, End: 2})
				So(agg.Steps, ShouldResemble, steps(0, 1, 2))
			})
		})

		Convey("When two disjoint inputs are registered", func() {
			r := twoInputs(ctx)
			agg, err := r.AggregateTimeInfo()

			Convey("Then ranges and steps concatenate in order", func() {
				So(err, ShouldBeNil)
				So(*agg.Range, ShouldResemble, timeinfo.Range{Start: 0, End: 3})
				So(agg.Steps, ShouldResemble, steps(0, 0.5, 1, 2, 2.5, 3))
			})
		})

		Convey("When inputs are registered out of time order", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Steps: steps(10, 11)}), ShouldBeNil)
			So(r.AddTimeRange(ctx, 1, timeinfo.Info{Steps: steps(0, 1)}), ShouldBeNil)
			agg, err := r.AggregateTimeInfo()

			Convey("Then the aggregate follows start order, not index order", func() {
				So(err, ShouldBeNil)
				So(*agg.Range, ShouldResemble, timeinfo.Range{Start: 0, End: 11})
				So(agg.Steps, ShouldResemble, steps(0, 1, 10, 11))
				So(r.Indices(), ShouldResemble, []int{1, 0})
			})
		})

		Convey("When two inputs touch at a boundary value", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Steps: steps(0, 1, 2)}), ShouldBeNil)
			So(r.AddTimeRange(ctx, 1, timeinfo.Info{Steps: steps(2, 3, 4)}), ShouldBeNil)
			agg, _ := r.AggregateTimeInfo()

			Convey("Then the boundary belongs to the later input and appears once", func() {
				So(agg.Steps, ShouldResemble, steps(0, 1, 2, 3, 4))
			})
		})

		Convey("When two inputs overlap", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Steps: steps(0, 1, 2, 3)}), ShouldBeNil)
			So(r.AddTimeRange(ctx, 1, timeinfo.Info{Steps: steps(1.5, 2.5, 3.5)}), ShouldBeNil)
			agg, _ := r.AggregateTimeInfo()

			Convey("Then the earlier input is cut at the later start", func() {
				So(agg.Steps, ShouldResemble, steps(0, 1, 1.5, 2.5, 3.5))
				So(*agg.Range, ShouldResemble, timeinfo.Range{Start: 0, End: 3.5})
			})
		})

		Convey("When the only input is a single point [3,3]", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(3, 3)}), ShouldBeNil)
			agg, err := r.AggregateTimeInfo()

			Convey("Then neither range nor steps are reported", func() {
				So(err, ShouldBeNil)
				So(agg.Empty(), ShouldBeTrue)
			})
		})

		Convey("When the last input ends before the first starts advancing", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(5, 10)}), ShouldBeNil)
			So(r.AddTimeRange(ctx, 1, timeinfo.Info{Range: timeinfo.NewRange(6, 4.5)}), ShouldNotBeNil)
			So(r.AddTimeRange(ctx, 2, timeinfo.Info{Range: timeinfo.NewRange(7, 7)}), ShouldBeNil)
			agg, err := r.AggregateTimeInfo()

			Convey("Then the global range is first start to last end", func() {
				So(err, ShouldBeNil)
				So(*agg.Range, ShouldResemble, timeinfo.Range{Start: 5, End: 7})
			})
		})

		Convey("When inputs report only ranges", func() {
			r := timeline.NewRegistry()
			So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(0, 1)}), ShouldBeNil)
			So(r.AddTimeRange(ctx, 1, timeinfo.Info{Range: timeinfo.NewRange(1, 2)}), ShouldBeNil)
			agg, err := r.AggregateTimeInfo()

			Convey("Then the aggregate is a continuous range without steps", func() {
				So(err, ShouldBeNil)
				So(*agg.Range, ShouldResemble, timeinfo.Range{Start: 0, End: 2})
				So(agg.HasSteps(), ShouldBeFalse)
			})
		})
	})
}

func TestRegistry_Resolution(t *testing.T) {
	Convey("Given two inputs [0,1] and [2,3]", t, func() {
		ctx := context.Background()
		r := twoInputs(ctx)

		Convey("Then times resolve to their owning input", func() {
			So(r.IndexForTime(1.5), ShouldEqual, 0)
			So(r.IndexForTime(2.0), ShouldEqual, 1)
			So(r.IndexForTime(-5), ShouldEqual, 0)
			So(r.IndexForTime(0), ShouldEqual, 0)
			So(r.IndexForTime(1e9), ShouldEqual, 1)
			So(r.IndexForTime(math.Inf(-1)), ShouldEqual, 0)
		})

		Convey("Then ChooseInputs collects distinct owners", func() {
			So(r.ChooseInputs([]float64{0.5, 2.5}), ShouldResemble, []int{0, 1})
			So(r.ChooseInputs([]float64{0.5}), ShouldResemble, []int{0})
			So(r.ChooseInputs([]float64{2.5, 0.1, 2.9}), ShouldResemble, []int{0, 1})
			So(r.ChooseInputs(nil), ShouldResemble, []int{0})
		})

		Convey("Then TimesForInput windows and clamps", func() {
			So(r.TimesForInput(0, []float64{0, 0.9, 1.9}), ShouldResemble, []float64{0, 0.9, 1.0})
			So(r.TimesForInput(1, []float64{0, 0.9, 1.9}), ShouldResemble, []float64{})
			So(r.TimesForInput(1, []float64{2, 7}), ShouldResemble, []float64{2, 3})
			So(r.TimesForInput(0, []float64{-4}), ShouldResemble, []float64{0})
			So(r.TimesForInput(9, []float64{0}), ShouldBeNil)
		})
	})

	Convey("Given an empty registry", t, func() {
		r := timeline.NewRegistry()

		Convey("Then every time resolves to 0", func() {
			So(r.IndexForTime(12), ShouldEqual, 0)
			So(r.ChooseInputs([]float64{1, 2}), ShouldResemble, []int{0})
		})
	})

	Convey("Given three inputs registered in reverse order", t, func() {
		ctx := context.Background()
		r := timeline.NewRegistry(timeline.WithSeed(99))
		So(r.AddTimeRange(ctx, 2, timeinfo.Info{Range: timeinfo.NewRange(20, 30)}), ShouldBeNil)
		So(r.AddTimeRange(ctx, 1, timeinfo.Info{Range: timeinfo.NewRange(10, 20)}), ShouldBeNil)
		So(r.AddTimeRange(ctx, 0, timeinfo.Info{Range: timeinfo.NewRange(0, 10)}), ShouldBeNil)

		Convey("Then the middle input owns [10, 20)", func() {
			So(r.IndexForTime(10), ShouldEqual, 1)
			So(r.IndexForTime(19.999), ShouldEqual, 1)
			So(r.IndexForTime(20), ShouldEqual, 2)
			So(r.TimesForInput(1, []float64{5, 10, 15, 20}), ShouldResemble, []float64{10, 15})
			So(r.TimesForInput(2, []float64{25, 40}), ShouldResemble, []float64{25, 30})
		})
	})
}
