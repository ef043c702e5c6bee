package evaluation_test

import (
	"errors"
	"testing"

	"github.com/okian/lyrics/internal/domain/evaluation"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/pipeline"
	. "github.com/smartystreets/goconvey/convey"
)

func rows(pairs ...[2]float64) []pipeline.Document {
	out := make([]pipeline.Document, len(pairs))
	for i, p := range pairs {
		out[i] = pipeline.Document{Record: model.Record{Label: p[0]}, Prediction: p[1]}
	}
	return out
}

func TestMulticlass(t *testing.T) {
	Convey("Given predictions with one mistake", t, func() {
		// labels 0,0,1,1 predicted 0,1,1,1
		data := rows([2]float64{0, 0}, [2]float64{0, 1}, [2]float64{1, 1}, [2]float64{1, 1})

		Convey("When evaluating accuracy", func() {
			ev, err := evaluation.NewMulticlass(evaluation.WithMetric("Accuracy"))
			So(err, ShouldBeNil)
			v, err := ev.Evaluate(data)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.75)
			So(ev.MetricName(), ShouldEqual, evaluation.MetricAccuracy)
		})

		Convey("When evaluating weighted F1", func() {
			ev, err := evaluation.NewMulticlass()
			So(err, ShouldBeNil)
			v, err := ev.Evaluate(data)
			So(err, ShouldBeNil)
			// class 0: p=1 r=0.5 f1=2/3; class 1: p=2/3 r=1 f1=0.8; weights 0.5 each
			So(v, ShouldAlmostEqual, 0.5*(2.0/3.0)+0.5*0.8, 1e-12)
			So(ev.IsLargerBetter(), ShouldBeTrue)
		})

		Convey("When evaluating weighted precision and recall", func() {
			p, _ := evaluation.NewMulticlass(evaluation.WithMetric(evaluation.MetricWeightedPrecision))
			r, _ := evaluation.NewMulticlass(evaluation.WithMetric(evaluation.MetricWeightedRecall))
			pv, _ := p.Evaluate(data)
			rv, _ := r.Evaluate(data)
			So(pv, ShouldAlmostEqual, 0.5*1+0.5*(2.0/3.0), 1e-12)
			So(rv, ShouldAlmostEqual, 0.75, 1e-12)
		})
	})

	Convey("Given perfect predictions", t, func() {
		ev, _ := evaluation.NewMulticlass()
		v, err := ev.Evaluate(rows([2]float64{0, 0}, [2]float64{2, 2}))
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 1)
	})

	Convey("Given predictions of a class absent from the labels", t, func() {
		ev, _ := evaluation.NewMulticlass()
		v, err := ev.Evaluate(rows([2]float64{0, 3}))
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0)
	})

	Convey("Given bad input", t, func() {
		_, err := evaluation.NewMulticlass(evaluation.WithMetric("auc"))
		So(errors.Is(err, evaluation.ErrUnknownMetric), ShouldBeTrue)

		ev, _ := evaluation.NewMulticlass()
		_, err = ev.Evaluate(nil)
		So(errors.Is(err, evaluation.ErrNoRows), ShouldBeTrue)
	})
}
