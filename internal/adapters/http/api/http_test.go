package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/lyrics/internal/adapters/http/api"
	"github.com/okian/lyrics/internal/adapters/modelstore"
	service "github.com/okian/lyrics/internal/app"
	"github.com/okian/lyrics/internal/domain/corpus"
	"github.com/okian/lyrics/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockService struct {
	stats      map[string]float64
	classifyEr error
	predictEr  error
	statsEr    error
	lastLyrics string
}

func (m *mockService) Classify(context.Context) (map[string]float64, error) {
	if m.classifyEr != nil {
		return nil, m.classifyEr
	}
	return m.stats, nil
}

func (m *mockService) Predict(_ context.Context, lyrics string) (model.GenrePrediction, error) {
	m.lastLyrics = lyrics
	if m.predictEr != nil {
		return model.GenrePrediction{}, m.predictEr
	}
	if lyrics == "" {
		return model.GenrePrediction{Genre: "Unknown"}, nil
	}
	return model.GenrePrediction{
		Genre:         "Pop",
		Probabilities: []model.Probability{{Genre: "Pop", Value: 0.75}, {Genre: "Country", Value: 0.25}},
	}, nil
}

func (m *mockService) Stats(context.Context) (map[string]float64, error) {
	if m.statsEr != nil {
		return nil, m.statsEr
	}
	return m.stats, nil
}

func (m *mockService) Info() map[string]any { return map[string]any{"classifier": "naive_bayes"} }

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestPredict(t *testing.T) {
	Convey("Given a server over a trained service", t, func() {
		deps := &mockService{stats: map[string]float64{model.StatBestModelMetrics: 0.9}}
		mux := newMux(deps)

		Convey("When posting lyrics", func() {
			w := do(mux, http.MethodPost, "/lyrics/predict", `{"lyrics":"baby dance\nall night long"}`)

			Convey("Then the prediction comes back with probabilities", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				var got model.GenrePrediction
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Genre, ShouldEqual, "Pop")
				So(got.Probabilities, ShouldHaveLength, 2)
				So(deps.lastLyrics, ShouldEqual, "baby dance\nall night long")
			})
		})

		Convey("When posting empty lyrics", func() {
			w := do(mux, http.MethodPost, "/lyrics/predict", `{"lyrics":""}`)

			Convey("Then the genre is Unknown and probabilities are omitted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"genre":"Unknown"}`)
			})
		})

		Convey("When the body is malformed or has no lyrics field", func() {
			for _, body := range []string{`{`, `{}`, `[]`} {
				w := do(mux, http.MethodPost, "/lyrics/predict", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			}
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/lyrics/predict", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given upstream failures", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("%w: data/model", modelstore.ErrModelNotFound), http.StatusNotFound, "model_not_found"},
			{service.ErrTrainingInProgress, http.StatusConflict, "training_in_progress"},
			{fmt.Errorf("%w: Blues", corpus.ErrGenreNotFound), http.StatusInternalServerError, "corpus_unavailable"},
			{fmt.Errorf("%w: bad stage", modelstore.ErrCorruptModel), http.StatusInternalServerError, "corrupt_model"},
			{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
		}
		for _, c := range cases {
			mux := newMux(&mockService{classifyEr: c.err, predictEr: c.err})

			w := do(mux, http.MethodPost, "/lyrics/train", "")
			So(w.Code, ShouldEqual, c.status)
			So(w.Body.String(), ShouldContainSubstring, `"code":"`+c.code+`"`)

			w = do(mux, http.MethodPost, "/lyrics/predict", `{"lyrics":"a b"}`)
			So(w.Code, ShouldEqual, c.status)
		}
	})
}

func TestTrainAndStats(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockService{stats: map[string]float64{model.StatBestModelMetrics: 0.875}}
		mux := newMux(deps)

		Convey("When training", func() {
			w := do(mux, http.MethodPost, "/lyrics/train", "")

			Convey("Then the statistics are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]float64
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got[model.StatBestModelMetrics], ShouldEqual, 0.875)
			})
		})

		Convey("When reading stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then service info and model statistics are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"classifier":"naive_bayes"`)
				So(w.Body.String(), ShouldContainSubstring, `"Best model metrics":0.875`)
			})
		})

		Convey("When no model has been trained", func() {
			deps.statsEr = modelstore.ErrModelNotFound
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the model section is omitted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldNotContainSubstring, `"model"`)
			})
		})

		Convey("When probing health and metrics", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "lyrics_classifier_http_requests_total")
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given kind errors", t, func() {
		cause := errors.New("unexpected EOF")
		wrapped := api.WrapKind("api.predict", api.ErrBadRequest, cause)
		bare := api.NewKind("api.predict", api.ErrBadRequest)

		So(errors.Is(wrapped, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(wrapped, cause), ShouldBeTrue)
		So(wrapped.Error(), ShouldEqual, "api.predict: bad request: unexpected EOF")
		So(errors.Is(bare, api.ErrBadRequest), ShouldBeTrue)
		So(bare.Error(), ShouldEqual, "api.predict: bad request")
	})
}
