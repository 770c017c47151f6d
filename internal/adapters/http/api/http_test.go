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
	"time"

	"github.com/okian/toolscout/internal/adapters/http/api"
	"github.com/okian/toolscout/internal/adapters/repository"
	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	quizErr    error
	gotEmail   string
	relatedErr error
	clickErr   error
	duplicate  bool
	gotClick   struct {
		eventID, entityID string
		at                time.Time
	}
	gotRange  types.Range
	statsErr  error
	globalErr error
}

func (m *mockDeps) Recommend(_ context.Context, a model.QuizAnswers, email string) (model.QuizResult, error) {
	if m.quizErr != nil {
		return model.QuizResult{}, m.quizErr
	}
	if err := a.Validate(); err != nil {
		return model.QuizResult{}, err
	}
	m.gotEmail = email
	return model.QuizResult{Recommendations: []model.Recommendation{{Slug: "b", Name: "Beta", Reason: "r", Match: 90}}}, nil
}

func (m *mockDeps) Related(_ context.Context, slug string) ([]model.RelatedPost, error) {
	if m.relatedErr != nil {
		return nil, m.relatedErr
	}
	if slug == "missing" {
		return nil, fmt.Errorf("post %q: %w", slug, repository.ErrNotFound)
	}
	return []model.RelatedPost{{Post: model.Post{Slug: "other"}, Score: 4}}, nil
}

func (m *mockDeps) RecordClick(_ context.Context, eventID, entityID string, at time.Time) (model.ClickAck, error) {
	if m.clickErr != nil {
		return model.ClickAck{}, m.clickErr
	}
	m.gotClick.eventID, m.gotClick.entityID, m.gotClick.at = eventID, entityID, at
	if eventID == "" {
		eventID = "generated"
	}
	return model.ClickAck{EventID: eventID, Duplicate: m.duplicate}, nil
}

func (m *mockDeps) ClickStats(_ context.Context, rng types.Range) (model.ClickReport, error) {
	if m.statsErr != nil {
		return model.ClickReport{}, m.statsErr
	}
	m.gotRange = rng
	stats := []model.EntityStats{{EntityID: "t1", Stats: model.StatsBucket{Total: 3, Last7Days: 3, ThisMonth: 5}}}
	return model.ClickReport{Range: rng.String(), Entities: stats, Summary: model.DashboardSummary{TotalClicks: 3, ActiveEntities: 1, TopEntity: "t1", Average: 3, AverageText: "3.0"}}, nil
}

func (m *mockDeps) GlobalClicks(context.Context) (model.GlobalCounts, error) {
	if m.globalErr != nil {
		return model.GlobalCounts{}, m.globalErr
	}
	return model.GlobalCounts{Total: 9, Last7Days: 2, ThisMonth: 4}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} { return m.stats }

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

const validQuiz = `{"goal":"content","team_size":"solo","budget":"free","experience":"beginner","use_case":"seo","priority":"seo","email":"me@example.com"}`

func TestServer_Routes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		h := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Handler()

		Convey("The health endpoint serves Prometheus metrics", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "toolscout_")
		})

		Convey("The stats endpoint returns service stats", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Unknown methods are refused", func() {
			w := do(h, http.MethodGet, "/quiz", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestQuizHandler(t *testing.T) {
	Convey("Given the quiz endpoint", t, func() {
		deps := &mockDeps{}
		h := api.NewServer(deps, &mockStatsProvider{}).Handler()

		Convey("When complete answers are posted", func() {
			w := do(h, http.MethodPost, "/quiz", validQuiz)

			Convey("Then recommendations are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res model.QuizResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Recommendations, ShouldHaveLength, 1)
				So(res.Recommendations[0].Match, ShouldEqual, 90)
				So(deps.gotEmail, ShouldEqual, "me@example.com")
			})
		})

		Convey("When an answer is missing", func() {
			w := do(h, http.MethodPost, "/quiz", `{"goal":"content"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/quiz", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the catalog cannot be loaded", func() {
			deps.quizErr = errors.New("disk on fire")
			w := do(h, http.MethodPost, "/quiz", validQuiz)

			Convey("Then a generic 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(errorCode(w), ShouldEqual, "internal_error")
				So(w.Body.String(), ShouldNotContainSubstring, "disk on fire")
			})
		})
	})
}

func TestRelatedHandler(t *testing.T) {
	Convey("Given the related endpoint", t, func() {
		deps := &mockDeps{}
		h := api.NewServer(deps, &mockStatsProvider{}).Handler()

		Convey("When the slug exists", func() {
			w := do(h, http.MethodGet, "/related/intro", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"slug":"intro"`)
			So(w.Body.String(), ShouldContainSubstring, `"relevance_score":4`)
		})

		Convey("When the slug is unknown", func() {
			w := do(h, http.MethodGet, "/related/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})
	})
}

func TestClicksHandler(t *testing.T) {
	Convey("Given the clicks endpoints", t, func() {
		deps := &mockDeps{}
		h := api.NewServer(deps, &mockStatsProvider{}).Handler()

		Convey("When a click is posted", func() {
			w := do(h, http.MethodPost, "/clicks", `{"event_id":"e1","entity_id":"t1","occurred_at":"2025-03-20T10:00:00Z"}`)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
				So(deps.gotClick.entityID, ShouldEqual, "t1")
				So(deps.gotClick.at.Equal(time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the click was already seen", func() {
			deps.duplicate = true
			w := do(h, http.MethodPost, "/clicks", `{"event_id":"e1","entity_id":"t1"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("When the click has no timestamp or id", func() {
			w := do(h, http.MethodPost, "/clicks", `{"entity_id":"t1"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.gotClick.at.IsZero(), ShouldBeTrue)
			So(w.Body.String(), ShouldContainSubstring, `"event_id":"generated"`)
		})

		Convey("When the click is malformed", func() {
			So(do(h, http.MethodPost, "/clicks", `{"event_id":"e1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/clicks", `{"entity_id":"t1","occurred_at":"yesterday"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.clickErr = model.ErrBackpressure
			w := do(h, http.MethodPost, "/clicks", `{"entity_id":"t1"}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})

		Convey("When ingestion is not running", func() {
			deps.clickErr = model.ErrNotStarted
			w := do(h, http.MethodPost, "/clicks", `{"entity_id":"t1"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When stats are requested with a range", func() {
			w := do(h, http.MethodGet, "/clicks/stats?range=7D", "")

			Convey("Then the range is parsed and the report returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotRange, ShouldEqual, types.Range7d)
				So(w.Body.String(), ShouldContainSubstring, `"last_7_days":3`)
				So(w.Body.String(), ShouldContainSubstring, `"this_month":5`)
			})
		})

		Convey("When stats are requested without a range", func() {
			w := do(h, http.MethodGet, "/clicks/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotRange, ShouldEqual, types.RangeAll)
		})

		Convey("When the range is unknown", func() {
			w := do(h, http.MethodGet, "/clicks/stats?range=year", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When global counters are requested", func() {
			w := do(h, http.MethodGet, "/clicks/global", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var g model.GlobalCounts
			So(json.Unmarshal(w.Body.Bytes(), &g), ShouldBeNil)
			So(g.Total, ShouldEqual, 9)
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("op", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause are visible", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: boom")
		})

		Convey("And nil causes stay nil", func() {
			So(api.WrapKind("op", api.ErrBadRequest, nil), ShouldBeNil)
			So(api.Wrap("op", nil), ShouldBeNil)
			So(api.NewKind("op", api.ErrNotFound).Error(), ShouldEqual, "op: not found")
		})
	})
}
