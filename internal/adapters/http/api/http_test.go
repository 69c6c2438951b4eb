package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/catalog/internal/adapters/http/api"
	"github.com/okian/catalog/internal/adapters/repository"
	service "github.com/okian/catalog/internal/app"
	"github.com/okian/catalog/internal/domain/model"
	"github.com/okian/catalog/internal/domain/validate"
)

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type fixture struct {
	handler  http.Handler
	packages *repository.MemoryStore[model.CreditPackage]
	skills   *repository.MemoryStore[model.Skill]
}

func newFixture(opts ...api.Option) fixture {
	packages := repository.NewMemoryStore(repository.CreditPackages())
	skills := repository.NewMemoryStore(repository.Skills())
	srv := api.NewServer(service.NewCreditPackages(packages), service.NewSkills(skills), opts...)
	return fixture{
		handler:  srv.Handler(context.Background()),
		packages: packages,
		skills:   skills,
	}
}

func (f fixture) do(method, path, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

// stubResource lets tests force errors and panics.
type stubResource[T any] struct {
	kind    model.Kind
	listErr error
	pingErr error
	panics  bool
}

func (s *stubResource[T]) Kind() model.Kind { return s.kind }
func (s *stubResource[T]) List(context.Context) ([]T, error) {
	if s.panics {
		panic("boom")
	}
	return nil, s.listErr
}

func (s *stubResource[T]) Create(context.Context, validate.Payload) (T, error) {
	var zero T
	return zero, s.listErr
}
func (s *stubResource[T]) Delete(context.Context, string) error { return s.listErr }
func (s *stubResource[T]) Ping(context.Context) error           { return s.pingErr }

func TestCreditPackageRoutes(t *testing.T) {
	Convey("Given a server over empty stores", t, func() {
		f := newFixture()

		Convey("When creating Gold", func() {
			w, env := f.do(http.MethodPost, "/api/credit-package", `{"name":"Gold","credit_amount":100,"price":500}`)

			Convey("Then it answers 200 with the created record", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(env.Status, ShouldEqual, "success")

				var pkg model.CreditPackage
				So(json.Unmarshal(env.Data, &pkg), ShouldBeNil)
				So(pkg.Name, ShouldEqual, "Gold")
				So(pkg.CreditAmount, ShouldEqual, 100)
				So(pkg.Price, ShouldEqual, 500)
				So(pkg.ID, ShouldNotBeEmpty)
				So(pkg.CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And listing returns it without createdAt", func() {
				w, env := f.do(http.MethodGet, "/api/credit-package", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(string(env.Data), ShouldNotContainSubstring, "createdAt")

				var list []model.CreditPackage
				So(json.Unmarshal(env.Data, &list), ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].Name, ShouldEqual, "Gold")
			})

			Convey("And creating Gold again answers 409", func() {
				w, env := f.do(http.MethodPost, "/api/credit-package", `{"name":"Gold","credit_amount":1,"price":1}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(env, ShouldResemble, envelope{Status: "failed", Message: "duplicate"})
				So(f.packages.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the name is empty", func() {
			w, env := f.do(http.MethodPost, "/api/credit-package", `{"name":"","credit_amount":100,"price":500}`)

			Convey("Then it answers 400 naming the invalid fields", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(env.Status, ShouldEqual, "failed")
				So(env.Message, ShouldEqual, "invalid fields: name")
				So(f.packages.Len(), ShouldEqual, 0)
			})
		})

		Convey("When several fields are invalid", func() {
			_, env := f.do(http.MethodPost, "/api/credit-package", `{"name":"Gold","credit_amount":"100","price":1.5}`)

			So(env.Message, ShouldEqual, "invalid fields: credit_amount, price")
		})

		Convey("When the body is a JSON array", func() {
			w, _ := f.do(http.MethodPost, "/api/credit-package", `[1,2]`)

			Convey("Then every field reads as missing", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			w, env := f.do(http.MethodPost, "/api/credit-package", `{"name":`)

			Convey("Then it answers 500 with the generic envelope", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(env, ShouldResemble, envelope{Status: "error", Message: "server error"})
			})
		})

		Convey("When the body is empty", func() {
			w, _ := f.do(http.MethodPost, "/api/credit-package", "")

			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestSkillRoutes(t *testing.T) {
	Convey("Given a server over empty stores", t, func() {
		f := newFixture()

		Convey("Listing skills answers an empty array", func() {
			w, env := f.do(http.MethodGet, "/api/coaches/skill", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(env.Status, ShouldEqual, "success")
			So(string(env.Data), ShouldEqual, "[]")
		})

		Convey("Deleting an unknown skill answers 400", func() {
			w, env := f.do(http.MethodDelete, "/api/coaches/skill/does-not-exist", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(env, ShouldResemble, envelope{Status: "failed", Message: "invalid id"})
		})

		Convey("Deleting with an empty id answers 400", func() {
			w, _ := f.do(http.MethodDelete, "/api/coaches/skill/", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a skill is created and deleted twice", func() {
			_, env := f.do(http.MethodPost, "/api/coaches/skill", `{"name":"Yoga"}`)
			var skill model.Skill
			So(json.Unmarshal(env.Data, &skill), ShouldBeNil)

			first, firstEnv := f.do(http.MethodDelete, "/api/coaches/skill/"+skill.ID, "")
			second, _ := f.do(http.MethodDelete, "/api/coaches/skill/"+skill.ID, "")

			Convey("Then the first answers 200 and the second 400", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(first.Body.String(), ShouldEqual, "{\"status\":\"success\"}\n")
				So(firstEnv.Status, ShouldEqual, "success")
				So(second.Code, ShouldEqual, http.StatusBadRequest)
				So(f.skills.Len(), ShouldEqual, 0)
			})
		})

		Convey("The id is the last path segment", func() {
			_, env := f.do(http.MethodPost, "/api/coaches/skill", `{"name":"Yoga"}`)
			var skill model.Skill
			So(json.Unmarshal(env.Data, &skill), ShouldBeNil)

			w, _ := f.do(http.MethodDelete, "/api/coaches/skill/extra/"+skill.ID, "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestDispatcher(t *testing.T) {
	Convey("Given a server", t, func() {
		f := newFixture()

		Convey("An unknown path answers 404", func() {
			w, env := f.do(http.MethodGet, "/unknown/path", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(env, ShouldResemble, envelope{Status: "failed", Message: "no such route"})
		})

		Convey("A method mismatch on a known path answers 404", func() {
			w, env := f.do(http.MethodPut, "/api/credit-package", `{}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(env.Message, ShouldEqual, "no such route")
		})

		Convey("OPTIONS on any path answers 200 with an empty body", func() {
			for _, path := range []string{"/api/credit-package", "/unknown/path"} {
				w, _ := f.do(http.MethodOptions, path, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.Len(), ShouldEqual, 0)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "PATCH, POST, GET,OPTIONS,DELETE")
			}
		})

		Convey("Every response carries the CORS headers", func() {
			w, _ := f.do(http.MethodGet, "/unknown/path", "")
			So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, "Content-Type, Authorization, Content-Length, X-Requested-With")
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
		})

		Convey("Bodies over the limit answer 500", func() {
			small := newFixture(api.WithMaxBodyBytes(16))
			w, _ := small.do(http.MethodPost, "/api/coaches/skill", `{"name":"a very long skill name"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(small.skills.Len(), ShouldEqual, 0)
		})

		Convey("The health endpoint answers success", func() {
			w, env := f.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(env.Status, ShouldEqual, "success")
		})

		Convey("The metrics endpoint exposes catalog metrics", func() {
			f.do(http.MethodGet, "/api/coaches/skill", "")
			w, _ := f.do(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "catalog_api_http_requests_total")
		})
	})
}

func TestFailures(t *testing.T) {
	Convey("Given resources that fail", t, func() {
		do := func(h http.Handler, method, path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
			return w
		}

		Convey("A store error answers 500 without detail", func() {
			srv := api.NewServer(
				&stubResource[model.CreditPackage]{kind: model.KindCreditPackage, listErr: errors.New("connection refused")},
				&stubResource[model.Skill]{kind: model.KindSkill},
			)
			w := do(srv.Handler(context.Background()), http.MethodGet, "/api/credit-package")

			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldNotContainSubstring, "connection refused")
			So(w.Body.String(), ShouldContainSubstring, `"server error"`)
		})

		Convey("A panicking handler answers 500", func() {
			srv := api.NewServer(
				&stubResource[model.CreditPackage]{kind: model.KindCreditPackage},
				&stubResource[model.Skill]{kind: model.KindSkill, panics: true},
			)
			w := do(srv.Handler(context.Background()), http.MethodGet, "/api/coaches/skill")

			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, `"status":"error"`)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("An unreachable store makes health answer 503", func() {
			srv := api.NewServer(
				&stubResource[model.CreditPackage]{kind: model.KindCreditPackage, pingErr: errors.New("down")},
				&stubResource[model.Skill]{kind: model.KindSkill},
			)
			w := do(srv.Handler(context.Background()), http.MethodGet, "/healthz")

			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "unhealthy")
		})
	})
}
