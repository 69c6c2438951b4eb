// Package smoke exercises a running catalog server over HTTP and reports
// which parts of the public contract hold.
package smoke

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/catalog/pkg/logger"
)

// Run executes every check against config.BaseURL. It returns the report
// and ErrChecksFailed when any check did not pass. Records it creates are
// deleted before returning.
func Run(ctx context.Context, config *Config) (*Report, error) {
	r := &runner{
		cfg:    config,
		client: newHTTPClient(config.BaseURL, config.Timeout),
		log:    logger.Get().Named("smoke"),
		report: &Report{StartTime: time.Now()},
		run:    uuid.NewString()[:8],
	}

	r.log.Info(ctx, "starting catalog smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	r.checkHealth(ctx)
	r.checkDispatcher(ctx)
	for _, res := range resources {
		r.checkResource(ctx, res)
	}

	r.report.Duration = time.Since(r.report.StartTime)
	failed := r.report.Failed()
	r.log.Info(ctx, "smoke run finished",
		logger.Int("checks", len(r.report.Checks)),
		logger.Int("failed", len(failed)),
		logger.Int("raceDuplicates", r.report.RaceDuplicates),
		logger.String("duration", r.report.Duration.String()))

	if len(failed) > 0 {
		return r.report, fmt.Errorf("%w: %d of %d", ErrChecksFailed, len(failed), len(r.report.Checks))
	}
	return r.report, nil
}

type runner struct {
	cfg    *Config
	client *HTTPClient
	log    logger.Logger
	report *Report
	run    string
}

func (r *runner) record(ctx context.Context, name string, passed bool, detail string) {
	r.report.Checks = append(r.report.Checks, CheckResult{Name: name, Passed: passed, Detail: detail})
	switch {
	case !passed:
		r.log.Error(ctx, "check failed", logger.String("check", name), logger.String("detail", detail))
	case r.cfg.Verbose:
		r.log.Info(ctx, "check passed", logger.String("check", name))
	}
}

// expect records whether resp has the wanted status and envelope status.
func (r *runner) expect(ctx context.Context, name string, resp *response, err error, status int, envStatus string) bool {
	if err != nil {
		r.record(ctx, name, false, err.Error())
		return false
	}
	if resp.Status != status || resp.Env.Status != envStatus {
		r.record(ctx, name, false, fmt.Sprintf("got %d %q, want %d %q", resp.Status, resp.Env.Status, status, envStatus))
		return false
	}
	r.record(ctx, name, true, "")
	return true
}

func (r *runner) checkHealth(ctx context.Context) {
	resp, err := r.client.Do(ctx, http.MethodGet, "/healthz", nil)
	r.expect(ctx, "health", resp, err, http.StatusOK, "success")
}

func (r *runner) checkDispatcher(ctx context.Context) {
	resp, err := r.client.Do(ctx, http.MethodGet, "/unknown/path", nil)
	if r.expect(ctx, "unrouted path is 404", resp, err, http.StatusNotFound, "failed") && resp.Env.Message != "no such route" {
		r.record(ctx, "unrouted message", false, resp.Env.Message)
	}

	resp, err = r.client.Do(ctx, http.MethodOptions, "/api/credit-package", nil)
	switch {
	case err != nil:
		r.record(ctx, "preflight", false, err.Error())
	case resp.Status != http.StatusOK || len(resp.Raw) != 0:
		r.record(ctx, "preflight", false, fmt.Sprintf("got %d with %d body bytes", resp.Status, len(resp.Raw)))
	case resp.Header.Get("Access-Control-Allow-Origin") != "*":
		r.record(ctx, "preflight", false, "missing Access-Control-Allow-Origin")
	default:
		r.record(ctx, "preflight", true, "")
	}
}

func (r *runner) checkResource(ctx context.Context, res resource) {
	check := func(s string) string { return res.name + ": " + s }
	name := fmt.Sprintf("smoke-%s-%s", r.run, res.name)

	resp, err := r.client.Do(ctx, http.MethodGet, res.path, nil)
	r.expect(ctx, check("list"), resp, err, http.StatusOK, "success")

	resp, err = r.client.Do(ctx, http.MethodPost, res.path, res.invalid)
	r.expect(ctx, check("invalid create is 400"), resp, err, http.StatusBadRequest, "failed")

	resp, err = r.client.Do(ctx, http.MethodPost, res.path, res.valid(name))
	if !r.expect(ctx, check("create"), resp, err, http.StatusOK, "success") {
		return
	}
	created := resp.records()
	if len(created) != 1 || created[0].Name != name {
		r.record(ctx, check("create echoes name"), false, string(resp.Raw))
		return
	}
	id := created[0].ID

	resp, err = r.client.Do(ctx, http.MethodGet, res.path, nil)
	if r.expect(ctx, check("list after create"), resp, err, http.StatusOK, "success") && !containsID(resp.records(), id) {
		r.record(ctx, check("list contains created"), false, id)
	}

	resp, err = r.client.Do(ctx, http.MethodPost, res.path, res.valid(name))
	r.expect(ctx, check("duplicate create is 409"), resp, err, http.StatusConflict, "failed")

	resp, err = r.client.Do(ctx, http.MethodDelete, res.path+"/"+id, nil)
	r.expect(ctx, check("delete"), resp, err, http.StatusOK, "success")

	resp, err = r.client.Do(ctx, http.MethodDelete, res.path+"/"+id, nil)
	r.expect(ctx, check("second delete is 400"), resp, err, http.StatusBadRequest, "failed")

	r.raceCreates(ctx, res, name+"-race")
}

// raceCreates fires concurrent creates of one name, then deletes whatever
// was stored. A read-then-write duplicate check may admit more than one.
func (r *runner) raceCreates(ctx context.Context, res resource, name string) {
	workers := max(r.cfg.Workers, 1)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []string
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := r.client.Do(ctx, http.MethodPost, res.path, res.valid(name))
			if err != nil || resp.Status != http.StatusOK {
				return
			}
			if recs := resp.records(); len(recs) == 1 {
				mu.Lock()
				ids = append(ids, recs[0].ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	r.record(ctx, res.name+": concurrent creates store at least one", len(ids) >= 1, fmt.Sprintf("%d stored", len(ids)))
	if len(ids) > 1 {
		r.report.RaceDuplicates += len(ids) - 1
		r.log.Warn(ctx, "concurrent creates stored duplicates",
			logger.String("resource", res.name),
			logger.Int("stored", len(ids)))
	}

	for _, id := range ids {
		if _, err := r.client.Do(ctx, http.MethodDelete, res.path+"/"+id, nil); err != nil {
			r.log.Warn(ctx, "cleanup failed", logger.String("id", id), logger.Error(err))
		}
	}
}

func containsID(recs []record, id string) bool {
	for _, rec := range recs {
		if rec.ID == id {
			return true
		}
	}
	return false
}
