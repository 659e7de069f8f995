package nostrelay

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"taskledger/taskledger"
)

func (r *Relay) routes() {
	get := func(path string, build func(vars map[string]string) Query) {
		r.router.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			result, err := r.answer(build(mux.Vars(req)))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
		}).Methods("GET")
	}
	fixed := func(q string) func(map[string]string) Query {
		return func(map[string]string) Query { return Query{Query: q} }
	}
	project := func(q string) func(map[string]string) Query {
		return func(v map[string]string) Query { return Query{Query: q, Project: v["id"], Task: v["tid"]} }
	}
	get("/admin", fixed("admin"))
	get("/kinds", fixed("kinds"))
	get("/state", fixed("state"))
	get("/projects", fixed("projects"))
	get("/projects/index/{i}", func(v map[string]string) Query { return Query{Query: "projectIndex", Index: v["i"]} })
	get("/projects/{id}", project("project"))
	get("/projects/{id}/members", project("members"))
	get("/projects/{id}/tasks", project("tasks"))
	get("/projects/{id}/tasks/{tid}", project("task"))
	get("/projects/{id}/payouts", project("payouts"))
	get("/projects/{id}/summary", project("summary"))
	get("/sequence/{account}", func(v map[string]string) Query { return Query{Query: "sequence", Account: v["account"]} })
}

func status(err error) int {
	switch {
	case errors.Is(err, taskledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, taskledger.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, taskledger.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, taskledger.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, taskledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, status(err), map[string]string{"error": taskledger.Reason(err), "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		taskledger.LogCLI(err.Error(), 1)
		code = http.StatusInternalServerError
		b = []byte(`{"error":"error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		taskledger.LogCLI(err.Error(), 3)
	}
}
