package web

import (
	"net/http"
	"strings"

	"marketadmin/internal/adapters/http/middleware"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/audit"
)

// maxActionForm bounds the body of an AJAX action; actions carry no files.
const maxActionForm = 1 << 20

// actionResult is what a successful action reports back.
type actionResult struct {
	Message    string
	Data       any
	ResourceID string // defaults to the posted id
	Detail     string
}

// action performs one AJAX mutation for the posted id.
type action struct {
	run  func(r *http.Request, id string) (actionResult, error)
	noID bool // bulk actions read their ids from the form
}

// actionSet dispatches POST {action, id} to the named action and answers with
// the JSON envelope. Every successful action is written to the audit log.
type actionSet struct {
	page    string
	actions map[string]action
}

// ServeHTTP handles POST /admin/<page>/action.
// PRE: caller passed RequirePermission and CSRF verification
// POST: Responds with {success, message, data}; audit event recorded on success
func (a actionSet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r, maxActionForm); err != nil {
		jsonFail(w, http.StatusBadRequest, "invalid form submission")
		return
	}
	name := r.FormValue("action")
	act, ok := a.actions[name]
	if !ok {
		jsonFail(w, http.StatusBadRequest, "unknown action")
		return
	}
	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" && !act.noID {
		jsonFail(w, http.StatusBadRequest, "missing id")
		return
	}

	res, err := act.run(r, id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	if res.ResourceID == "" {
		res.ResourceID = id
	}
	recordAudit(r, a.page, audit.Action(name), res.ResourceID, res.Detail)
	jsonOK(w, res.Message, res.Data)
}

// recordAudit writes an audit event for the signed-in principal.
func recordAudit(r *http.Request, page string, act audit.Action, resourceID, detail string) {
	p := currentPrincipal(r)
	event := audit.NewEvent(p.AccountID, p.Email, page, act).
		WithResource(resourceID).
		WithDetail(detail).
		WithIP(middleware.ClientIP(r))
	orchestrators.ExecuteRecordAudit(r.Context(), event, stores.AuditStore)
}

// toggled renders the message of a boolean toggle.
func toggled(what string, on bool, onWord, offWord string) actionResult {
	word := offWord
	if on {
		word = onWord
	}
	return actionResult{
		Message: what + " " + word,
		Data:    map[string]bool{"value": on},
		Detail:  word,
	}
}

// formIDs reads ids[] (or repeated ids) from a bulk action.
func formIDs(r *http.Request) []string {
	raw := r.Form["ids[]"]
	if len(raw) == 0 {
		raw = r.Form["ids"]
	}
	var ids []string
	seen := make(map[string]bool, len(raw))
	for _, v := range raw {
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
