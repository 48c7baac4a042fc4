package web

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	roleStore "marketadmin/internal/adapters/storage/role"
	staffStore "marketadmin/internal/adapters/storage/staff"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/role"
	"marketadmin/internal/domain/staff"
)

// handleStaff lists back-office accounts (GET /admin/staff).
func handleStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), staffStore.SortColumns, "role", "status")

	filter := staffStore.ListFilter{
		RoleID: params.Filter("role"),
		Status: params.Filter("status"),
	}
	filter.Search = params.Search
	total, err := stores.StaffStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.StaffStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	roles, err := stores.RoleStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	roleNames := make(map[string]string, len(roles))
	for _, ro := range roles {
		roleNames[ro.ID] = ro.Name
	}

	data := listData(r, "Staff", "staff", "/admin/staff/action", params, info)
	data["Accounts"] = rows
	data["Roles"] = roles
	data["RoleNames"] = roleNames
	data["Statuses"] = []string{staff.StatusActive, staff.StatusBanned}
	data["Self"] = currentPrincipal(r).AccountID
	renderTemplate(w, r, "staff.html", http.StatusOK, data)
}

// handleStaffForm handles GET (form) and POST (save) for /admin/staff/new
// and /admin/staff/{id}/edit.
// PRE: principal holds the staff permission
// POST: On success the account is saved; a password is required only on create
func handleStaffForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	roles, err := stores.RoleStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	data := map[string]any{
		"Title": "Add Staff",
		"Nav":   "staff",
		"Roles": roles,
		"IsNew": id == "",
	}
	if id != "" {
		data["Title"] = "Edit Staff"
	}

	switch r.Method {
	case http.MethodGet:
		var acct staff.Account
		if id != "" {
			acct, err = stores.StaffStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrStaffNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
			if acct.IsAdmin() {
				renderError(w, r, http.StatusForbidden, staff.ErrAdminImmutable.Error())
				return
			}
		}
		data["Account"] = acct
		renderTemplate(w, r, "staff_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.SaveStaffInput{
			ID:       id,
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			RoleID:   r.FormValue("role_id"),
			Password: r.FormValue("password"),
		}
		data["Account"] = staff.Account{ID: id, Name: input.Name, Email: input.Email, RoleID: input.RoleID}
		if input.Password != "" && input.Password != r.FormValue("password_confirm") {
			formFailed(w, r, "staff_form.html", data, badRequest("passwords do not match"))
			return
		}
		saved, err := orchestrators.ExecuteSaveStaff(ctx, input, orchestrators.SaveStaffDeps{
			StaffStore: stores.StaffStore,
			RoleStore:  stores.RoleStore,
			GenerateID: generateID,
			Now:        now,
		})
		if err != nil {
			formFailed(w, r, "staff_form.html", data, err)
			return
		}
		afterSave(w, r, "staff", id == "", saved.ID, saved.Email, "/admin/staff")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Banning or deleting an account also ends its sessions.
var staffActions = actionSet{page: "staff", actions: map[string]action{
	"toggle_ban": {run: func(r *http.Request, id string) (actionResult, error) {
		status, err := orchestrators.ExecuteToggleStaffBan(r.Context(), currentPrincipal(r).AccountID, id,
			orchestrators.StaffActionDeps{StaffStore: stores.StaffStore})
		if err != nil {
			return actionResult{}, err
		}
		if status == staff.StatusBanned {
			sessions.DeleteForAccount(id)
		}
		return actionResult{
			Message: "Account " + status,
			Data:    map[string]string{"status": status},
			Detail:  status,
		}, nil
	}},
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		err := orchestrators.ExecuteDeleteStaff(r.Context(), currentPrincipal(r).AccountID, id,
			orchestrators.StaffActionDeps{StaffStore: stores.StaffStore})
		if err != nil {
			return actionResult{}, err
		}
		sessions.DeleteForAccount(id)
		return actionResult{Message: "Account deleted"}, nil
	}},
}}

// roleRow is a role with the number of accounts holding it.
type roleRow struct {
	role.Role
	StaffCount int
}

// handleRoles lists staff roles (GET /admin/roles).
func handleRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), roleStore.SortColumns)

	var filter roleStore.ListFilter
	filter.Search = params.Search
	total, err := stores.RoleStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	roles, err := stores.RoleStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := stores.RoleStore.StaffCounts(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	rows := make([]roleRow, len(roles))
	for i, ro := range roles {
		rows[i] = roleRow{Role: ro, StaffCount: counts[ro.ID]}
	}

	data := listData(r, "Roles", "roles", "/admin/roles/action", params, info)
	data["Roles"] = rows
	renderTemplate(w, r, "roles.html", http.StatusOK, data)
}

// handleRoleForm handles GET (form) and POST (save) for /admin/roles/new and
// /admin/roles/{id}/edit.
func handleRoleForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	data := map[string]any{
		"Title": "Add Role",
		"Nav":   "roles",
		"IsNew": id == "",
	}
	if id != "" {
		data["Title"] = "Edit Role"
	}

	switch r.Method {
	case http.MethodGet:
		var ro role.Role
		if id != "" {
			var err error
			ro, err = stores.RoleStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrRoleNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
		}
		data["Role"] = ro
		renderTemplate(w, r, "role_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.SaveRoleInput{
			ID:          id,
			Name:        r.FormValue("name"),
			Permissions: r.Form["permissions"],
		}
		data["Role"] = role.Role{ID: id, Name: input.Name, Permissions: input.Permissions}
		saved, err := orchestrators.ExecuteSaveRole(ctx, input, orchestrators.SaveRoleDeps{
			RoleStore:  stores.RoleStore,
			GenerateID: generateID,
			Now:        now,
		})
		if err != nil {
			formFailed(w, r, "role_form.html", data, err)
			return
		}
		afterSave(w, r, "roles", id == "", saved.ID, saved.Name, "/admin/roles")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var roleActions = actionSet{page: "roles", actions: map[string]action{
	// refused while any account holds the role
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := stores.RoleStore.Delete(r.Context(), id); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Role deleted"}, nil
	}},
}}
