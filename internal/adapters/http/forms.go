package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/audit"
	"marketadmin/internal/domain/setting"
)

// maxFormMemory is the multipart memory budget of a form page; larger files
// spill to temporary files.
const maxFormMemory = 8 << 20

// formBodyLimit bounds an upload form: the largest image plus the text fields.
func formBodyLimit() int64 {
	return appConfig.MaxUploadSize + 1<<20
}

// parseUploadForm limits and parses a form page submission.
func parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, formBodyLimit())
	if err := parseForm(r, maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return badRequest("the upload is larger than the allowed size")
		}
		return badRequest("invalid form submission")
	}
	return nil
}

// saveImage stores the image posted in field and returns its upload id, or ""
// when no file was chosen.
func saveImage(r *http.Request, field string) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", badRequest("could not read " + field)
	}
	defer file.Close()
	if header.Size == 0 && header.Filename == "" {
		return "", nil
	}

	u, err := orchestrators.ExecuteSaveUpload(r.Context(), orchestrators.SaveUploadInput{
		OriginalName: header.Filename,
		Size:         header.Size,
		Body:         file,
		UserID:       currentPrincipal(r).AccountID,
	}, orchestrators.SaveUploadDeps{
		Files:       files,
		UploadStore: stores.UploadStore,
		MaxBytes:    appConfig.MaxUploadSize,
		GenerateID:  generateID,
		Now:         now,
	})
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// discardUpload removes an upload saved for a form whose save then failed.
func discardUpload(ctx context.Context, id string) {
	if id == "" {
		return
	}
	u, err := stores.UploadStore.Delete(ctx, id)
	if err != nil {
		slog.Warn("upload_discard_failed", "upload_id", id, "error", err)
		return
	}
	if err := files.Remove(u.FileName); err != nil {
		slog.Warn("upload_file_remove_failed", "upload_id", id, "file", u.FileName, "error", err)
	}
}

// uploadFiles resolves upload ids to their file names for display. Missing
// uploads are left out.
func uploadFiles(ctx context.Context, ids ...string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, done := out[id]; done {
			continue
		}
		u, err := stores.UploadStore.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out[id] = u.FileName
	}
	return out
}

// parseList reads list parameters with the page size from business settings.
func parseList(r *http.Request, settings setting.Values, sortColumns map[string]string, filters ...string) listutil.Params {
	return listutil.Parse(r.URL.Query(), listutil.Spec{
		SortColumns:    sortColumns,
		Filters:        filters,
		DefaultPerPage: settings.Int(setting.ItemsPerPage, listutil.DefaultPerPage),
	})
}

// listData is the template data shared by every list page.
func listData(r *http.Request, title, nav, actionURL string, params listutil.Params, info listutil.PageInfo) map[string]any {
	data := map[string]any{
		"Title":     title,
		"Nav":       nav,
		"ActionURL": actionURL,
		"Params":    params,
		"Page":      info,
	}
	if r.URL.Query().Get("saved") == "1" {
		data["Notice"] = "Changes saved."
	}
	return data
}

// afterSave records the form audit event and sends the browser back to the list.
func afterSave(w http.ResponseWriter, r *http.Request, page string, created bool, id, detail, listURL string) {
	act := audit.ActionUpdate
	if created {
		act = audit.ActionCreate
	}
	recordAudit(r, page, act, id, detail)
	http.Redirect(w, r, listURL+"?"+url.Values{"saved": {"1"}}.Encode(), http.StatusSeeOther)
}

// formFailed re-renders a form after a failed save. Known user errors show
// their message with 422; anything else is internal.
func formFailed(w http.ResponseWriter, r *http.Request, templateName string, data map[string]any, err error) {
	status, msg, known := errorStatus(err)
	if !known {
		internalError(w, err)
		return
	}
	if status == http.StatusNotFound {
		renderError(w, r, status, msg)
		return
	}
	if status == http.StatusBadRequest || status == http.StatusConflict {
		status = http.StatusUnprocessableEntity
	}
	data["Error"] = msg
	renderTemplate(w, r, templateName, status, data)
}

// languages offered for translated names; the default comes first.
func languages(settings setting.Values) (string, []string) {
	def := settings.Get(setting.DefaultLanguage)
	if def == "" {
		def = "en"
	}
	langs := []string{def}
	for _, l := range []string{"en", "fr", "es", "de", "ar"} {
		if l != def {
			langs = append(langs, l)
		}
	}
	return def, langs
}
