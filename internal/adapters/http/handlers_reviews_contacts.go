package web

import (
	"log/slog"
	"net/http"

	"marketadmin/internal/adapters/markdown"
	contactStore "marketadmin/internal/adapters/storage/contact"
	reviewStore "marketadmin/internal/adapters/storage/review"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/review"
	"marketadmin/internal/domain/setting"
)

// handleReviews lists product reviews (GET /admin/reviews). Opening the page
// marks every review viewed; rows loaded for this visit keep their old flag.
func handleReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), reviewStore.SortColumns, "rating", "status", "product", "viewed")

	filter := reviewStore.ListFilter{
		Rating:    params.Filter("rating"),
		Status:    params.Filter("status"),
		ProductID: params.Filter("product"),
		Viewed:    params.Filter("viewed"),
	}
	filter.Search = params.Search
	total, err := stores.ReviewStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.ReviewStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	if n, err := stores.ReviewStore.MarkAllViewed(ctx); err != nil {
		slog.Warn("reviews_mark_viewed_failed", "error", err)
	} else if n > 0 {
		slog.Debug("reviews_marked_viewed", "count", n)
	}

	data := listData(r, "Product Reviews", "reviews", "/admin/reviews/action", params, info)
	data["Reviews"] = rows
	data["Statuses"] = []string{review.StatusPublished, review.StatusHidden}
	renderTemplate(w, r, "reviews.html", http.StatusOK, data)
}

// Toggling or deleting a review recomputes the product's rating in the same transaction.
var reviewActions = actionSet{page: "reviews", actions: map[string]action{
	"toggle_status": {run: func(r *http.Request, id string) (actionResult, error) {
		status, err := stores.ReviewStore.ToggleStatus(r.Context(), id)
		if err != nil {
			return actionResult{}, err
		}
		return actionResult{
			Message: "Review " + status,
			Data:    map[string]string{"status": status},
			Detail:  status,
		}, nil
	}},
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := stores.ReviewStore.Delete(r.Context(), id); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Review deleted"}, nil
	}},
}}

// handleContacts lists storefront contact messages (GET /admin/contacts).
func handleContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), contactStore.SortColumns, "replied", "viewed")

	filter := contactStore.ListFilter{
		Replied: params.Filter("replied"),
		Viewed:  params.Filter("viewed"),
	}
	filter.Search = params.Search
	total, err := stores.ContactStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.ContactStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}

	data := listData(r, "Contacts", "contacts", "/admin/contacts/action", params, info)
	data["Contacts"] = rows
	renderTemplate(w, r, "contacts.html", http.StatusOK, data)
}

var contactActions = actionSet{page: "contacts", actions: map[string]action{
	"mark_viewed": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := stores.ContactStore.MarkViewed(r.Context(), id); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Marked as viewed"}, nil
	}},
	// the reply is stored only once the email was accepted
	"reply": {run: func(r *http.Request, id string) (actionResult, error) {
		settings := loadSettings(r)
		c, err := orchestrators.ExecuteReplyContact(r.Context(), orchestrators.ReplyContactInput{
			ContactID: id,
			Reply:     r.FormValue("reply"),
			SiteName:  settings.Get(setting.SiteName),
			ReplyTo:   settings.Get(setting.ContactEmail),
		}, orchestrators.ReplyContactDeps{
			ContactStore: stores.ContactStore,
			Sender:       emailSender,
			Render:       markdown.Render,
			Now:          now,
		})
		if err != nil {
			return actionResult{}, err
		}
		return actionResult{
			Message: "Reply sent to " + c.Email,
			Data:    map[string]any{"reply": c.Reply, "replied_at": c.RepliedAt},
			Detail:  c.Email,
		}, nil
	}},
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := stores.ContactStore.Delete(r.Context(), id); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Message deleted"}, nil
	}},
}}
