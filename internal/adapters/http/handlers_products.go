package web

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	productStore "marketadmin/internal/adapters/storage/product"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/category"
	"marketadmin/internal/domain/product"
)

var productFilters = []string{"category", "added_by", "seller", "published", "approved", "featured"}

// handleProducts lists every product (GET /admin/products).
func handleProducts(w http.ResponseWriter, r *http.Request) {
	renderProductList(w, r, "")
}

// handleSellerProducts lists seller listings awaiting or past approval
// (GET /admin/products/seller).
func handleSellerProducts(w http.ResponseWriter, r *http.Request) {
	renderProductList(w, r, product.AddedBySeller)
}

func renderProductList(w http.ResponseWriter, r *http.Request, addedBy string) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), productStore.SortColumns, productFilters...)

	filter := productStore.ListFilter{
		CategoryID: params.Filter("category"),
		AddedBy:    params.Filter("added_by"),
		SellerID:   params.Filter("seller"),
		Published:  params.Filter("published"),
		Approved:   params.Filter("approved"),
		Featured:   params.Filter("featured"),
	}
	title, nav, listURL := "Products", "products", "/admin/products"
	if addedBy != "" {
		filter.AddedBy = addedBy
		title, nav, listURL = "Seller Products", "seller_products", "/admin/products/seller"
	}
	filter.Search = params.Search

	total, err := stores.ProductStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.ProductStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	all, err := stores.CategoryStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	data := listData(r, title, nav, "/admin/products/action", params, info)
	data["Products"] = rows
	data["Categories"] = category.Flatten(all)
	data["SellerView"] = addedBy != ""
	data["ListURL"] = listURL
	renderTemplate(w, r, "products.html", http.StatusOK, data)
}

// handleProductForm handles GET (form) and POST (save) for
// /admin/products/new and /admin/products/{id}/edit.
// PRE: principal holds the products permission
// POST: On success the product is saved and the browser returns to the list
func handleProductForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	settings := loadSettings(r)
	defaultLang, langs := languages(settings)

	all, err := stores.CategoryStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	data := map[string]any{
		"Title":       "Add Product",
		"Nav":         "products",
		"Categories":  category.Flatten(all),
		"Languages":   langs,
		"DefaultLang": defaultLang,
		"IsNew":       id == "",
	}
	if id != "" {
		data["Title"] = "Edit Product"
	}

	switch r.Method {
	case http.MethodGet:
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = defaultLang
		}
		data["Lang"] = lang
		p := product.Product{DiscountType: product.DiscountAmount, Published: true}
		var stock product.Stock
		if id != "" {
			p, err = stores.ProductStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrProductNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
			stocks, err := stores.ProductStore.Stocks(ctx, id)
			if err != nil {
				internalError(w, err)
				return
			}
			for _, s := range stocks {
				if s.Variant == "" {
					stock = s
				}
			}
			if lang != defaultLang {
				tr, err := stores.ProductStore.Translation(ctx, id, lang)
				switch {
				case err == nil:
					p.Name, p.Description = tr.Name, tr.Description
				case !errors.Is(err, sql.ErrNoRows):
					internalError(w, err)
					return
				}
			}
		}
		data["Product"] = p
		data["Stock"] = stock
		renderTemplate(w, r, "product_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := parseUploadForm(w, r); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input := orchestrators.SaveProductInput{
			ID:           id,
			Name:         r.FormValue("name"),
			CategoryID:   r.FormValue("category_id"),
			DiscountType: r.FormValue("discount_type"),
			SKU:          r.FormValue("sku"),
			Description:  r.FormValue("description"),
			Published:    formBool(r, "published"),
			Featured:     formBool(r, "featured"),
			TodaysDeal:   formBool(r, "todays_deal"),
			Lang:         r.FormValue("lang"),
			DefaultLang:  defaultLang,
		}
		numErr := firstErr(
			formFloatInto(r, "unit_price", &input.UnitPrice),
			formFloatInto(r, "discount", &input.Discount),
			formIntInto(r, "qty", &input.Qty),
		)
		data["Lang"] = input.Lang
		data["Product"] = product.Product{
			ID: id, Name: input.Name, CategoryID: input.CategoryID,
			UnitPrice: input.UnitPrice, Discount: input.Discount, DiscountType: input.DiscountType,
			Description: input.Description,
			Published:   input.Published, Featured: input.Featured, TodaysDeal: input.TodaysDeal,
		}
		data["Stock"] = product.Stock{SKU: input.SKU, Qty: input.Qty}
		if numErr != nil {
			formFailed(w, r, "product_form.html", data, numErr)
			return
		}

		saved, err := orchestrators.ExecuteSaveProduct(ctx, input, orchestrators.SaveProductDeps{
			ProductStore:  stores.ProductStore,
			CategoryStore: stores.CategoryStore,
			GenerateID:    generateID,
			Now:           now,
		})
		if err != nil {
			formFailed(w, r, "product_form.html", data, err)
			return
		}
		afterSave(w, r, "products", id == "", saved.ID, saved.Name, "/admin/products")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// toggleProduct flips one boolean column of a product.
func toggleProduct(field, onWord, offWord string) action {
	return action{run: func(r *http.Request, id string) (actionResult, error) {
		on, err := stores.ProductStore.Toggle(r.Context(), id, field, now())
		if err != nil {
			return actionResult{}, err
		}
		return toggled("Product", on, onWord, offWord), nil
	}}
}

var productActions = actionSet{page: "products", actions: map[string]action{
	"toggle_published":   toggleProduct(productStore.FieldPublished, "published", "unpublished"),
	"toggle_featured":    toggleProduct(productStore.FieldFeatured, "featured", "no longer featured"),
	"toggle_todays_deal": toggleProduct(productStore.FieldTodaysDeal, "added to today's deals", "removed from today's deals"),
	"approve": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := stores.ProductStore.SetApproval(r.Context(), id, true, now()); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Product approved"}, nil
	}},
	// rejecting also unpublishes
	"reject": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := stores.ProductStore.SetApproval(r.Context(), id, false, now()); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Product rejected and unpublished"}, nil
	}},
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		n, err := stores.ProductStore.Delete(r.Context(), id)
		if err != nil {
			return actionResult{}, err
		}
		if n == 0 {
			return actionResult{}, orchestrators.ErrProductNotFound
		}
		return actionResult{Message: "Product deleted"}, nil
	}},
	"bulk_delete": {noID: true, run: func(r *http.Request, _ string) (actionResult, error) {
		ids := formIDs(r)
		if len(ids) == 0 {
			return actionResult{}, badRequest("select at least one product")
		}
		n, err := stores.ProductStore.Delete(r.Context(), ids...)
		if err != nil {
			return actionResult{}, err
		}
		return actionResult{
			Message:    fmt.Sprintf("%d product(s) deleted", n),
			Data:       map[string]int{"deleted": n},
			ResourceID: ids[0],
			Detail:     fmt.Sprintf("%d of %d selected", n, len(ids)),
		}, nil
	}},
}}
