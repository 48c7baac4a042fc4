package web

import (
	"html/template"
	"testing"

	"github.com/google/go-cmp/cmp"

	"marketadmin/internal/application/listutil"
)

func TestSortHeaderArgs_FlipsDirectionAndResetsPage(t *testing.T) {
	sortHeader := baseFuncs["sortHeaderArgs"].(func(listutil.Params, string, string) map[string]any)
	p := listutil.Params{Page: 3, PerPage: 20, Sort: "name", Dir: "asc", Search: "kettle"}

	got := sortHeader(p, "name", "Name")
	want := map[string]any{
		"Label":  "Name",
		"Active": true,
		"Dir":    "asc",
		"Query":  template.URL("dir=desc&page=1&per_page=20&q=kettle&sort=name"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("active column (-want +got):\n%s", diff)
	}

	got = sortHeader(p, "unit_price", "Price")
	if got["Active"] != false || got["Query"] != template.URL("dir=asc&page=1&per_page=20&q=kettle&sort=unit_price") {
		t.Errorf("other column = %v", got)
	}
}

func TestTextHelpers(t *testing.T) {
	truncate := baseFuncs["truncate"].(func(string, int) string)
	stars := baseFuncs["stars"].(func(int) string)
	indent := baseFuncs["indent"].(func(int) string)
	dict := baseFuncs["dict"].(func(...any) map[string]any)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"truncate short", truncate("Kettle", 10), "Kettle"},
		{"truncate runes", truncate("Café crème", 4), "Café…"},
		{"stars", stars(3), "★★★☆☆"},
		{"stars clamped", stars(9), "★★★★★"},
		{"indent", indent(2), "\u00a0\u00a0\u00a0\u00a0\u00a0\u00a0"},
		{"indent root", indent(0), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if diff := cmp.Diff(map[string]any{"Name": "published", "Value": "1"},
		dict("Name", "published", "Value", "1", "dangling")); diff != "" {
		t.Errorf("dict (-want +got):\n%s", diff)
	}
}

func TestPagesParse(t *testing.T) {
	for _, name := range []string{
		"login.html", "error.html", "dashboard.html", "products.html", "product_form.html",
		"categories.html", "category_form.html", "banners.html", "banner_form.html",
		"flash_deals.html", "flash_deal_form.html", "reviews.html", "contacts.html",
		"seller_packages.html", "seller_package_form.html", "staff.html", "staff_form.html",
		"roles.html", "role_form.html", "settings.html", "audit.html",
	} {
		if pages[name] == nil {
			t.Errorf("page %s not parsed", name)
		}
	}
}
