package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"marketadmin/internal/domain/sellerpackage"
	"marketadmin/internal/domain/upload"
)

// SellerPackageStoreForOrchestrator defines the store interface needed by SaveSellerPackage.
type SellerPackageStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (sellerpackage.Package, error)
	Save(ctx context.Context, p sellerpackage.Package, tr *sellerpackage.Translation) ([]upload.Upload, error)
}

// ErrSellerPackageNotFound is returned when editing a package that does not exist.
var ErrSellerPackageNotFound = errors.New("seller package not found")

// SaveSellerPackageInput carries the package form. An empty ID creates a new
// package; an empty LogoUploadID keeps the current logo.
type SaveSellerPackageInput struct {
	ID                 string
	Name               string
	Amount             float64
	ProductUploadLimit int
	DurationDays       int
	LogoUploadID       string
	Lang               string
	DefaultLang        string
}

// SaveSellerPackageDeps holds dependencies for SaveSellerPackage.
type SaveSellerPackageDeps struct {
	SellerPackageStore SellerPackageStoreForOrchestrator
	Files              FileRemover
	GenerateID         func() string
	Now                func() time.Time
}

// ExecuteSaveSellerPackage creates or updates a seller package and its translation.
// PRE: none
// POST: Package persisted; a replaced logo is deleted
func ExecuteSaveSellerPackage(ctx context.Context, input SaveSellerPackageInput, deps SaveSellerPackageDeps) (sellerpackage.Package, error) {
	name := strings.TrimSpace(input.Name)
	lang := input.Lang
	if lang == "" {
		lang = input.DefaultLang
	}

	p := sellerpackage.Package{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	if input.ID != "" {
		existing, err := deps.SellerPackageStore.GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sellerpackage.Package{}, ErrSellerPackageNotFound
			}
			return sellerpackage.Package{}, err
		}
		p = existing
	}
	if lang == input.DefaultLang || input.ID == "" {
		p.Name = name
	}
	p.Amount = input.Amount
	p.ProductUploadLimit = input.ProductUploadLimit
	p.DurationDays = input.DurationDays
	if input.LogoUploadID != "" {
		p.LogoUploadID = input.LogoUploadID
	}
	if name == "" {
		return sellerpackage.Package{}, sellerpackage.ErrEmptyName
	}
	if err := p.Validate(); err != nil {
		return sellerpackage.Package{}, err
	}
	tr := &sellerpackage.Translation{SellerPackageID: p.ID, Lang: lang, Name: name}
	replaced, err := deps.SellerPackageStore.Save(ctx, p, tr)
	if err != nil {
		return sellerpackage.Package{}, err
	}
	RemoveUploadFiles(deps.Files, replaced)
	return p, nil
}
