package projections

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"marketadmin/internal/adapters/http/perf"
	"marketadmin/internal/adapters/storage"
	categoryStore "marketadmin/internal/adapters/storage/category"
	contactStore "marketadmin/internal/adapters/storage/contact"
	productStore "marketadmin/internal/adapters/storage/product"
	reviewStore "marketadmin/internal/adapters/storage/review"
	staffStore "marketadmin/internal/adapters/storage/staff"
	"marketadmin/internal/domain/contact"
	"marketadmin/internal/domain/product"
	"marketadmin/internal/domain/staff"
)

// DashboardProductStore defines the product store interface needed by the dashboard projection.
type DashboardProductStore interface {
	Count(ctx context.Context, filter productStore.ListFilter) (int, error)
}

// DashboardCategoryStore defines the category store interface needed by the dashboard projection.
type DashboardCategoryStore interface {
	Count(ctx context.Context, filter categoryStore.ListFilter) (int, error)
}

// DashboardFlashDealStore defines the flash deal store interface needed by the dashboard projection.
type DashboardFlashDealStore interface {
	CountRunning(ctx context.Context, now time.Time) (int, error)
}

// DashboardReviewStore defines the review store interface needed by the dashboard projection.
type DashboardReviewStore interface {
	Count(ctx context.Context, filter reviewStore.ListFilter) (int, error)
}

// DashboardContactStore defines the contact store interface needed by the dashboard projection.
type DashboardContactStore interface {
	Count(ctx context.Context, filter contactStore.ListFilter) (int, error)
	List(ctx context.Context, filter contactStore.ListFilter) ([]contact.Contact, error)
}

// DashboardStaffStore defines the staff store interface needed by the dashboard projection.
type DashboardStaffStore interface {
	Count(ctx context.Context, filter staffStore.ListFilter) (int, error)
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	ProductStore   DashboardProductStore
	CategoryStore  DashboardCategoryStore
	FlashDealStore DashboardFlashDealStore
	ReviewStore    DashboardReviewStore
	ContactStore   DashboardContactStore
	StaffStore     DashboardStaffStore
	Collector      *perf.Collector // optional: nil skips the timing snapshot
	Now            func() time.Time
}

// PerfWindow is how far back the timing snapshot looks.
const PerfWindow = time.Hour

// LatestContacts is the number of recent contact messages shown.
const LatestContacts = 5

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Products           int
	PublishedProducts  int
	PendingApproval    int
	Categories         int
	RunningFlashDeals  int
	UnreadReviews      int
	UnansweredContacts int
	Staff              int
	LatestContacts     []contact.Contact
	Perf               *perf.Snapshot
}

// QueryGetDashboard loads every dashboard counter concurrently.
// PRE: all stores are non-nil
// POST: Returns the counters or the first error encountered
func QueryGetDashboard(ctx context.Context, deps GetDashboardDeps) (DashboardResult, error) {
	var res DashboardResult
	now := deps.Now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		res.Products, err = deps.ProductStore.Count(ctx, productStore.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		res.PublishedProducts, err = deps.ProductStore.Count(ctx, productStore.ListFilter{Published: "1"})
		return err
	})
	g.Go(func() (err error) {
		res.PendingApproval, err = deps.ProductStore.Count(ctx, productStore.ListFilter{AddedBy: product.AddedBySeller, Approved: "0"})
		return err
	})
	g.Go(func() (err error) {
		res.Categories, err = deps.CategoryStore.Count(ctx, categoryStore.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		res.RunningFlashDeals, err = deps.FlashDealStore.CountRunning(ctx, now)
		return err
	})
	g.Go(func() (err error) {
		res.UnreadReviews, err = deps.ReviewStore.Count(ctx, reviewStore.ListFilter{Viewed: "0"})
		return err
	})
	g.Go(func() (err error) {
		res.UnansweredContacts, err = deps.ContactStore.Count(ctx, contactStore.ListFilter{Replied: "no"})
		return err
	})
	g.Go(func() (err error) {
		res.Staff, err = deps.StaffStore.Count(ctx, staffStore.ListFilter{UserType: staff.TypeStaff})
		return err
	})
	g.Go(func() (err error) {
		res.LatestContacts, err = deps.ContactStore.List(ctx, contactStore.ListFilter{
			ListOptions: storage.ListOptions{Limit: LatestContacts},
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return DashboardResult{}, err
	}
	if deps.Collector != nil {
		snap := deps.Collector.Snapshot(now.Add(-PerfWindow), 5)
		res.Perf = &snap
	}
	return res, nil
}
