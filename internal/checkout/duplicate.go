package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/codshopapp/codshop/internal/db"
	"github.com/codshopapp/codshop/internal/models"
)

// DuplicateWindow bounds how far back the detector compares submissions.
const DuplicateWindow = 5 * time.Minute

type recentOrders interface {
	LatestByPhoneSince(ctx context.Context, phone string, since time.Time) (*models.Order, error)
	Items(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

// DuplicateDetector rejects resubmissions of the same cart from the same
// phone number within the window, a common artifact of double-clicked submit
// buttons on slow connections.
type DuplicateDetector struct {
	orders recentOrders
	now    func() time.Time
}

func NewDuplicateDetector(orders recentOrders) *DuplicateDetector {
	return &DuplicateDetector{orders: orders, now: time.Now}
}

// IsDuplicate compares the submission against the phone's most recent order
// inside the window. Two carts match when they have the same number of lines
// and the same multiset of (product, quantity) pairs.
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, phone string, items []ItemInput) (bool, error) {
	cutoff := d.now().Add(-DuplicateWindow)

	prior, err := d.orders.LatestByPhoneSince(ctx, phone, cutoff)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	priorItems, err := d.orders.Items(ctx, prior.ID)
	if err != nil {
		return false, err
	}
	if len(priorItems) != len(items) {
		return false, nil
	}

	type line struct {
		product  uuid.UUID
		quantity int
	}
	counts := make(map[line]int, len(priorItems))
	for _, item := range priorItems {
		counts[line{item.ProductID, item.Quantity}]++
	}
	for _, item := range items {
		key := line{item.ProductID, item.Quantity}
		if counts[key] == 0 {
			return false, nil
		}
		counts[key]--
	}
	return true, nil
}
