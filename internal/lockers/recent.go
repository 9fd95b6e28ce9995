// Package lockers remembers the parcel lockers a customer picked recently so
// the locker picker can offer them first.
package lockers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	pkgredis "github.com/angelmondragon/checkout-shipping/pkg/redis"
)

const (
	defaultMax = 5
	defaultTTL = 30 * 24 * time.Hour
)

// Locker is a remembered locker choice.
type Locker struct {
	Code    string  `json:"code"`
	Address *string `json:"address,omitempty"`
}

// RecentStore keeps a short most-recent-first list per customer.
type RecentStore struct {
	lists pkgredis.ListStore
	logg  *logger.Logger
	max   int
	ttl   time.Duration
}

func NewRecentStore(lists pkgredis.ListStore, logg *logger.Logger, max int, ttl time.Duration) *RecentStore {
	if max <= 0 {
		max = defaultMax
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RecentStore{lists: lists, logg: logg, max: max, ttl: ttl}
}

// Remember records a locker as the customer's most recent one.
func (s *RecentStore) Remember(ctx context.Context, customerID string, locker Locker) error {
	customerID = strings.TrimSpace(customerID)
	locker.Code = strings.TrimSpace(locker.Code)
	if customerID == "" || locker.Code == "" {
		return nil
	}
	payload, err := json.Marshal(locker)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode recent locker")
	}
	if err := s.lists.PushCapped(ctx, s.lists.RecentLockersKey(customerID), string(payload), int64(s.max), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store recent locker")
	}
	return nil
}

// List returns the customer's recent lockers, newest first, one entry per code.
func (s *RecentStore) List(ctx context.Context, customerID string) ([]Locker, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}
	raw, err := s.lists.List(ctx, s.lists.RecentLockersKey(customerID), int64(s.max))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent lockers")
	}

	out := make([]Locker, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		var locker Locker
		if err := json.Unmarshal([]byte(entry), &locker); err != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "customer_id", customerID), "skipping malformed recent locker entry")
			}
			continue
		}
		if _, dup := seen[locker.Code]; dup {
			continue
		}
		seen[locker.Code] = struct{}{}
		out = append(out, locker)
	}
	return out, nil
}
