package abuse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/terrainbook/booking-api/internal/domain"
)

type BlacklistMatcher interface {
	Match(ctx context.Context, phone, email string) (domain.BlacklistEntry, bool, error)
}

// Gate refuses blacklisted contacts, then throttles customers per phone,
// email and device. A nil limiter disables throttling.
type Gate struct {
	blacklist BlacklistMatcher
	limiter   Limiter
}

func NewGate(blacklist BlacklistMatcher, limiter Limiter) *Gate {
	return &Gate{
		blacklist: blacklist,
		limiter:   limiter,
	}
}

func (g *Gate) CheckContact(ctx context.Context, phone, email string) error {
	entry, found, err := g.blacklist.Match(ctx, phone, email)
	if err != nil {
		return fmt.Errorf("g.blacklist.Match -> %w", err)
	}
	if found {
		return domain.Reject(domain.ErrBlocked, "this %s is not allowed to book", entry.Kind)
	}

	return nil
}

// MayReserve fails open when the throttle store is unreachable: a redis
// outage must not stop bookings.
func (g *Gate) MayReserve(ctx context.Context, phone, email, fingerprint string) error {
	if err := g.CheckContact(ctx, phone, email); err != nil {
		return err
	}
	if g.limiter == nil {
		return nil
	}

	for _, key := range throttleKeys(phone, email, fingerprint) {
		ok, err := g.limiter.Allow(ctx, key)
		if err != nil {
			zap.L().Warn("reservation throttle unavailable", zap.String("key", key), zap.Error(err))
			return nil
		}
		if !ok {
			return domain.Reject(domain.ErrBlocked, "too many reservation attempts, try again later")
		}
	}

	return nil
}

func throttleKeys(phone, email, fingerprint string) []string {
	keys := make([]string, 0, 3)
	if p := domain.NormalizeContact(domain.BlacklistPhone, phone); p != "" {
		keys = append(keys, "phone:"+p)
	}
	if e := domain.NormalizeContact(domain.BlacklistEmail, email); e != "" {
		keys = append(keys, "email:"+e)
	}
	if fingerprint != "" {
		keys = append(keys, "device:"+fingerprint)
	}
	return keys
}
