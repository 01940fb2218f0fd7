package routing

import (
	"sort"
	"sync"
	"time"

	"github.com/upb/llm-gateway/services/providers"
)

// DefaultCooldown is how long a rate-limited provider stays out of rotation
const DefaultCooldown = 5 * time.Minute

// Cooldown is an active breaker entry
type Cooldown struct {
	ProviderID string    `json:"provider_id"`
	Until      time.Time `json:"until"`
}

// Breaker tracks a cooldown deadline per provider. A provider with no entry,
// or whose deadline has passed, is eligible.
type Breaker struct {
	mu       sync.RWMutex
	until    map[string]time.Time
	cooldown time.Duration
}

// NewBreaker creates a breaker. cooldown <= 0 selects DefaultCooldown.
func NewBreaker(cooldown time.Duration) *Breaker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breaker{
		until:    make(map[string]time.Time),
		cooldown: cooldown,
	}
}

// IsEligible reports whether providerID may be tried at now
func (b *Breaker) IsEligible(providerID string, now time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.eligible(providerID, now)
}

func (b *Breaker) eligible(providerID string, now time.Time) bool {
	deadline, ok := b.until[providerID]
	return !ok || !deadline.After(now)
}

// Filter drops steps whose provider is cooling down. When that would drop
// every step, the original steps are returned with failOpen set.
func (b *Breaker) Filter(steps []providers.RouteStep, now time.Time) (eligible []providers.RouteStep, failOpen bool) {
	if len(steps) == 0 {
		return steps, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	eligible = make([]providers.RouteStep, 0, len(steps))
	for _, step := range steps {
		if b.eligible(step.ProviderID, now) {
			eligible = append(eligible, step)
		}
	}
	if len(eligible) == 0 {
		return steps, true
	}
	return eligible, false
}

// Open starts or restarts the cooldown of providerID at now+d. d <= 0 uses
// the breaker's configured cooldown.
func (b *Breaker) Open(providerID string, now time.Time, d time.Duration) time.Time {
	if d <= 0 {
		d = b.cooldown
	}
	deadline := now.Add(d)

	b.mu.Lock()
	b.until[providerID] = deadline
	b.mu.Unlock()

	return deadline
}

// Cooldown returns the configured cooldown window
func (b *Breaker) Cooldown() time.Duration {
	return b.cooldown
}

// Snapshot returns the cooldowns still active at now, sorted by provider
func (b *Breaker) Snapshot(now time.Time) []Cooldown {
	b.mu.RLock()
	defer b.mu.RUnlock()

	active := make([]Cooldown, 0, len(b.until))
	for id, deadline := range b.until {
		if deadline.After(now) {
			active = append(active, Cooldown{ProviderID: id, Until: deadline})
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ProviderID < active[j].ProviderID
	})
	return active
}
