package resilience

import (
	"github.com/sony/gobreaker"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/config"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
)

// NewBreaker builds a circuit breaker for one downstream dependency.
// The breaker opens when the rolling error rate crosses the configured
// threshold with enough samples, and lets a few probes through after the
// cooldown. isSuccessful decides which errors count against the breaker;
// nil means every error counts. Domain errors such as a rejected status
// transition must be classified as successful or user mistakes would open
// the circuit.
func NewBreaker(name string, cfg config.BreakerConfig, log *logger.Logger, isSuccessful func(error) bool) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:         name,
		MaxRequests:  cfg.HalfOpenRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Cooldown,
		IsSuccessful: isSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			rate := float64(counts.TotalFailures) / float64(counts.Requests)
			return rate >= cfg.ErrorRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warn("BREAKER", "Circuit '"+name+"' opened: "+from.String()+" -> "+to.String())
			} else {
				log.Info("BREAKER", "Circuit '"+name+"' state: "+from.String()+" -> "+to.String())
			}
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}
