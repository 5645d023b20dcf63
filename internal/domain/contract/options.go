package contract

// Option configures a Service.
type Option func(*Service)

// WithSoloContracts allows contracts with a single participant to activate.
func WithSoloContracts(allow bool) Option {
	return func(s *Service) {
		s.allowSolo = allow
	}
}

// WithScheduler sets the hook that generates obligations when a contract
// becomes active or gains a participant.
func WithScheduler(scheduler Scheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}
