package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts the trail to the given actions. Without it
// every action is recorded.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.only = addAll(e.only, actions)
	}
}

// WithDisabledActions drops the given actions from the trail.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.skip = addAll(e.skip, actions)
	}
}

// WithCategories restricts the trail to events of the given categories,
// e.g. CategoryPayment.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		e.categories = addAll(e.categories, categories)
	}
}

func addAll(set map[string]struct{}, keys []string) map[string]struct{} {
	if set == nil {
		set = make(map[string]struct{}, len(keys))
	}
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// allows reports whether an action of the given category is recorded.
func (e *Extension) allows(action, category string) bool {
	if _, skipped := e.skip[action]; skipped {
		return false
	}
	if e.only != nil {
		if _, ok := e.only[action]; !ok {
			return false
		}
	}
	if e.categories != nil {
		if _, ok := e.categories[category]; !ok {
			return false
		}
	}
	return true
}
