package hostapi

import (
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/FedeDP/plugins/src/errs"
)

// FieldResolver looks up a single host thread-table field handle by name,
// returning ok=false if the host's current schema does not expose it.
// Binding a handle is cheap but the host may still be registering its own
// schema extensions at the instant a plugin initializes, so ResolveFields
// retries before giving up.
type FieldResolver func(name string) (handle any, ok bool)

// ResolveFields resolves every name in names via resolve, retrying each
// lookup against transient absence with a short exponential backoff
// (3 attempts, 10ms base, factor 2) before returning ErrTableBindingFailure
// for the first field that never appears.
func ResolveFields(resolve FieldResolver, names []string) (map[string]any, error) {
	out := make(map[string]any, len(names))
	for _, name := range names {
		handle, err := resolveOne(resolve, name)
		if err != nil {
			return nil, err
		}
		out[name] = handle
	}
	return out, nil
}

func resolveOne(resolve FieldResolver, name string) (any, error) {
	b := &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Factor: 2,
		Jitter: false,
	}
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if handle, ok := resolve(name); ok {
			return handle, nil
		}
		if attempt == maxAttempts {
			break
		}
		wait := b.Duration()
		log.Warnf("anomaly plugin: thread table field %q not yet available, retrying in %s (attempt %d/%d)",
			name, wait, attempt, maxAttempts)
		time.Sleep(wait)
	}
	return nil, fmt.Errorf("%w: field %q not exposed by host thread table schema", errs.ErrTableBindingFailure, name)
}
