// Package retry wraps an operation in a bounded, constant-delay retry loop.
//
// It knows nothing about HTTP. The request pipeline never applies it on its
// own; callers that want extra resilience wrap their calls explicitly:
//
//	visitors, err := retry.Do(ctx, func(ctx context.Context) ([]veriaccess.Visitor, error) {
//		return client.Visitors(ctx)
//	}, 3, time.Second)
//
// An attempt that returns an error wrapped with Permanent ends the loop
// early. DoNotify reports each failed attempt before the wait.
package retry
