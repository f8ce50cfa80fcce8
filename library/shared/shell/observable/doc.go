// Package observable wraps command and query handlers with metrics, tracing and logging
// while the handlers themselves keep only business logic.
//
// Wrappers are applied explicitly at wiring time:
//
//	coreHandler := createborrowrequest.NewCommandHandler(store, policy)
//
//	handler, err := observable.NewCommandWrapper[createborrowrequest.Command, createborrowrequest.Result](
//		coreHandler,
//		observable.WithCommandMetrics[createborrowrequest.Command, createborrowrequest.Result](metricsCollector),
//		observable.WithCommandTracing[createborrowrequest.Command, createborrowrequest.Result](tracingCollector),
//		observable.WithCommandContextualLogging[createborrowrequest.Command, createborrowrequest.Result](logger),
//	)
//
//	result, handlerResult, err := handler.Handle(ctx, command)
//
// Business rejections (validation, not found, conflicts, forbidden, renewal rules) are
// recorded with status "rejected" and logged at info level. Invariant violations are
// recorded with their own status and logged at error level.
//
// Tests that focus on business logic use the handlers without a wrapper.
package observable
