package httpapi

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/approverequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/borrowebook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/cancelrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/changeitemstatus"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/createborrowrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/expireapprovedrequests"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/fulfillrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/markoverdueloans"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/promotequeuehead"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/rejectrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/renewloan"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/returnebook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/returnloan"
	"github.com/AntonStoeckl/library-circulation-go/library/features/query/bookavailability"
	"github.com/AntonStoeckl/library-circulation-go/library/features/query/queueposition"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/observable"
)

// Handlers is the set of command and query handlers served by the router and the sweeper.
type Handlers struct {
	CreateBorrowRequest    shell.CommandHandler[createborrowrequest.Command, createborrowrequest.Result]
	ApproveRequest         shell.CommandHandler[approverequest.Command, approverequest.Result]
	RejectRequest          shell.CommandHandler[rejectrequest.Command, rejectrequest.Result]
	CancelRequest          shell.CommandHandler[cancelrequest.Command, cancelrequest.Result]
	FulfillRequest         shell.CommandHandler[fulfillrequest.Command, fulfillrequest.Result]
	PromoteQueueHead       shell.CommandHandler[promotequeuehead.Command, promotequeuehead.Result]
	RenewLoan              shell.CommandHandler[renewloan.Command, renewloan.Result]
	ReturnLoan             shell.CommandHandler[returnloan.Command, returnloan.Result]
	BorrowEbook            shell.CommandHandler[borrowebook.Command, borrowebook.Result]
	ReturnEbook            shell.CommandHandler[returnebook.Command, returnebook.Result]
	AddBook                shell.CommandHandler[addbook.Command, addbook.Result]
	ChangeItemStatus       shell.CommandHandler[changeitemstatus.Command, changeitemstatus.Result]
	ExpireApprovedRequests shell.CommandHandler[expireapprovedrequests.Command, expireapprovedrequests.Result]
	MarkOverdueLoans       shell.CommandHandler[markoverdueloans.Command, markoverdueloans.Result]

	QueuePosition    shell.QueryHandler[queueposition.Query, queueposition.QueuePosition]
	BookAvailability shell.QueryHandler[bookavailability.Query, bookavailability.Availability]
}

// Wiring carries the cross-cutting dependencies of the handlers. Every field is optional.
type Wiring struct {
	Logger           shell.Logger
	ContextualLogger shell.ContextualLogger
	Metrics          shell.MetricsCollector
	Tracing          shell.TracingCollector
	Notifier         shell.Notifier
	Retry            []shell.RetryOption
	SweepBatchSize   int
}

func (w Wiring) dispatcher() shell.NotificationDispatcher {
	return shell.NewNotificationDispatcher(
		w.Notifier,
		shell.WithDispatchLogger(w.Logger),
		shell.WithDispatchContextualLogger(w.ContextualLogger),
		shell.WithDispatchMetrics(w.Metrics),
	)
}

func (w Wiring) retryOptions(commandType string) []shell.RetryOption {
	opts := append([]shell.RetryOption(nil), w.Retry...)
	if w.Metrics != nil {
		opts = append(opts, shell.WithMetrics(w.Metrics, commandType))
	}

	return opts
}

// NewHandlers builds every handler on the store and wraps it with observable wrappers.
func NewHandlers(store circulation.Store, policy circulation.Policy, w Wiring) (Handlers, error) {
	var (
		h   Handlers
		err error
	)

	notifications := w.dispatcher()

	if h.CreateBorrowRequest, err = wrapCommand[createborrowrequest.Command, createborrowrequest.Result](w, createborrowrequest.NewCommandHandler(store, policy,
		createborrowrequest.WithRetryOptions(w.retryOptions(createborrowrequest.Command{}.CommandType())...),
		createborrowrequest.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.ApproveRequest, err = wrapCommand[approverequest.Command, approverequest.Result](w, approverequest.NewCommandHandler(store,
		approverequest.WithRetryOptions(w.retryOptions(approverequest.Command{}.CommandType())...),
		approverequest.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.RejectRequest, err = wrapCommand[rejectrequest.Command, rejectrequest.Result](w, rejectrequest.NewCommandHandler(store,
		rejectrequest.WithRetryOptions(w.retryOptions(rejectrequest.Command{}.CommandType())...),
		rejectrequest.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.CancelRequest, err = wrapCommand[cancelrequest.Command, cancelrequest.Result](w, cancelrequest.NewCommandHandler(store,
		cancelrequest.WithRetryOptions(w.retryOptions(cancelrequest.Command{}.CommandType())...),
		cancelrequest.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.FulfillRequest, err = wrapCommand[fulfillrequest.Command, fulfillrequest.Result](w, fulfillrequest.NewCommandHandler(store, policy,
		fulfillrequest.WithRetryOptions(w.retryOptions(fulfillrequest.Command{}.CommandType())...),
	)); err != nil {
		return Handlers{}, err
	}

	if h.PromoteQueueHead, err = wrapCommand[promotequeuehead.Command, promotequeuehead.Result](w, promotequeuehead.NewCommandHandler(store,
		promotequeuehead.WithRetryOptions(w.retryOptions(promotequeuehead.Command{}.CommandType())...),
		promotequeuehead.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.RenewLoan, err = wrapCommand[renewloan.Command, renewloan.Result](w, renewloan.NewCommandHandler(store, policy,
		renewloan.WithRetryOptions(w.retryOptions(renewloan.Command{}.CommandType())...),
		renewloan.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.ReturnLoan, err = wrapCommand[returnloan.Command, returnloan.Result](w, returnloan.NewCommandHandler(store,
		returnloan.WithRetryOptions(w.retryOptions(returnloan.Command{}.CommandType())...),
		returnloan.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	if h.BorrowEbook, err = wrapCommand[borrowebook.Command, borrowebook.Result](w, borrowebook.NewCommandHandler(store, policy,
		borrowebook.WithRetryOptions(w.retryOptions(borrowebook.Command{}.CommandType())...),
	)); err != nil {
		return Handlers{}, err
	}

	if h.ReturnEbook, err = wrapCommand[returnebook.Command, returnebook.Result](w, returnebook.NewCommandHandler(store,
		returnebook.WithRetryOptions(w.retryOptions(returnebook.Command{}.CommandType())...),
	)); err != nil {
		return Handlers{}, err
	}

	if h.AddBook, err = wrapCommand[addbook.Command, addbook.Result](w, addbook.NewCommandHandler(store,
		addbook.WithRetryOptions(w.retryOptions(addbook.Command{}.CommandType())...),
	)); err != nil {
		return Handlers{}, err
	}

	if h.ChangeItemStatus, err = wrapCommand[changeitemstatus.Command, changeitemstatus.Result](w, changeitemstatus.NewCommandHandler(store,
		changeitemstatus.WithRetryOptions(w.retryOptions(changeitemstatus.Command{}.CommandType())...),
		changeitemstatus.WithNotifications(notifications),
	)); err != nil {
		return Handlers{}, err
	}

	expireOpts := []expireapprovedrequests.Option{
		expireapprovedrequests.WithRetryOptions(w.retryOptions(expireapprovedrequests.Command{}.CommandType())...),
		expireapprovedrequests.WithNotifications(notifications),
	}
	if w.SweepBatchSize > 0 {
		expireOpts = append(expireOpts, expireapprovedrequests.WithBatchSize(w.SweepBatchSize))
	}

	if h.ExpireApprovedRequests, err = wrapCommand[expireapprovedrequests.Command, expireapprovedrequests.Result](w, expireapprovedrequests.NewCommandHandler(store, policy, expireOpts...)); err != nil {
		return Handlers{}, err
	}

	if h.MarkOverdueLoans, err = wrapCommand[markoverdueloans.Command, markoverdueloans.Result](w, markoverdueloans.NewCommandHandler(store,
		markoverdueloans.WithRetryOptions(w.retryOptions(markoverdueloans.Command{}.CommandType())...),
	)); err != nil {
		return Handlers{}, err
	}

	if h.QueuePosition, err = wrapQuery[queueposition.Query, queueposition.QueuePosition](w, queueposition.NewQueryHandler(store)); err != nil {
		return Handlers{}, err
	}

	if h.BookAvailability, err = wrapQuery[bookavailability.Query, bookavailability.Availability](w, bookavailability.NewQueryHandler(store)); err != nil {
		return Handlers{}, err
	}

	return h, nil
}

func wrapCommand[C shell.Command, R any](w Wiring, core shell.CommandHandler[C, R]) (shell.CommandHandler[C, R], error) {
	var opts []observable.CommandOption[C, R]

	if w.Metrics != nil {
		opts = append(opts, observable.WithCommandMetrics[C, R](w.Metrics))
	}

	if w.Tracing != nil {
		opts = append(opts, observable.WithCommandTracing[C, R](w.Tracing))
	}

	if w.ContextualLogger != nil {
		opts = append(opts, observable.WithCommandContextualLogging[C, R](w.ContextualLogger))
	}

	if w.Logger != nil {
		opts = append(opts, observable.WithCommandLogging[C, R](w.Logger))
	}

	return observable.NewCommandWrapper(core, opts...)
}

func wrapQuery[Q shell.Query, R any](w Wiring, core shell.QueryHandler[Q, R]) (shell.QueryHandler[Q, R], error) {
	var opts []observable.QueryOption[Q, R]

	if w.Metrics != nil {
		opts = append(opts, observable.WithQueryMetrics[Q, R](w.Metrics))
	}

	if w.Tracing != nil {
		opts = append(opts, observable.WithQueryTracing[Q, R](w.Tracing))
	}

	if w.ContextualLogger != nil {
		opts = append(opts, observable.WithQueryContextualLogging[Q, R](w.ContextualLogger))
	}

	if w.Logger != nil {
		opts = append(opts, observable.WithQueryLogging[Q, R](w.Logger))
	}

	return observable.NewQueryWrapper(core, opts...)
}
