// Package sweeper runs the scheduled circulation jobs outside the request path:
// expiring approvals that were not picked up in time and marking loans past their due date as overdue.
package sweeper
