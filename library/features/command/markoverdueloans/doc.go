// Package markoverdueloans implements the overdue sweep: BORROWED loans past their due date become OVERDUE.
// Overdue loans can no longer be renewed.
package markoverdueloans
