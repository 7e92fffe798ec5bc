// Package task defines the task record and the derived views computed over a
// collection of tasks.
//
// # Records
//
// A Task is identified by an opaque ID. Confirmed tasks carry the identifier
// assigned by the remote document service; tasks created locally and not yet
// confirmed carry a placeholder ID and have Pending set. Pending is local state
// and is never written to the remote service.
//
// Deadlines are calendar dates without a time component (Date). A deadline is
// honoured through the end of its day, so a task due today is never overdue.
//
// # Views
//
// Everything in view.go is a pure function of the records plus the current
// time. Callers pass now explicitly:
//
//	visible := task.Apply(tasks, task.FilterOverdue, task.SortAsc, time.Now())
//	stats := task.Summarize(tasks, time.Now())
//
// Sorting is stable and always places tasks without a deadline last, in both
// directions.
package task
