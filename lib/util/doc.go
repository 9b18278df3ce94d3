// Package util provides small data structures shared by the lock libraries.
//
// The package contains:
//   - mapheap: A min priority queue that also supports key-based access and removal,
//     used by the timer package to order pending deadlines
package util
