// Package quad computes definite integrals with the composite trapezoidal
// rule and runs the same computation under four execution strategies so
// they can be compared:
//
//   - Sequential: one kernel call over the whole interval
//   - Threaded: k goroutines that evaluate under a process-wide execution
//     lock, modelling threads in a runtime with an interpreter lock
//   - Multiprocess: k isolated worker processes fed over stdin/stdout
//   - NativeParallel: k lock-free goroutines pinned to OS threads
//
// # Basic Usage
//
//	f, _ := quad.Lookup("x^2")
//	v, err := quad.NativeParallel(ctx, f, 0, 1, 1_000_000, runtime.NumCPU())
//
// # Partitioning
//
// The interval is cut into k contiguous sub-ranges on one shared grid of
// n+1 points with step (b-a)/n. Every grid point belongs to exactly one
// sub-range, and when n is not a multiple of k the first n%k sub-ranges
// get one extra sample. Because the grid is shared, the answer depends on
// n but not on k beyond floating-point rounding of the final sum, and
// k = 1 reproduces Sequential bit for bit.
//
// # Determinism
//
// Every kernel variant performs the same floating-point operations in
// the same order for a given sub-range, and partial results are reduced
// in index order. Repeated runs give identical results, and the
// strategies agree to within rounding.
//
// # Worker Processes
//
// Multiprocess re-executes the running binary with QUADPOOL_WORKER=1.
// Programs must call ServeWorkerProcess at the top of main so that the
// child serves its job instead of running the program again. Only
// integrands registered with Register can be used, since the child
// rebuilds the function from its name.
//
// # Error Handling
//
// Invalid input fails fast with ErrInvalidRange before anything is
// dispatched; k > n is rejected, never clamped. A worker process that
// cannot be started or dies fails the whole call with ErrWorkerSpawn or
// ErrWorkerCrash. Nothing is retried.
package quad
