// Package asyncx holds the small concurrency helpers the services share:
// futures for running independent queries side by side, fire-and-forget
// tasks that log their panics, retry with exponential backoff and
// deadline-bounded calls.
//
//	count := asyncx.Run(func() (int, error) { return repo.Count(ctx, f) })
//	page := asyncx.Run(func() ([]*user.User, error) { return repo.FindMany(ctx, f) })
//	total, err := count.Await()
package asyncx
