// Package task is a small concurrent task-orchestration engine.
//
// Callers describe units of work as a forest of [Spec] values, composed
// three ways: sequential continuation ([Spec.Then]), parallel nested
// children ([Spec.Child]), and self-restarting watchers tied to the
// parent's lifetime ([Spec.Watching]). [Run] executes the forest with
// bounded parallelism, an optional live progress display, and structured
// per-task results.
//
//	results, err := task.Run([]*task.Spec{
//		task.New("build", "npm run build").Then("test", "npm test"),
//		task.New("lint", "npm run lint"), // runs in parallel with build
//	}, nil)
package task
