// Package datum implements the dependency and evaluation engine behind
// parametric documents.
//
// A Graph holds named Nodes; every Node owns a fixed set of named Datums.
// A Datum is either a literal (float or string), an expression over other
// datums, or a function of its own node's datums. Expression and function
// datums are evaluated lazily on Get and cached; every evaluation records
// which datums were read, and the Graph keeps the inverse of that relation
// so that writing a literal marks everything downstream stale.
//
// # Evaluation
//
//	g := datum.New(datum.WithHook(datum.HookFunc(refresh)))
//	a := datum.NewNode("A", "value")
//	_ = a.AddFloat("x", 2)
//	b := datum.NewNode("B", "cell")
//	_ = b.AddExpression("y", "A.x * 3")
//	_ = g.AddNode(ctx, a)
//	_ = g.AddNode(ctx, b)
//
//	y, _ := g.Get(ctx, "B", "y")            // 6
//	_ = g.Set(ctx, "A", "x", cty.NumberIntVal(5)) // refresh("B", "y")
//	y, _ = g.Get(ctx, "B", "y")             // 15
//
// Cycles are detected while evaluating: every top-level Get keeps the set of
// datums on the active call chain, and re-entering one of them fails with
// ErrCyclicDependency before recursing.
//
// # Thread-Safety
//
// Top-level Graph operations are serialized by a mutex. Evaluation is
// synchronous on the caller's goroutine. Hooks run after the mutex is
// released and may call back into the Graph; Funcs run under it and must
// read other datums only through their NodeView.
package datum
