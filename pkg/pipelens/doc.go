// Package pipelens reconstructs the hierarchical execution record carried by
// automation-framework logs: tasks, the pipeline nodes they executed, every
// recognition attempt and action, and any nested sub-task activity spawned by
// custom recognizers or actions.
//
// Quick start:
//
//	p := pipelens.New()
//	p.Parse(logText, nil)
//
//	for _, task := range p.Tasks() {
//	    fmt.Println(task.Entry, task.Status, len(task.Nodes))
//	}
//
// A Parser is not safe for concurrent use; parsing is a strictly sequential,
// order-dependent pass. Independent Parser instances are independent.
package pipelens
