package dslscript

import "fmt"

// Execute dispatches one parsed Statement against ctx, running exactly the
// non-nil field's handler.
func Execute(ctx *Context, stmt Statement) (Result, error) {
	switch {
	case stmt.CreateDataset != nil:
		return executeCreateDataset(ctx, stmt.CreateDataset)
	case stmt.CreateTask != nil:
		return executeCreateTask(ctx, stmt.CreateTask)
	case stmt.ExecuteTask != nil:
		return executeExecuteTask(ctx, stmt.ExecuteTask)
	case stmt.Print != nil:
		return executePrint(ctx, stmt.Print)
	case stmt.Help != nil:
		return executeHelp(ctx, stmt.Help)
	case stmt.Exit != nil:
		return Result{Exit: true, Success: true, Message: "Goodbye."}, nil
	default:
		return Result{}, fmt.Errorf("dslscript: empty statement")
	}
}

// RunScript executes every statement of a loaded script in order against
// ctx, printing each statement's message to ctx.Out and stopping early on
// an exit statement or the first error.
func RunScript(ctx *Context, statements []Statement) error {
	for _, stmt := range statements {
		result, err := Execute(ctx, stmt)
		if err != nil {
			return err
		}
		if result.Message != "" {
			fmt.Fprintln(ctx.Out, result.Message)
		}
		if result.Exit {
			break
		}
	}
	return nil
}
