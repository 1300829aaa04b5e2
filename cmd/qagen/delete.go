package main

import (
	"fmt"

	"github.com/fwojciec/qagen"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return qagen.Errorf(qagen.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Jobs.DeleteJob(deps.Ctx, c.JobID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted job %s\n", c.JobID)
	return nil
}
