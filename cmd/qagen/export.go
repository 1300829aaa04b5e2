package main

import (
	"fmt"

	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	// Verify the job exists so a typo'd ID fails loudly rather than
	// writing an empty file.
	job, err := deps.Jobs.FindJobByID(deps.Ctx, c.JobID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}

	pairs, err := deps.Pairs.FindQAPairs(deps.Ctx, qagen.QAPairFilter{JobID: &job.ID})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}

	if err := fs.NewWriter(c.Out).WriteQAPairs(deps.Ctx, pairs); err != nil {
		fmt.Fprintf(deps.Stderr, "error writing export: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d pairs to %s\n", len(pairs), c.Out)
	return nil
}
