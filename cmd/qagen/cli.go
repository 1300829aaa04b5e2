package main

import (
	"context"
	"io"

	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/pipeline"
	"github.com/fwojciec/qagen/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	DB          *sqlite.DB
	Jobs        qagen.JobService
	Pairs       qagen.QAPairService
	Coordinator *pipeline.Coordinator
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Debug bool `help:"Log fetch and generation activity to stderr"`

	Run    RunCmd    `cmd:"" help:"Scrape documentation URLs and generate Q&A pairs"`
	Jobs   JobsCmd   `cmd:"" help:"List recent jobs"`
	Show   ShowCmd   `cmd:"" help:"Show a job's status, errors and pairs"`
	Export ExportCmd `cmd:"" help:"Export a job's pairs as JSONL"`
	Cancel CancelCmd `cmd:"" help:"Cancel a pending job"`
	Delete DeleteCmd `cmd:"" help:"Delete a job and its pairs"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URLs []string `arg:"" help:"Documentation URLs to process"`

	Concurrency   int      `short:"c" default:"3" help:"Concurrent page limit (max 5)"`
	ChunkSize     int      `default:"500" help:"Segment size in words"`
	Overlap       int      `default:"50" help:"Word overlap between fixed-size chunks"`
	MaxRetries    int      `default:"3" help:"Generation attempts for transient failures"`
	Questions     int      `short:"q" default:"5" help:"Questions requested per segment"`
	MinConfidence float64  `default:"0.7" help:"Drop pairs the model scores below this"`
	Timeout       int      `default:"10" help:"Fetch timeout in seconds"`
	MaxTokens     int      `default:"0" help:"Trim segments above this token count (0 disables)"`
	Follow        bool     `short:"f" help:"Discover pages via sitemap and same-site links"`
	MaxPages      int      `default:"100" help:"Page cap for --follow discovery"`
	Include       []string `help:"Only discover URLs matching these regexes"`
	Exclude       []string `help:"Skip discovered URLs matching these regexes"`
	Render        bool     `help:"Render pages in headless Chrome (JavaScript sites)"`
	Extractor     string   `default:"trafilatura" enum:"trafilatura,readability" help:"Content extraction engine"`
	Model         string   `default:"gemini-2.5-flash" help:"Gemini model"`
	Export        string   `short:"o" help:"Write pairs to a JSONL file after the run"`
}

// JobsCmd is the "jobs" subcommand.
type JobsCmd struct {
	Status string `help:"Filter by status (pending, running, completed, failed, cancelled)"`
	Limit  int    `default:"20" help:"Maximum jobs to list"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Pairs bool   `short:"p" help:"Print the generated pairs"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Out   string `arg:"" help:"Output JSONL path"`
}

// CancelCmd is the "cancel" subcommand.
type CancelCmd struct {
	JobID string `arg:"" help:"Job ID"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Force bool   `help:"Confirm deletion"`
}
