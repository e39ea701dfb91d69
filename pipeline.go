package img2mlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Job is a single image conversion.
type Job struct {
	Name    string
	Image   string
	Out     string
	Options Options
}

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func (c *Converter) findImages(ctx context.Context, base, out string, opts Options) (<-chan Job, <-chan error, error) {
	jobs := make(chan Job)
	errc := make(chan error, 1)
	go func() {
		defer close(jobs)
		defer close(errc)
		seen := make(map[string]string)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Don't convert our own output, such as previews
			if info.Mode().IsDir() && file == out && file != base {
				return filepath.SkipDir
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal image file
			if !info.Mode().IsRegular() || !isImage(file) {
				return nil
			}

			rel, err := filepath.Rel(base, file)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(rel, filepath.Ext(rel))

			// a.png and a.jpg would write to the same directory
			if other, ok := seen[name]; ok {
				return fmt.Errorf("\"%s\" and \"%s\" both write to \"%s\"", other, rel, filepath.Join(out, name))
			}
			seen[name] = rel

			select {
			case jobs <- Job{
				Name:    name,
				Image:   file,
				Out:     filepath.Join(out, name),
				Options: opts,
			}:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return jobs, errc, nil
}

func queueJobs(ctx context.Context, list []Job) (<-chan Job, <-chan error, error) {
	jobs := make(chan Job)
	errc := make(chan error, 1)
	go func() {
		defer close(jobs)
		defer close(errc)
		for _, job := range list {
			select {
			case jobs <- job:
			case <-ctx.Done():
				errc <- errors.New("queue cancelled")
				return
			}
		}
	}()
	return jobs, errc, nil
}

func (c *Converter) jobWorker(ctx context.Context, in <-chan Job) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for job := range in {
			if ctx.Err() != nil {
				return
			}
			c.logger.Printf("Converting \"%s\"\n", job.Name)
			if err := c.ConvertFile(job.Image, job.Out, job.Options); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline returns the first error, cancelling the rest of the
// pipeline and waiting for any conversions still in progress
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (c *Converter) run(ctx context.Context, cancel context.CancelFunc, jobs <-chan Job, errc <-chan error) error {
	errcList := []<-chan error{errc}

	for i := 0; i < runtime.NumCPU(); i++ {
		errc, err := c.jobWorker(ctx, jobs)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancel, errcList...)
}

// Batch converts every image found under path, writing the programs for
// each image into its own directory under out. Images that differ only by
// extension are an error as they would share a directory. out is skipped
// if it lies under path.
func (c *Converter) Batch(path, out string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	out, err = filepath.Abs(out)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	jobs, errc, err := c.findImages(ctx, dir, out, opts)
	if err != nil {
		return err
	}

	return c.run(ctx, cancelFunc, jobs, errc)
}

// RunJobs converts each job using a pool of workers. No two jobs may write
// to the same directory.
func (c *Converter) RunJobs(list []Job) error {
	seen := make(map[string]string)
	for _, job := range list {
		if err := job.Options.Validate(); err != nil {
			return err
		}
		out := filepath.Clean(job.Out)
		if other, ok := seen[out]; ok {
			return fmt.Errorf("jobs \"%s\" and \"%s\" both write to \"%s\"", other, job.Name, out)
		}
		seen[out] = job.Name
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	jobs, errc, err := queueJobs(ctx, list)
	if err != nil {
		return err
	}

	return c.run(ctx, cancelFunc, jobs, errc)
}
