package kanjidrill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/esimov/kanjidrill/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// statusLabel prefixes the progress messages.
const statusLabel = "⚡ KANJIDRILL"

// sourceExtensions lists the text files picked up when the source is a directory.
var sourceExtensions = []string{".txt", ".text", ".md"}

// Ops describes where the text is read from and where the sheet is written to.
type Ops struct {
	// Src is a text file, a directory of text files, PipeName for the
	// standard input, or empty to use the text stored in the settings.
	Src string
	// Dst is an output file, a directory when Src is one, or PipeName.
	Dst      string
	PipeName string
	// Ext is the output extension used for directory jobs and pipes. Defaults to ".html".
	Ext     string
	Workers int
}

// Report summarises an execution.
type Report struct {
	// Text is the input text of a single source job.
	Text    string
	Files   int
	Elapsed time.Duration
}

// result holds the relevant information about the processing of one source file.
type result struct {
	path string
	err  error
}

// Execute generates the practice sheets described by op.
// A directory source is processed concurrently by a bounded pool of workers.
func (p *Processor) Execute(ctx context.Context, op *Ops) (*Report, error) {
	now := time.Now()
	if op.Ext == "" {
		op.Ext = ".html"
	}

	if op.Src == "" {
		text := p.Settings.Text
		err := op.process(ctx, p, strings.NewReader(text), op.Dst)
		return &Report{Text: text, Files: 1, Elapsed: time.Since(now)}, err
	}

	if op.Src == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read the standard input: %w", err)
		}
		err = op.process(ctx, p, bytes.NewReader(data), op.Dst)
		return &Report{Text: string(data), Files: 1, Elapsed: time.Since(now)}, err
	}

	fs, err := os.Stat(op.Src)
	if err != nil {
		return nil, fmt.Errorf("failed to load the source: %w", err)
	}

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if op.Dst == op.PipeName {
			return nil, errors.New("a directory source needs a destination directory")
		}
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return nil, fmt.Errorf("unable to create the destination directory: %w", err)
		}

		// Limit the concurrently running workers to maxWorkers.
		if op.Workers <= 0 || op.Workers > maxWorkers {
			op.Workers = runtime.NumCPU()
		}

		var wg sync.WaitGroup
		ch := make(chan result)
		done := make(chan struct{})
		defer close(done)

		paths, errc := walkDir(done, op.Src, sourceExtensions)
		jobs := op.jobs(done, paths)

		wg.Add(op.Workers)
		for i := 0; i < op.Workers; i++ {
			go func() {
				defer wg.Done()
				op.consumer(ctx, p, ch, done, jobs)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		var (
			files int
			errs  []string
		)
		for res := range ch {
			files++
			if res.err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", res.path, res.err))
			}
			if p.Spinner != nil {
				p.Spinner.SetMessage(utils.Status(statusLabel, fmt.Sprintf("⇢ %d files processed...", files), utils.DefaultMessage))
			}
		}
		if err := <-errc; err != nil {
			return nil, err
		}
		report := &Report{Files: files, Elapsed: time.Since(now)}
		if len(errs) > 0 {
			return report, fmt.Errorf("%d of %d files failed:\n\t%s", len(errs), files, strings.Join(errs, "\n\t"))
		}
		return report, nil

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		data, err := os.ReadFile(op.Src)
		if err != nil {
			return nil, fmt.Errorf("unable to open the source file: %w", err)
		}
		err = op.process(ctx, p, bytes.NewReader(data), op.Dst)
		return &Report{Text: string(data), Files: 1, Elapsed: time.Since(now)}, err
	}
	return nil, fmt.Errorf("unsupported source: %s", op.Src)
}

// job pairs a source file with its output path.
type job struct {
	src, dst string
	err      error
}

// jobs assigns an output path to every source path. The directory
// structure of the source is mirrored under the destination. A source
// whose output path was already assigned to an earlier file (e.g. a.txt
// after a.md) is not processed and reported as failed.
func (op *Ops) jobs(done <-chan struct{}, paths <-chan string) <-chan job {
	out := make(chan job)

	go func() {
		defer close(out)

		claimed := make(map[string]string)
		for src := range paths {
			j := job{src: src}
			rel, err := filepath.Rel(op.Src, src)
			if err != nil {
				rel = filepath.Base(src)
			}
			j.dst = filepath.Join(op.Dst, strings.TrimSuffix(rel, filepath.Ext(rel))+op.Ext)
			if prev, ok := claimed[j.dst]; ok {
				j.err = fmt.Errorf("output %s is already generated from %s", j.dst, prev)
			} else {
				claimed[j.dst] = src
			}

			select {
			case <-done:
				return
			case out <- j:
			}
		}
	}()
	return out
}

// consumer reads the jobs from the jobs channel and generates the sheet of each source file.
func (op *Ops) consumer(
	ctx context.Context,
	p *Processor,
	res chan<- result,
	done <-chan struct{},
	jobs <-chan job,
) {
	for j := range jobs {
		err := j.err
		if err == nil {
			err = op.processFile(ctx, p, j.src, j.dst)
		}

		select {
		case <-done:
			return
		case res <- result{
			path: j.src,
			err:  err,
		}:
		}
	}
}

func (op *Ops) processFile(ctx context.Context, p *Processor, in, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}
	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("unable to open the source file: %w", err)
	}
	defer src.Close()

	return op.process(ctx, p, src, out)
}

// process renders the text read from src into the out destination.
func (op *Ops) process(ctx context.Context, p *Processor, src io.Reader, out string) error {
	name := out
	if out == op.PipeName {
		name = op.Ext
	}
	rend, err := NewRenderer(name, p.Settings)
	if err != nil {
		return err
	}

	dst, err := op.destination(out)
	if err != nil {
		return err
	}

	err = p.Process(ctx, src, dst, rend)
	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close the output file: %w", cerr)
		}
		if err != nil {
			// remove the generated file in case of an error
			os.Remove(f.Name())
		}
	}
	return err
}

// destination converts the destination path to a writable file.
func (op *Ops) destination(out string) (io.Writer, error) {
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return os.Stdout, nil
	}
	dst, err := os.Create(out)
	if err != nil {
		return nil, fmt.Errorf("unable to create the destination file: %w", err)
	}
	return dst, nil
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}

			if isValidExtension(strings.ToLower(filepath.Ext(f.Name())), srcExts) {
				select {
				case <-done:
					return errors.New("directory walk cancelled")
				case pathChan <- path:
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}

// Watch renders the sheet of a single source file and renders it again
// every time the file changes, until ctx is done. The rows are kept in a
// Session, so stroke counts resolved in the background also refresh the output.
func (p *Processor) Watch(ctx context.Context, op *Ops, interval time.Duration) error {
	if op.Src == "" || op.Src == op.PipeName || op.Dst == op.PipeName {
		return errors.New("watch mode needs a source file and a destination file")
	}
	if interval <= 0 {
		interval = time.Second
	}
	rend, err := NewRenderer(op.Dst, p.Settings)
	if err != nil {
		return err
	}
	logger := loggerOrDiscard(p.Logger)

	write := func(rows []Row) {
		sheet, err := BuildSheet(ctx, rows, p.Settings, p.Provider, p.Workers, p.Logger)
		if err != nil {
			return
		}
		var buf bytes.Buffer
		if err := rend.Render(&buf, sheet); err != nil {
			logger.WithError(err).Error("unable to render the sheet")
			return
		}
		if err := os.WriteFile(op.Dst, buf.Bytes(), 0644); err != nil {
			logger.WithError(err).Error("unable to write the sheet")
			return
		}
		logger.WithField("rows", len(rows)).Info("sheet updated")
	}

	read := func() (string, time.Time, error) {
		fs, err := os.Stat(op.Src)
		if err != nil {
			return "", time.Time{}, err
		}
		data, err := os.ReadFile(op.Src)
		return string(data), fs.ModTime(), err
	}

	text, mod, err := read()
	if err != nil {
		return fmt.Errorf("failed to load the source: %w", err)
	}
	settings := p.Settings
	settings.Text = text

	var resolver *Resolver
	if p.Provider != nil {
		resolver = &Resolver{Provider: p.Provider, Workers: p.Workers, Logger: p.Logger}
	}
	sess, err := NewSession(ctx, settings, resolver, write)
	if err != nil {
		return err
	}
	defer sess.Wait()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fs, err := os.Stat(op.Src)
			if err != nil || !fs.ModTime().After(mod) {
				continue
			}
			text, mod, err = read()
			if err != nil {
				logger.WithError(err).Warn("unable to read the source")
				continue
			}
			sess.SetText(text)
		}
	}
}
