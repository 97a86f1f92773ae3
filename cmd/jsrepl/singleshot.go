package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jsrepl/internal/eval"
)

// exitError carries an explicit process exit code up through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// evalOnce is the non-interactive single-shot path. Translation failure
// prints the first line of the cause to stderr and exits 1. A completed
// evaluation exits 0: the rendered text goes to stdout only when explicitly
// requested and clean, and to stderr whenever the evaluation errored and was
// not suppressed, regardless of the print flag.
func evalOnce(ctx context.Context, engine *eval.Engine, pipe eval.Pipeline, source string) error {
	outcome, err := evalSource(ctx, engine, pipe, source)
	if err != nil {
		var te *eval.TranslationError
		if errors.As(err, &te) {
			fmt.Fprintln(os.Stderr, te.UserMessage())
			return &exitError{code: 1, msg: te.UserMessage()}
		}
		return err
	}
	if outcome.Advisory != "" {
		fmt.Fprintln(os.Stderr, "jsrepl: "+outcome.Advisory)
	}
	switch {
	case outcome.Errored && !outcome.SuppressErrorPrint:
		fmt.Fprintln(os.Stderr, outcome.Text)
	case flagPrint && !outcome.Errored && !outcome.SuppressErrorPrint:
		fmt.Println(outcome.Text)
	}
	return nil
}

// evalSource runs one fragment through the translation pipeline, applies the
// top-level-await wrap when the marker is present, and evaluates remotely.
func evalSource(ctx context.Context, engine *eval.Engine, pipe eval.Pipeline, source string) (eval.Outcome, error) {
	translated, err := pipe.Run(source)
	if err != nil {
		return eval.Outcome{}, err
	}
	topLevelAwait := eval.HasTopLevelAwait(translated)
	if topLevelAwait {
		translated = eval.WrapTopLevelAwait(translated)
	}
	return engine.Evaluate(ctx, translated, topLevelAwait)
}

// watchScript evaluates the script once, then re-evaluates it on every
// write until the context is canceled.
func watchScript(ctx context.Context, engine *eval.Engine, pipe eval.Pipeline, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory: editors replace files on save, which drops a
	// watch held on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	runFile := func() {
		source, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("watched script unreadable", zap.Error(err))
			return
		}
		if err := evalOnce(ctx, engine, pipe, string(source)); err != nil {
			fmt.Fprintln(os.Stderr, "jsrepl:", err)
		}
	}
	runFile()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				evAbs, err := filepath.Abs(ev.Name)
				if err != nil || evAbs != abs {
					continue
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					logger.Info("script changed, re-evaluating", zap.String("path", path))
					runFile()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", zap.Error(err))
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
