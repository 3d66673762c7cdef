package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/kievzenit/c2ir/internal/compiler_errors"
	"golang.org/x/sync/errgroup"
)

// buildFailed is raised by the watch loop's error handler instead of exiting
// the process.
type buildFailed struct{}

// watch rebuilds and runs the file on start and after every change until
// interrupted.
func watch(args CliResult, stdout, stderr io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors often replace the file instead of writing it, which drops a
	// watch on the file itself.
	if err := w.Add(filepath.Dir(args.FileName)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	changes := make(chan struct{}, 1)
	changes <- struct{}{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pumpEvents(gctx, w, args.FileName, changes)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changes:
				rebuild(args, stdout, stderr)
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pumpEvents turns writes to fileName into coalesced rebuild requests.
func pumpEvents(ctx context.Context, w *fsnotify.Watcher, fileName string, changes chan<- struct{}) error {
	target := filepath.Clean(fileName)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			select {
			case changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", fileName, err)
		}
	}
}

func rebuild(args CliResult, stdout, stderr io.Writer) {
	eh := compiler_errors.NewErrorHandlerWithExit(stderr, func(int) {
		panic(buildFailed{})
	})
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(buildFailed); !ok {
				panic(r)
			}
		}
	}()

	fmt.Fprintf(stdout, "== %s\n", args.FileName)

	args.Command = COMMAND_RUN
	exitCode, err := execute(args, eh, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return
	}
	fmt.Fprintf(stdout, "== exited with %d\n", exitCode)
}
