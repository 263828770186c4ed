package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
)

// KeywordFiles is a set of optional keyword files, empty path means built-in keywords
type KeywordFiles struct {
	Spam   string
	Invite string
}

// LoadKeywords loads keyword files and reloads them on change until ctx is done
func (m *Moderator) LoadKeywords(ctx context.Context, files KeywordFiles) error {
	loaders := []struct {
		path string
		load func(io.Reader) error
	}{
		{files.Spam, m.spam.LoadKeywords},
		{files.Invite, m.invites.Load},
	}

	for _, l := range loaders {
		if l.path == "" {
			continue
		}
		r, err := readFile(l.path)
		if err != nil {
			return err
		}
		if err = l.load(r); err != nil {
			return fmt.Errorf("failed to load keywords from %s: %w", l.path, err)
		}
		log.Printf("[INFO] keywords loaded from %s", l.path)

		go func(path string, load func(io.Reader) error) {
			if err := watch(ctx, path, load); err != nil {
				log.Printf("[WARN] failed to watch file %s: %v", path, err)
			}
		}(l.path, l.load)
	}
	return nil
}

// watch starts watching file for changes and calls onDataChange callback, blocking
func watch(ctx context.Context, path string, onDataChange func(io.Reader) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	done := make(chan bool)
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[INFO] stopping watcher for %s, %v", path, ctx.Err())
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					data, e := readFile(path)
					if e != nil {
						log.Printf("[WARN] failed to read updated file %s: %v", path, e)
						continue
					}
					if e = onDataChange(data); e != nil {
						log.Printf("[WARN] failed to load updated file %s: %v", path, e)
						continue
					}
					log.Printf("[INFO] reloaded %s", path)
				}
			case e, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] watcher error: %v", e)
			}
		}
	}()

	if err = watcher.Add(path); err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", path, err)
	}
	<-done
	return nil
}

func readFile(path string) (io.Reader, error) {
	data, err := os.ReadFile(path) //nolint gosec // path is controlled by the app
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return bytes.NewReader(data), nil
}
