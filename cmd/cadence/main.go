// Command cadence runs a live-coding music session: it loads a startup
// script, plays it, and watches the script file for edits, hot-reloading
// redefinitions into the running session without interrupting playback.
// Flag parsing is a hand-rolled loop over os.Args, matching the teacher's
// main.go rather than pulling in a flags library.
package main

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/cadence-lang/cadence/internal/session"
)

func main() {
	configPath, scriptOverride := parseArgs(os.Args[1:])

	cfg, err := session.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cadence:", err)
		os.Exit(1)
	}
	scriptPath := cfg.StartupFile
	if scriptOverride != "" {
		scriptPath = scriptOverride
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "cadence: fatal:", r)
			os.Exit(2)
		}
	}()

	sess, err := session.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cadence:", err)
		os.Exit(1)
	}
	defer sess.Shutdown()

	if src, err := os.ReadFile(scriptPath); err == nil {
		if err := sess.Run(string(src)); err != nil {
			fmt.Fprintln(os.Stderr, "cadence: parse error in startup file:", err)
			os.Exit(1)
		}
	} else if !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "cadence:", err)
		os.Exit(1)
	}

	watchAndServe(sess, scriptPath)
}

func parseArgs(args []string) (configPath, scriptOverride string) {
	configPath = "cadence.yaml"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			} else {
				fmt.Fprintln(os.Stderr, "cadence: --config requires a path")
				os.Exit(1)
			}
		default:
			if scriptOverride == "" && len(args[i]) > 0 && args[i][0] != '-' {
				scriptOverride = args[i]
			}
		}
	}
	return
}

// watchAndServe watches scriptPath for writes and hot-reloads the session on
// each one, blocking until the process receives an interrupt or the watcher
// cannot be established (in which case it blocks forever, since playback can
// continue fine without hot-reload).
func watchAndServe(sess *session.Session, scriptPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cadence: file watch disabled:", err)
		select {}
	}
	defer watcher.Close()

	if err := watcher.Add(scriptPath); err != nil {
		fmt.Fprintln(os.Stderr, "cadence: cannot watch", scriptPath, "-", err)
		select {}
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			src, err := os.ReadFile(scriptPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "cadence: reload failed:", err)
				continue
			}
			if err := sess.HotReload(string(src)); err != nil {
				fmt.Fprintln(os.Stderr, "cadence: reload error:", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintln(os.Stderr, "cadence: watch error:", err)
		}
	}
}
