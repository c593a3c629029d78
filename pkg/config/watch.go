package config

import (
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch watches the optional YAML config file for edits and applies a
// changed log_level to log live, without requiring a restart. It runs
// until ctxDone is closed or the watcher's channels close; setup failures
// and watcher errors are logged, not returned, since a broken file watch
// should never bring down the broker.
func Watch(ctxDone <-chan struct{}, log *logrus.Logger) {
	path, err := ConfigPath()
	if err != nil {
		log.WithError(err).Warn("config watch disabled: could not resolve config path")
		return
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Nothing to watch until the file exists; studiolink does not
		// create one on startup.
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Warn("config watch disabled: could not start fsnotify watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("config watch disabled: could not watch config file")
		return
	}

	for {
		select {
		case <-ctxDone:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			applyReload(path, log)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("config watcher error")
		}
	}
}

func applyReload(path string, log *logrus.Logger) {
	cfg, err := LoadFile(Config{LogLevel: log.GetLevel().String()})
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to reload config file")
		return
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).WithField("log_level", cfg.LogLevel).Warn("ignoring invalid log_level in config file")
		return
	}

	if level != log.GetLevel() {
		log.SetLevel(level)
		log.WithField("log_level", level.String()).Info("log level reloaded from config file")
	}
}
