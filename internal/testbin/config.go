package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

const (
	configEnv  = "YAZI_CONFIG_HOME"
	pluginName = "what-size"
)

// binding is one entry of manager.prepend_keymap.
type binding struct {
	On   []string `toml:"on"`
	Run  string   `toml:"run"`
	Desc string   `toml:"desc"`
}

type keymapFile struct {
	Manager struct {
		PrependKeymap []binding `toml:"prepend_keymap"`
	} `toml:"manager"`
}

// settings is everything the browser reads from its config root.
type settings struct {
	root      string
	bindings  []binding
	left      string
	right     string
	pluginDir string
}

func loadSettings() (settings, error) {
	s := settings{root: os.Getenv(configEnv)}
	if s.root == "" {
		return s, nil
	}

	var km keymapFile
	_, err := toml.DecodeFile(filepath.Join(s.root, "keymap.toml"), &km)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return s, err
	default:
		s.bindings = km.Manager.PrependKeymap
	}

	if data, err := os.ReadFile(filepath.Join(s.root, "init.lua")); err == nil {
		s.left, s.right = parseDelimiters(string(data))
	}

	s.pluginDir = filepath.Join(s.root, "plugins", pluginName+".yazi")
	return s, nil
}

var (
	leftRe  = regexp.MustCompile(`LEFT\s*=\s*"([^"]*)"`)
	rightRe = regexp.MustCompile(`RIGHT\s*=\s*"([^"]*)"`)
)

// parseDelimiters pulls the LEFT and RIGHT strings out of the plugin setup
// call in init.lua.
func parseDelimiters(src string) (left, right string) {
	if m := leftRe.FindStringSubmatch(src); m != nil {
		left = m[1]
	}
	if m := rightRe.FindStringSubmatch(src); m != nil {
		right = m[1]
	}
	return left, right
}

// pluginInstalled reports whether the plugin link resolves to a directory
// holding main.lua.
func (s settings) pluginInstalled() bool {
	if s.pluginDir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.pluginDir, "main.lua"))
	return err == nil && info.Mode().IsRegular()
}

// action is what a completed key sequence asks for.
type action int

const (
	actionNone action = iota
	actionSize
	actionSizeCopy
)

func parseRun(run string) action {
	switch run {
	case "plugin " + pluginName:
		return actionSize
	case "plugin " + pluginName + " -- '--clipboard'", "plugin " + pluginName + " -- --clipboard":
		return actionSizeCopy
	}
	return actionNone
}
