// Package tools exposes the Roblox Studio tool catalog to the MCP server:
// one thin wrapper per tool, each calling broker.Broker.Send (or, for the
// three session-management tools, the registry directly) and translating
// the result into an MCP CallToolResult.
package tools

import (
	"time"

	"github.com/flarecore/studiolink/pkg/broker"
)

// Spec describes one tool in the catalog: its wire name, the description
// surfaced to the assistant, and which timeout class governs how long the
// broker will wait for the plugin to answer.
type Spec struct {
	Name        string
	Description string
	Timeout     timeoutClass
}

type timeoutClass int

const (
	// standard tools get broker.DefaultTimeout (30s).
	standard timeoutClass = iota
	// extended tools get broker.ExtendedTimeout (120s) — anything that
	// scans a whole place, runs a play-mode session, or profiles.
	extended
)

// Duration resolves a timeoutClass to the concrete broker timeout it maps to.
func (c timeoutClass) Duration() time.Duration {
	if c == extended {
		return broker.ExtendedTimeout
	}
	return broker.DefaultTimeout
}

// Catalog is the 46 queue-routed tools of the 49-tool catalog, grouped by
// the source domain each tool covers. The other three, list_sessions,
// switch_session and get_active_session, are not in this list: register.go
// adds them separately, and they act on the session registry directly and
// never go through the plugin queue.
var Catalog = []Spec{
	// core
	{"run_code", "Execute a Luau snippet in Roblox Studio and return its output.", standard},
	{"insert_model", "Insert a model from the Roblox marketplace into the workspace.", standard},
	{"get_console_output", "Fetch recent Studio output/console log lines.", standard},
	{"start_stop_play", "Start or stop Play/Run mode in the editor.", standard},
	{"run_script_in_play_mode", "Run a Luau snippet while the place is in Play mode.", extended},
	{"get_studio_mode", "Report whether Studio is in Edit, Play, or Run mode.", standard},

	// datastore
	{"datastore_list", "List DataStore names used by the place.", standard},
	{"datastore_get", "Read a single key from a DataStore.", standard},
	{"datastore_set", "Write a single key to a DataStore.", standard},
	{"datastore_delete", "Remove a key from a DataStore.", standard},
	{"datastore_scan", "Enumerate every key in a DataStore.", extended},

	// profiler
	{"profile_start", "Begin capturing a MicroProfiler session.", standard},
	{"profile_stop", "Stop the active MicroProfiler session and collect its capture.", extended},
	{"profile_analyze", "Summarize a captured profiler session into hot paths.", extended},

	// diffing
	{"snapshot_take", "Capture a structural snapshot of the current place.", extended},
	{"snapshot_compare", "Diff two previously taken snapshots.", extended},
	{"snapshot_list", "List snapshots captured so far this session.", extended},

	// testing
	{"test_run", "Run the place's test suite (e.g. TestEZ specs).", extended},
	{"test_create", "Scaffold a new test spec file.", standard},
	{"test_report", "Fetch the most recent test run's report.", standard},

	// security
	{"security_scan", "Scan scripts and permissions for common security issues.", extended},
	{"security_report", "Fetch the most recent security scan's findings.", extended},

	// dependencies
	{"dependency_map", "Build a require()/ModuleScript dependency graph for the place.", extended},

	// memory
	{"memory_scan", "Report instance and memory usage across the DataModel.", extended},

	// linter
	{"lint_scripts", "Run static lint checks across every script in the place.", extended},

	// animation
	{"animation_list", "List Animation instances and their associated AnimationTracks.", standard},
	{"animation_inspect", "Inspect keyframes and markers of a single animation.", standard},
	{"animation_conflicts", "Detect overlapping or conflicting animation tracks.", extended},

	// network
	{"network_monitor_start", "Begin capturing RemoteEvent/RemoteFunction traffic.", standard},
	{"network_monitor_stop", "Stop capture and return the recorded network traffic.", extended},

	// ui_inspector
	{"ui_tree", "Dump the GuiObject hierarchy of a ScreenGui.", standard},
	{"ui_analyze", "Analyze a UI tree for layout and accessibility issues.", extended},

	// docs
	{"docs_generate", "Generate documentation from script comments across the place.", extended},

	// workspace
	{"workspace_analyze", "Analyze the Workspace instance tree for structural issues.", extended},

	// instance
	{"get_file_tree", "Return the DataModel's instance hierarchy as a tree.", standard},
	{"get_instance_properties", "Read every property of a single instance.", standard},
	{"set_property", "Set a single property on an instance.", standard},
	{"mass_set_property", "Set a property across every instance matching a query.", standard},
	{"create_instance", "Create a new instance under a given parent.", standard},
	{"delete_instance", "Delete an instance from the DataModel.", standard},

	// scripts
	{"get_script_source", "Read the source of a Script/LocalScript/ModuleScript.", standard},
	{"set_script_source", "Overwrite the source of a Script/LocalScript/ModuleScript.", standard},
	{"grep_scripts", "Search script sources across the place for a pattern.", extended},
	{"search_objects", "Search the DataModel for instances matching a query.", extended},

	// history
	{"undo", "Undo the last change in the Studio edit history.", standard},
	{"redo", "Redo the last undone change in the Studio edit history.", standard},
}
