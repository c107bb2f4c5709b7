// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride pins ConfigDir in tests. os.UserHomeDir ignores HOME on
// some CI runners, so tests cannot rely on the environment alone.
var configDirOverride string

// SetConfigDirOverride makes ConfigDir return dir until Reset is called.
func SetConfigDirOverride(dir string) { configDirOverride = dir }

// Reset drops the override installed by SetConfigDirOverride.
func Reset() { configDirOverride = "" }
