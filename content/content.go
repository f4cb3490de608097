// Package content embeds the game's Lua scene definitions.
package content

import "embed"

// Main is the file holding the built-in game.
const Main = "lastrep.lua"

// FS holds the built-in content files.
//
//go:embed lastrep.lua
var FS embed.FS
