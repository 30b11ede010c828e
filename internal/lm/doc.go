// Package lm turns headless CLI providers into a language-model style
// API: chat messages in, completion choices out.
//
// Each generation spawns a fresh CLI process. Multi-generation requests
// (n > 1) run sequentially, with the generation coordinates exported to
// the child environment so deterministic test commands can vary their
// output per generation.
package lm
